package health

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	ErrAuthorizationDenied = errors.New("health data access denied")
	ErrProviderUnavailable = errors.New("health data provider unavailable")
	ErrDataTypeUnavailable = errors.New("health data type not available")
	ErrInvalidDate         = errors.New("invalid date")
)

// Provider is the external health data source. Fetches for a day cover the
// calendar day containing the given time.
type Provider interface {
	RequestAuthorization(ctx context.Context) error
	FetchSteps(ctx context.Context, day time.Time) (int, error)
	FetchCalories(ctx context.Context, day time.Time) (float64, error)
	FetchSleepHours(ctx context.Context, day time.Time) (float64, error)
	FetchWater(ctx context.Context, day time.Time) (float64, error)
	FetchStepsRange(ctx context.Context, start, end time.Time) ([]DaySteps, error)
}

type DaySteps struct {
	Day   time.Time
	Steps int
}

type Metric string

const (
	MetricSteps    Metric = "steps"
	MetricCalories Metric = "calories"
	MetricSleep    Metric = "sleep"
	MetricWater    Metric = "water"
)

var Metrics = []Metric{MetricSteps, MetricCalories, MetricSleep, MetricWater}

func ParseMetric(value string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "steps", "schritte":
		return MetricSteps, nil
	case "calories", "kcal", "kalorien":
		return MetricCalories, nil
	case "sleep", "sleep_hours", "schlaf":
		return MetricSleep, nil
	case "water", "water_liters", "wasser":
		return MetricWater, nil
	default:
		return "", fmt.Errorf("unknown metric %q (expected steps, calories, sleep or water)", value)
	}
}

// Snapshot holds the fetched values for one day; nil means the provider had
// no data for that metric.
type Snapshot struct {
	Day        time.Time
	Steps      *int
	Calories   *float64
	SleepHours *float64
	Water      *float64
}

// FetchDailyMetrics runs the four fetches concurrently. A metric whose fetch
// reports ErrDataTypeUnavailable stays nil; any other failure fails the call.
func FetchDailyMetrics(ctx context.Context, p Provider, day time.Time) (Snapshot, error) {
	if day.IsZero() {
		return Snapshot{}, ErrInvalidDate
	}
	snap := Snapshot{Day: day}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		v, err := p.FetchSteps(gctx, day)
		if err != nil {
			return tolerateMissing(MetricSteps, err)
		}
		snap.Steps = &v
		return nil
	})
	g.Go(func() error {
		v, err := p.FetchCalories(gctx, day)
		if err != nil {
			return tolerateMissing(MetricCalories, err)
		}
		snap.Calories = &v
		return nil
	})
	g.Go(func() error {
		v, err := p.FetchSleepHours(gctx, day)
		if err != nil {
			return tolerateMissing(MetricSleep, err)
		}
		snap.SleepHours = &v
		return nil
	})
	g.Go(func() error {
		v, err := p.FetchWater(gctx, day)
		if err != nil {
			return tolerateMissing(MetricWater, err)
		}
		snap.Water = &v
		return nil
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func tolerateMissing(metric Metric, err error) error {
	if errors.Is(err, ErrDataTypeUnavailable) {
		return nil
	}
	return fmt.Errorf("fetch %s: %w", metric, err)
}
