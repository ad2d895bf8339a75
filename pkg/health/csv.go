package health

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/smith3v/mood-tracker/pkg/db"
	"github.com/smith3v/mood-tracker/pkg/importexport"
	"github.com/smith3v/mood-tracker/pkg/logger"
)

// CSVProvider reads metrics from an exported health file. The file is
// re-read whenever its modification time changes.
type CSVProvider struct {
	path string
	loc  *time.Location

	mu      sync.Mutex
	modTime time.Time
	days    map[string]importexport.HealthRow
}

func NewCSVProvider(path string, loc *time.Location) *CSVProvider {
	if loc == nil {
		loc = time.Local
	}
	return &CSVProvider{path: path, loc: loc}
}

func (p *CSVProvider) RequestAuthorization(ctx context.Context) error {
	_, err := p.rows()
	return err
}

func (p *CSVProvider) rows() (map[string]importexport.HealthRow, error) {
	if p.path == "" {
		return nil, fmt.Errorf("%w: no health export file configured", ErrProviderUnavailable)
	}
	info, err := os.Stat(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %v", ErrAuthorizationDenied, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.days != nil && info.ModTime().Equal(p.modTime) {
		return p.days, nil
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %v", ErrAuthorizationDenied, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	parsed, skipped, err := importexport.ParseHealthCSV(data, p.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrProviderUnavailable, p.path, err)
	}
	if skipped > 0 {
		logger.Warn("skipped unreadable rows in health export", "path", p.path, "skipped", skipped)
	}

	days := make(map[string]importexport.HealthRow, len(parsed))
	for _, row := range parsed {
		days[db.DayKey(row.Day, p.loc)] = row
	}
	p.days = days
	p.modTime = info.ModTime()
	return days, nil
}

func (p *CSVProvider) row(ctx context.Context, day time.Time) (importexport.HealthRow, error) {
	if err := ctx.Err(); err != nil {
		return importexport.HealthRow{}, err
	}
	if day.IsZero() {
		return importexport.HealthRow{}, ErrInvalidDate
	}
	days, err := p.rows()
	if err != nil {
		return importexport.HealthRow{}, err
	}
	return days[db.DayKey(day, p.loc)], nil
}

func (p *CSVProvider) FetchSteps(ctx context.Context, day time.Time) (int, error) {
	row, err := p.row(ctx, day)
	if err != nil {
		return 0, err
	}
	if row.Steps == nil {
		return 0, ErrDataTypeUnavailable
	}
	return *row.Steps, nil
}

func (p *CSVProvider) FetchCalories(ctx context.Context, day time.Time) (float64, error) {
	row, err := p.row(ctx, day)
	if err != nil {
		return 0, err
	}
	return valueOrMissing(row.Calories)
}

func (p *CSVProvider) FetchSleepHours(ctx context.Context, day time.Time) (float64, error) {
	row, err := p.row(ctx, day)
	if err != nil {
		return 0, err
	}
	return valueOrMissing(row.SleepHours)
}

func (p *CSVProvider) FetchWater(ctx context.Context, day time.Time) (float64, error) {
	row, err := p.row(ctx, day)
	if err != nil {
		return 0, err
	}
	return valueOrMissing(row.Water)
}

func (p *CSVProvider) FetchStepsRange(ctx context.Context, start, end time.Time) ([]DaySteps, error) {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return nil, ErrInvalidDate
	}
	days, err := p.rows()
	if err != nil {
		return nil, err
	}
	return stepsRange(start, end, p.loc, func(key string) int {
		if row, ok := days[key]; ok && row.Steps != nil {
			return *row.Steps
		}
		return 0
	}), nil
}
