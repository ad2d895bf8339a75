package health

import (
	"context"
	"sync"
	"time"

	"github.com/smith3v/mood-tracker/pkg/db"
)

// StaticProvider serves metrics from memory, keyed by calendar day.
type StaticProvider struct {
	mu          sync.Mutex
	loc         *time.Location
	days        map[string]Snapshot
	denied      bool
	unavailable bool
	fetches     int
}

func NewStaticProvider(loc *time.Location) *StaticProvider {
	if loc == nil {
		loc = time.Local
	}
	return &StaticProvider{loc: loc, days: make(map[string]Snapshot)}
}

func (p *StaticProvider) Set(snap Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.days[db.DayKey(snap.Day, p.loc)] = snap
}

// Deny makes every call fail with ErrAuthorizationDenied.
func (p *StaticProvider) Deny(denied bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.denied = denied
}

// SetUnavailable makes every call fail with ErrProviderUnavailable.
func (p *StaticProvider) SetUnavailable(unavailable bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unavailable = unavailable
}

// Fetches reports how many per-metric fetches were served.
func (p *StaticProvider) Fetches() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetches
}

func (p *StaticProvider) RequestAuthorization(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.check()
}

func (p *StaticProvider) check() error {
	if p.unavailable {
		return ErrProviderUnavailable
	}
	if p.denied {
		return ErrAuthorizationDenied
	}
	return nil
}

func (p *StaticProvider) lookup(ctx context.Context, day time.Time) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	if day.IsZero() {
		return Snapshot{}, ErrInvalidDate
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(); err != nil {
		return Snapshot{}, err
	}
	p.fetches++
	return p.days[db.DayKey(day, p.loc)], nil
}

func (p *StaticProvider) FetchSteps(ctx context.Context, day time.Time) (int, error) {
	snap, err := p.lookup(ctx, day)
	if err != nil {
		return 0, err
	}
	if snap.Steps == nil {
		return 0, ErrDataTypeUnavailable
	}
	return *snap.Steps, nil
}

func (p *StaticProvider) FetchCalories(ctx context.Context, day time.Time) (float64, error) {
	snap, err := p.lookup(ctx, day)
	if err != nil {
		return 0, err
	}
	return valueOrMissing(snap.Calories)
}

func (p *StaticProvider) FetchSleepHours(ctx context.Context, day time.Time) (float64, error) {
	snap, err := p.lookup(ctx, day)
	if err != nil {
		return 0, err
	}
	return valueOrMissing(snap.SleepHours)
}

func (p *StaticProvider) FetchWater(ctx context.Context, day time.Time) (float64, error) {
	snap, err := p.lookup(ctx, day)
	if err != nil {
		return 0, err
	}
	return valueOrMissing(snap.Water)
}

func (p *StaticProvider) FetchStepsRange(ctx context.Context, start, end time.Time) ([]DaySteps, error) {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return nil, ErrInvalidDate
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(); err != nil {
		return nil, err
	}
	return stepsRange(start, end, p.loc, func(key string) int {
		if snap, ok := p.days[key]; ok && snap.Steps != nil {
			return *snap.Steps
		}
		return 0
	}), nil
}

// stepsRange yields one point per calendar day from start to end inclusive.
func stepsRange(start, end time.Time, loc *time.Location, steps func(key string) int) []DaySteps {
	var out []DaySteps
	last := db.StartOfDay(end, loc)
	for day := db.StartOfDay(start, loc); !day.After(last); day = day.AddDate(0, 0, 1) {
		out = append(out, DaySteps{Day: day, Steps: steps(db.DayKey(day, loc))})
	}
	return out
}

func valueOrMissing(v *float64) (float64, error) {
	if v == nil {
		return 0, ErrDataTypeUnavailable
	}
	return *v, nil
}
