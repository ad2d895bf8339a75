package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/smith3v/mood-tracker/pkg/db"
	"github.com/smith3v/mood-tracker/pkg/logger"
	"github.com/smith3v/mood-tracker/pkg/metrics"
)

type SyncerOptions struct {
	// Timeout bounds a single provider fetch; zero means no timeout.
	Timeout time.Duration
	Metrics *metrics.SyncMetrics
	Clock   clockwork.Clock
}

// Syncer merges provider data into the stored health entries.
type Syncer struct {
	store    *db.Store
	provider Provider
	timeout  time.Duration
	metrics  *metrics.SyncMetrics
	clock    clockwork.Clock
}

type SyncResult struct {
	Entry *db.HealthDataEntry
	Merge MergeResult
}

func NewSyncer(store *db.Store, provider Provider, opts SyncerOptions) *Syncer {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Syncer{
		store:    store,
		provider: provider,
		timeout:  opts.Timeout,
		metrics:  opts.Metrics,
		clock:    clock,
	}
}

func (s *Syncer) RequestAuthorization(ctx context.Context) error {
	return s.provider.RequestAuthorization(ctx)
}

// SyncDay fetches the day's metrics and merges them into the stored entry.
// Any fetch failure leaves the stored entry unchanged.
func (s *Syncer) SyncDay(ctx context.Context, userID string, day time.Time) (SyncResult, error) {
	started := s.clock.Now()

	fetchCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	snap, err := FetchDailyMetrics(fetchCtx, s.provider, day)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
		}
		s.metrics.ObserveSync(Outcome(err), s.clock.Since(started))
		logger.Warn("health sync failed", "user_id", userID, "day", db.DayKey(day, s.store.Location()), "error", err)
		return SyncResult{}, err
	}

	unlock := s.store.Lock(db.KindHealth, userID, day)
	defer unlock()

	var res MergeResult
	entry, err := s.store.MutateDailyHealth(ctx, userID, day, func(e *db.HealthDataEntry) error {
		merged, r := ApplyMerge(*e, snap)
		*e = merged
		res = r
		return nil
	})
	if err != nil {
		s.metrics.ObserveSync(metrics.OutcomeError, s.clock.Since(started))
		logger.Error("failed to store synced health data", "user_id", userID, "error", err)
		return SyncResult{}, err
	}

	for _, m := range res.Applied {
		s.metrics.ObserveMerge(string(m), true)
	}
	for _, m := range res.Locked {
		s.metrics.ObserveMerge(string(m), false)
	}
	if err := s.store.MarkHealthSynced(ctx, s.clock.Now()); err != nil {
		logger.Warn("failed to record last health sync", "error", err)
	}
	s.metrics.ObserveSync(metrics.OutcomeSuccess, s.clock.Since(started))
	logger.Debug("health sync merged", "user_id", userID, "day", entry.Day,
		"applied", len(res.Applied), "locked", len(res.Locked), "missing", len(res.Missing))

	return SyncResult{Entry: entry, Merge: res}, nil
}

// ManualEdit stores a user-supplied value and locks the metric against sync.
func (s *Syncer) ManualEdit(ctx context.Context, userID string, day time.Time, metric Metric, value float64) (*db.HealthDataEntry, error) {
	if value < 0 {
		return nil, fmt.Errorf("%s must not be negative", metric)
	}
	if _, err := ParseMetric(string(metric)); err != nil {
		return nil, err
	}

	unlock := s.store.Lock(db.KindHealth, userID, day)
	defer unlock()

	return s.store.MutateDailyHealth(ctx, userID, day, func(e *db.HealthDataEntry) error {
		SetMetric(e, metric, value, true)
		return nil
	})
}

func (s *Syncer) StepsHistory(ctx context.Context, start, end time.Time) ([]DaySteps, error) {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return nil, ErrInvalidDate
	}
	return s.provider.FetchStepsRange(ctx, start, end)
}

// Outcome maps a sync error onto a metrics label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrAuthorizationDenied):
		return metrics.OutcomeDenied
	case errors.Is(err, ErrProviderUnavailable):
		return metrics.OutcomeUnavailable
	default:
		return metrics.OutcomeError
	}
}
