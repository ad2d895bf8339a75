package app

import (
	"context"
	"time"

	"github.com/smith3v/mood-tracker/pkg/db"
	"github.com/smith3v/mood-tracker/pkg/health"
	"github.com/smith3v/mood-tracker/pkg/logger"
	"github.com/smith3v/mood-tracker/pkg/stats"
)

// TodayHealth returns today's health entry, creating an empty one if needed.
func (s *Service) TodayHealth(ctx context.Context) (*db.HealthDataEntry, error) {
	user, err := s.CurrentUser()
	if err != nil {
		return nil, s.finish(err)
	}
	now := s.clock.Now()
	unlock := s.store.Lock(db.KindHealth, user.ID, now)
	entry, _, err := s.store.UpsertDailyHealth(ctx, user.ID, now)
	unlock()
	return entry, s.finish(err)
}

// EditHealthMetric stores a manual value for day (today when zero). Later
// syncs no longer overwrite that metric.
func (s *Service) EditHealthMetric(ctx context.Context, day time.Time, metric string, value float64) (*db.HealthDataEntry, error) {
	user, err := s.CurrentUser()
	if err != nil {
		return nil, s.finish(err)
	}
	m, err := health.ParseMetric(metric)
	if err != nil {
		return nil, s.finish(err)
	}
	if day.IsZero() {
		day = s.clock.Now()
	}
	entry, err := s.syncer.ManualEdit(ctx, user.ID, day, m, value)
	if err != nil {
		return nil, s.finish(err)
	}
	logger.Info("health metric edited", "user_id", user.ID, "day", entry.Day, "metric", m)
	return entry, s.finish(nil)
}

// DeleteHealth removes a day's health entry. This is the only way to drop
// the manual marks, so the next sync fills every metric again.
func (s *Service) DeleteHealth(ctx context.Context, id string) error {
	user, err := s.CurrentUser()
	if err != nil {
		return s.finish(err)
	}
	entry, err := s.store.FindHealth(ctx, id)
	if err != nil {
		return s.finish(err)
	}
	if entry.UserID != user.ID {
		return s.finish(db.ErrNotOwner)
	}
	unlock := s.store.Lock(db.KindHealth, user.ID, entry.Date)
	err = s.store.Delete(ctx, entry)
	unlock()
	if err != nil {
		return s.finish(err)
	}
	logger.Info("health entry deleted", "user_id", user.ID, "entry_id", id, "day", entry.Day)
	return s.finish(nil)
}

// SyncHealth merges provider data for day (today when zero). A failed sync
// leaves the stored entry untouched.
func (s *Service) SyncHealth(ctx context.Context, day time.Time) (health.SyncResult, error) {
	user, err := s.CurrentUser()
	if err != nil {
		return health.SyncResult{}, s.finish(err)
	}
	if day.IsZero() {
		day = s.clock.Now()
	}
	s.update(func(st *State) {
		st.Syncing = true
	})
	defer s.update(func(st *State) {
		st.Syncing = false
	})
	res, err := s.syncer.SyncDay(ctx, user.ID, day)
	return res, s.finish(err)
}

// AutoSync syncs today when someone is signed in and auto sync is enabled.
// It reports whether a sync was attempted.
func (s *Service) AutoSync(ctx context.Context) (bool, error) {
	if _, err := s.CurrentUser(); err != nil {
		return false, nil
	}
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return false, s.finish(err)
	}
	if !settings.AutoSyncHealthData {
		return false, nil
	}
	_, err = s.SyncHealth(ctx, time.Time{})
	return true, err
}

// HealthRange returns the stored entries for the calendar days from..to,
// both inclusive.
func (s *Service) HealthRange(ctx context.Context, from, to time.Time) ([]db.HealthDataEntry, error) {
	user, err := s.CurrentUser()
	if err != nil {
		return nil, s.finish(err)
	}
	loc := s.store.Location()
	start := db.StartOfDay(from, loc)
	end := db.StartOfDay(to, loc).AddDate(0, 0, 1)
	if end.Before(start) {
		return nil, s.finish(health.ErrInvalidDate)
	}
	entries, err := s.store.QueryHealth(ctx, db.EntryQuery{UserID: user.ID, From: start, To: end})
	return entries, s.finish(err)
}

// StepsHistory asks the provider for the step counts of the last days days.
func (s *Service) StepsHistory(ctx context.Context, days int) ([]health.DaySteps, error) {
	if days <= 0 {
		days = stats.DefaultTrendDays
	}
	today := db.StartOfDay(s.clock.Now(), s.store.Location())
	history, err := s.syncer.StepsHistory(ctx, today.AddDate(0, 0, -(days-1)), today)
	return history, s.finish(err)
}

func (s *Service) WeeklyAverages(ctx context.Context) (stats.HealthAverages, error) {
	now := s.clock.Now()
	entries, err := s.HealthRange(ctx, now.AddDate(0, 0, -stats.DefaultTrendDays), now)
	if err != nil {
		return stats.HealthAverages{}, err
	}
	return stats.WeeklyHealthAverages(stats.HealthWithinDays(entries, now, stats.DefaultTrendDays)), nil
}
