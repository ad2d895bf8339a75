package app

import (
	"context"
	"errors"
	"strings"

	"github.com/smith3v/mood-tracker/pkg/db"
	"github.com/smith3v/mood-tracker/pkg/logger"
	"github.com/smith3v/mood-tracker/pkg/stats"
	"github.com/smith3v/mood-tracker/pkg/summary"
	"gorm.io/datatypes"
)

const DefaultRecentLimit = 30

// SaveMood stores today's mood. A second save on the same day updates the
// existing entry instead of adding one.
func (s *Service) SaveMood(ctx context.Context, input MoodInput) (*db.MoodEntry, error) {
	user, err := s.CurrentUser()
	if err != nil {
		return nil, s.finish(err)
	}
	if err := validateInput(input); err != nil {
		return nil, s.finish(err)
	}
	intensity := input.Intensity
	if intensity == 0 {
		intensity = db.DefaultIntensity
	}
	var notes *string
	if input.Notes != nil {
		if trimmed := strings.TrimSpace(*input.Notes); trimmed != "" {
			notes = &trimmed
		}
	}

	now := s.clock.Now()
	unlock := s.store.Lock(db.KindMood, user.ID, now)
	entry, created, err := s.store.SaveDailyMood(ctx, user.ID, now, func(e *db.MoodEntry) {
		e.Mood = input.Mood
		e.Notes = notes
		e.SetIntensity(intensity)
		e.Triggers = datatypes.JSONSlice[string](cleanTags(input.Triggers))
		e.Activities = datatypes.JSONSlice[string](cleanTags(input.Activities))
	})
	unlock()
	if err != nil {
		return nil, s.finish(err)
	}
	logger.Info("mood saved", "user_id", user.ID, "day", entry.Day, "mood", entry.Mood, "created", created)

	s.refreshWidgetLogged(ctx)
	return entry, s.finish(nil)
}

// TodayMood returns today's entry, or nil when none was logged yet.
func (s *Service) TodayMood(ctx context.Context) (*db.MoodEntry, error) {
	user, err := s.CurrentUser()
	if err != nil {
		return nil, s.finish(err)
	}
	entry, err := s.store.TodayMood(ctx, user.ID, s.clock.Now())
	if errors.Is(err, db.ErrNotFound) {
		return nil, s.finish(nil)
	}
	if err != nil {
		return nil, s.finish(err)
	}
	return entry, s.finish(nil)
}

// LoadRecentMoodEntries returns the newest entries first.
func (s *Service) LoadRecentMoodEntries(ctx context.Context, limit int) ([]db.MoodEntry, error) {
	user, err := s.CurrentUser()
	if err != nil {
		return nil, s.finish(err)
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	entries, err := s.store.QueryMood(ctx, db.EntryQuery{UserID: user.ID, Order: db.Descending, Limit: limit})
	return entries, s.finish(err)
}

func (s *Service) AllMoodEntries(ctx context.Context) ([]db.MoodEntry, error) {
	user, err := s.CurrentUser()
	if err != nil {
		return nil, s.finish(err)
	}
	entries, err := s.store.QueryMood(ctx, db.EntryQuery{UserID: user.ID})
	return entries, s.finish(err)
}

func (s *Service) DeleteMood(ctx context.Context, id string) error {
	user, err := s.CurrentUser()
	if err != nil {
		return s.finish(err)
	}
	entry, err := s.store.FindMood(ctx, id)
	if err != nil {
		return s.finish(err)
	}
	if entry.UserID != user.ID {
		return s.finish(db.ErrNotOwner)
	}
	unlock := s.store.Lock(db.KindMood, user.ID, entry.Date)
	err = s.store.Delete(ctx, entry)
	unlock()
	if err != nil {
		return s.finish(err)
	}
	logger.Info("mood deleted", "user_id", user.ID, "entry_id", id)

	s.refreshWidgetLogged(ctx)
	return s.finish(nil)
}

// MoodStats summarizes the trend and distribution windows; zero windows use
// the defaults.
func (s *Service) MoodStats(ctx context.Context, trendDays, distributionDays int) (stats.MoodSummary, error) {
	entries, err := s.AllMoodEntries(ctx)
	if err != nil {
		return stats.MoodSummary{}, err
	}
	return stats.Summarize(entries, s.clock.Now(), trendDays, distributionDays), nil
}

func (s *Service) Insights(ctx context.Context) ([]string, error) {
	entries, err := s.AllMoodEntries(ctx)
	if err != nil {
		return nil, err
	}
	return stats.GenerateInsights(entries, s.clock.Now(), s.language()), nil
}

// Context renders the profile and recent data for an external assistant.
func (s *Service) Context(ctx context.Context, daysBack int) (string, error) {
	current, err := s.CurrentUser()
	if err != nil {
		return "", s.finish(err)
	}
	user, err := s.store.FindUser(ctx, current.ID)
	if err != nil {
		return "", s.finish(err)
	}
	moods, err := s.store.QueryMood(ctx, db.EntryQuery{UserID: user.ID})
	if err != nil {
		return "", s.finish(err)
	}
	health, err := s.store.QueryHealth(ctx, db.EntryQuery{UserID: user.ID})
	if err != nil {
		return "", s.finish(err)
	}
	text := summary.BuildContext(*user, moods, health, summary.Options{
		DaysBack: daysBack,
		Now:      s.clock.Now(),
		Language: s.language(),
	})
	return text, s.finish(nil)
}

func cleanTags(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
