package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Kind string

const (
	KindMood   Kind = "mood"
	KindHealth Kind = "health"
)

// Entry is a per-day record owned by a user.
type Entry interface {
	EntryID() string
	OwnerID() string
	CalendarDay() string
	Timestamp() time.Time
}

func (e *MoodEntry) EntryID() string      { return e.ID }
func (e *MoodEntry) OwnerID() string      { return e.UserID }
func (e *MoodEntry) CalendarDay() string  { return e.Day }
func (e *MoodEntry) Timestamp() time.Time { return e.Date }

func (e *HealthDataEntry) EntryID() string      { return e.ID }
func (e *HealthDataEntry) OwnerID() string      { return e.UserID }
func (e *HealthDataEntry) CalendarDay() string  { return e.Day }
func (e *HealthDataEntry) Timestamp() time.Time { return e.Date }

func (e *MoodEntry) BeforeSave(tx *gorm.DB) error {
	e.Intensity = ClampIntensity(e.Intensity)
	return nil
}

type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// EntryQuery selects entries of one owner. Zero From/To leave that side open;
// To is exclusive. Limit <= 0 means no limit.
type EntryQuery struct {
	UserID string
	From   time.Time
	To     time.Time
	Order  SortOrder
	Limit  int
}

// UpsertDailyEntry returns the owner's entry of the given kind dated within the
// calendar day containing at, creating and linking a new one when none exists.
func (s *Store) UpsertDailyEntry(ctx context.Context, kind Kind, userID string, at time.Time) (Entry, bool, error) {
	switch kind {
	case KindMood:
		entry, created, err := s.UpsertDailyMood(ctx, userID, at)
		if err != nil {
			return nil, false, err
		}
		return entry, created, nil
	case KindHealth:
		entry, created, err := s.UpsertDailyHealth(ctx, userID, at)
		if err != nil {
			return nil, false, err
		}
		return entry, created, nil
	default:
		return nil, false, fmt.Errorf("unknown entry kind %q", kind)
	}
}

func (s *Store) UpsertDailyMood(ctx context.Context, userID string, at time.Time) (*MoodEntry, bool, error) {
	var entry *MoodEntry
	var created bool
	err := s.retryOnDuplicate(func() error {
		return s.tx(ctx, "upsert mood entry", func(tx *gorm.DB) error {
			var err error
			entry, created, err = s.upsertMood(tx, userID, at)
			return err
		})
	})
	return entry, created, err
}

func (s *Store) UpsertDailyHealth(ctx context.Context, userID string, at time.Time) (*HealthDataEntry, bool, error) {
	var entry *HealthDataEntry
	var created bool
	err := s.retryOnDuplicate(func() error {
		return s.tx(ctx, "upsert health entry", func(tx *gorm.DB) error {
			var err error
			entry, created, err = s.upsertHealth(tx, userID, at)
			return err
		})
	})
	return entry, created, err
}

// SaveDailyMood finds or creates the mood entry for the day of at and applies
// mutate to it inside one transaction.
func (s *Store) SaveDailyMood(ctx context.Context, userID string, at time.Time, mutate func(*MoodEntry)) (*MoodEntry, bool, error) {
	var entry *MoodEntry
	var created bool
	err := s.retryOnDuplicate(func() error {
		return s.tx(ctx, "save mood entry", func(tx *gorm.DB) error {
			var err error
			entry, created, err = s.upsertMood(tx, userID, at)
			if err != nil {
				return err
			}
			mutate(entry)
			return tx.Omit(clause.Associations).Save(entry).Error
		})
	})
	return entry, created, err
}

// MutateDailyHealth finds or creates the health entry for the day and applies
// mutate inside one transaction. Returning an error from mutate rolls back.
func (s *Store) MutateDailyHealth(ctx context.Context, userID string, day time.Time, mutate func(*HealthDataEntry) error) (*HealthDataEntry, error) {
	var entry *HealthDataEntry
	err := s.retryOnDuplicate(func() error {
		return s.tx(ctx, "update health entry", func(tx *gorm.DB) error {
			var err error
			entry, _, err = s.upsertHealth(tx, userID, day)
			if err != nil {
				return err
			}
			if err := mutate(entry); err != nil {
				return err
			}
			return tx.Omit(clause.Associations).Save(entry).Error
		})
	})
	return entry, err
}

func (s *Store) upsertMood(tx *gorm.DB, userID string, at time.Time) (*MoodEntry, bool, error) {
	if err := requireUser(tx, userID); err != nil {
		return nil, false, err
	}
	start, end := s.dayBounds(at)
	var entry MoodEntry
	err := tx.Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		Order("date ASC").
		First(&entry).Error
	if err == nil {
		return &entry, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	entry = NewMoodEntry(MoodNeutral, nil, DefaultIntensity, at, s.loc)
	entry.UserID = userID
	if err := tx.Create(&entry).Error; err != nil {
		return nil, false, err
	}
	return &entry, true, nil
}

func (s *Store) upsertHealth(tx *gorm.DB, userID string, day time.Time) (*HealthDataEntry, bool, error) {
	if err := requireUser(tx, userID); err != nil {
		return nil, false, err
	}
	start, end := s.dayBounds(day)
	var entry HealthDataEntry
	err := tx.Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		Order("date ASC").
		First(&entry).Error
	if err == nil {
		return &entry, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	entry = NewHealthDataEntry(day, s.loc)
	entry.UserID = userID
	if err := tx.Create(&entry).Error; err != nil {
		return nil, false, err
	}
	return &entry, true, nil
}

// retryOnDuplicate reruns fn once when a concurrent writer created the same
// (user, day) row first; the second attempt finds it.
func (s *Store) retryOnDuplicate(fn func() error) error {
	err := fn()
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = fn()
	}
	return err
}

func (s *Store) dayBounds(at time.Time) (time.Time, time.Time) {
	start := StartOfDay(at, s.loc)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}

func requireUser(tx *gorm.DB, userID string) error {
	var count int64
	if err := tx.Model(&User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return nil
}

func (s *Store) TodayMood(ctx context.Context, userID string, now time.Time) (*MoodEntry, error) {
	entries, err := s.QueryMood(ctx, EntryQuery{UserID: userID, From: StartOfDay(now, s.loc), To: StartOfDay(now, s.loc).AddDate(0, 0, 1), Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	return &entries[0], nil
}

func (s *Store) QueryMood(ctx context.Context, q EntryQuery) ([]MoodEntry, error) {
	var entries []MoodEntry
	if err := s.applyQuery(ctx, q).Find(&entries).Error; err != nil {
		return nil, storageErr("query mood entries", err)
	}
	return entries, nil
}

func (s *Store) QueryHealth(ctx context.Context, q EntryQuery) ([]HealthDataEntry, error) {
	var entries []HealthDataEntry
	if err := s.applyQuery(ctx, q).Find(&entries).Error; err != nil {
		return nil, storageErr("query health entries", err)
	}
	return entries, nil
}

// Query returns entries of either kind behind the Entry interface.
func (s *Store) Query(ctx context.Context, kind Kind, q EntryQuery) ([]Entry, error) {
	switch kind {
	case KindMood:
		moods, err := s.QueryMood(ctx, q)
		if err != nil {
			return nil, err
		}
		out := make([]Entry, 0, len(moods))
		for i := range moods {
			out = append(out, &moods[i])
		}
		return out, nil
	case KindHealth:
		health, err := s.QueryHealth(ctx, q)
		if err != nil {
			return nil, err
		}
		out := make([]Entry, 0, len(health))
		for i := range health {
			out = append(out, &health[i])
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown entry kind %q", kind)
	}
}

func (s *Store) applyQuery(ctx context.Context, q EntryQuery) *gorm.DB {
	query := s.db.WithContext(ctx)
	if q.UserID != "" {
		query = query.Where("user_id = ?", q.UserID)
	}
	if !q.From.IsZero() {
		query = query.Where("date >= ?", q.From.UTC())
	}
	if !q.To.IsZero() {
		query = query.Where("date < ?", q.To.UTC())
	}
	if q.Order == Descending {
		query = query.Order("date DESC")
	} else {
		query = query.Order("date ASC")
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	return query
}

func (s *Store) FindMood(ctx context.Context, id string) (*MoodEntry, error) {
	var entry MoodEntry
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error; err != nil {
		return nil, storageErr("find mood entry", err)
	}
	return &entry, nil
}

func (s *Store) FindHealth(ctx context.Context, id string) (*HealthDataEntry, error) {
	var entry HealthDataEntry
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error; err != nil {
		return nil, storageErr("find health entry", err)
	}
	return &entry, nil
}

func (s *Store) Save(ctx context.Context, entry Entry) error {
	return s.tx(ctx, "save entry", func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Save(entry).Error
	})
}

func (s *Store) Delete(ctx context.Context, entry Entry) error {
	return s.tx(ctx, "delete entry", func(tx *gorm.DB) error {
		res := tx.Delete(entry)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
