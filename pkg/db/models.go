package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultLanguage      = "de"
	DefaultReminderAt    = "20:00"
	dayLayout            = "2006-01-02"
	defaultSettingsScope = "default"
)

type User struct {
	ID            string `gorm:"type:varchar(36);primaryKey"`
	Email         string `gorm:"not null;uniqueIndex"` // login key
	Name          string `gorm:"not null"`
	Age           *int
	Weight        *float64 // kg
	Height        *float64 // cm
	Gender        *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	MoodEntries   []MoodEntry       `gorm:"constraint:OnDelete:CASCADE"`
	HealthEntries []HealthDataEntry `gorm:"constraint:OnDelete:CASCADE"`
}

type MoodEntry struct {
	ID         string       `gorm:"type:varchar(36);primaryKey"`
	UserID     string       `gorm:"type:varchar(36);not null;uniqueIndex:idx_mood_user_day"`
	Date       time.Time    `gorm:"not null;index"`
	Day        string       `gorm:"type:varchar(10);not null;uniqueIndex:idx_mood_user_day"`
	Mood       MoodCategory `gorm:"type:varchar(32);not null"`
	Notes      *string
	Intensity  int                         `gorm:"not null;default:5"`
	Triggers   datatypes.JSONSlice[string] `gorm:"type:json"`
	Activities datatypes.JSONSlice[string] `gorm:"type:json"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type HealthDataEntry struct {
	ID                     string    `gorm:"type:varchar(36);primaryKey"`
	UserID                 string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_health_user_day"`
	Date                   time.Time `gorm:"not null;index"`
	Day                    string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_health_user_day"`
	Steps                  *int
	Calories               *float64 // kcal
	SleepHours             *float64
	WaterIntake            *float64 // liters
	StepsManuallyEdited    bool `gorm:"not null;default:false"`
	CaloriesManuallyEdited bool `gorm:"not null;default:false"`
	SleepManuallyEdited    bool `gorm:"not null;default:false"`
	WaterManuallyEdited    bool `gorm:"not null;default:false"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// AppSettings is a single row per installation, not tied to a user.
type AppSettings struct {
	ID                   string  `gorm:"type:varchar(36);primaryKey"`
	Scope                string  `gorm:"type:varchar(32);not null;uniqueIndex"`
	NotificationsEnabled bool    `gorm:"not null"`
	DailyReminderAt      *string `gorm:"type:varchar(5)"` // "HH:MM"
	PreferredLanguage    string  `gorm:"type:varchar(8);not null"`
	AutoSyncHealthData   bool    `gorm:"not null"`
	LastHealthSync       *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (e *MoodEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func (e *HealthDataEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func (s *AppSettings) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Scope == "" {
		s.Scope = defaultSettingsScope
	}
	return nil
}

func NewUser(email, name string) User {
	return User{
		Email: NormalizeEmail(email),
		Name:  strings.TrimSpace(name),
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewMoodEntry clamps intensity into [1,10]. Timestamps are stored in UTC and
// the calendar day is derived in loc.
func NewMoodEntry(mood MoodCategory, notes *string, intensity int, at time.Time, loc *time.Location) MoodEntry {
	return MoodEntry{
		Date:      at.UTC(),
		Day:       DayKey(at, loc),
		Mood:      mood,
		Notes:     notes,
		Intensity: ClampIntensity(intensity),
	}
}

func (e *MoodEntry) SetIntensity(value int) {
	e.Intensity = ClampIntensity(value)
}

func NewHealthDataEntry(day time.Time, loc *time.Location) HealthDataEntry {
	return HealthDataEntry{
		Date: StartOfDay(day, loc).UTC(),
		Day:  DayKey(day, loc),
	}
}

// The Update* helpers set the value and lock the metric against sync when manual is set.
// No helper clears a lock.

func (e *HealthDataEntry) UpdateSteps(steps int, manual bool) {
	e.Steps = &steps
	if manual {
		e.StepsManuallyEdited = true
	}
}

func (e *HealthDataEntry) UpdateCalories(kcal float64, manual bool) {
	e.Calories = &kcal
	if manual {
		e.CaloriesManuallyEdited = true
	}
}

func (e *HealthDataEntry) UpdateSleep(hours float64, manual bool) {
	e.SleepHours = &hours
	if manual {
		e.SleepManuallyEdited = true
	}
}

func (e *HealthDataEntry) UpdateWater(liters float64, manual bool) {
	e.WaterIntake = &liters
	if manual {
		e.WaterManuallyEdited = true
	}
}

func DefaultSettings() AppSettings {
	reminder := DefaultReminderAt
	return AppSettings{
		Scope:                defaultSettingsScope,
		NotificationsEnabled: true,
		DailyReminderAt:      &reminder,
		PreferredLanguage:    DefaultLanguage,
		AutoSyncHealthData:   true,
	}
}

// ReminderClock returns the configured reminder hour and minute.
func (s AppSettings) ReminderClock() (int, int, bool) {
	if s.DailyReminderAt == nil {
		return 0, 0, false
	}
	hour, minute, err := ParseClock(*s.DailyReminderAt)
	if err != nil {
		return 0, 0, false
	}
	return hour, minute, true
}

func ParseClock(value string) (int, int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q: expected HH:MM", value)
	}
	return t.Hour(), t.Minute(), nil
}

func FormatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	year, month, day := local.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func DayKey(t time.Time, loc *time.Location) string {
	return StartOfDay(t, loc).Format(dayLayout)
}

func ParseDay(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(dayLayout, strings.TrimSpace(value), loc)
}
