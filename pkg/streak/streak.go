package streak

import (
	"time"

	"github.com/smith3v/mood-tracker/pkg/db"
)

// Snapshot is the record shared with the home screen widget.
type Snapshot struct {
	StreakCount int       `json:"streakCount"`
	Last7Days   [7]bool   `json:"last7Days"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Compute counts consecutive calendar days with a mood entry ending today.
// A day without an entry yet does not break the streak until it is over, so
// counting starts at yesterday in that case. Last7Days[6] is today.
func Compute(entries []db.MoodEntry, now time.Time, loc *time.Location) Snapshot {
	if loc == nil {
		loc = time.Local
	}
	logged := make(map[string]bool, len(entries))
	for _, e := range entries {
		logged[db.DayKey(e.Date, loc)] = true
	}

	today := db.StartOfDay(now, loc)
	snap := Snapshot{UpdatedAt: now.UTC()}
	for i := 0; i < 7; i++ {
		snap.Last7Days[6-i] = logged[db.DayKey(today.AddDate(0, 0, -i), loc)]
	}

	cursor := today
	if !logged[db.DayKey(cursor, loc)] {
		cursor = cursor.AddDate(0, 0, -1)
	}
	for logged[db.DayKey(cursor, loc)] {
		snap.StreakCount++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return snap
}
