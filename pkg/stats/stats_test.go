package stats

import (
	"strings"
	"testing"
	"time"

	"github.com/smith3v/mood-tracker/pkg/db"
)

var now = time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)

func moodAt(mood db.MoodCategory, daysAgo int) db.MoodEntry {
	return db.NewMoodEntry(mood, nil, 5, now.AddDate(0, 0, -daysAgo), time.UTC)
}

func ptrInt(v int) *int           { return &v }
func ptrFloat(v float64) *float64 { return &v }

func TestAverageMoodScore(t *testing.T) {
	tests := []struct {
		name    string
		entries []db.MoodEntry
		want    float64
	}{
		{"empty", nil, 5.0},
		{"happy and calm", []db.MoodEntry{moodAt(db.MoodHappy, 0), moodAt(db.MoodCalm, 1)}, 7.0},
		{"mixed", []db.MoodEntry{moodAt(db.MoodVeryHappy, 0), moodAt(db.MoodVerySad, 1)}, 5.0},
		{"tired", []db.MoodEntry{moodAt(db.MoodTired, 0)}, 4.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AverageMoodScore(tt.entries); got != tt.want {
				t.Fatalf("expected %.2f, got %.2f", tt.want, got)
			}
		})
	}
}

func TestMostFrequentMood(t *testing.T) {
	if _, ok := MostFrequentMood(nil); ok {
		t.Fatalf("expected no mode for empty input")
	}

	entries := []db.MoodEntry{
		moodAt(db.MoodCalm, 0),
		moodAt(db.MoodSad, 1),
		moodAt(db.MoodCalm, 2),
		moodAt(db.MoodSad, 3),
	}
	got, ok := MostFrequentMood(entries)
	if !ok || got != db.MoodSad {
		t.Fatalf("expected tie to go to sad (declared before calm), got %s", got)
	}

	entries = append(entries, moodAt(db.MoodCalm, 4))
	got, _ = MostFrequentMood(entries)
	if got != db.MoodCalm {
		t.Fatalf("expected calm as the clear mode, got %s", got)
	}
}

func TestMoodDistribution(t *testing.T) {
	entries := []db.MoodEntry{
		moodAt(db.MoodHappy, 0),
		moodAt(db.MoodHappy, 1),
		moodAt(db.MoodTired, 2),
	}
	dist := MoodDistribution(entries)
	if dist[db.MoodHappy] != 2 || dist[db.MoodTired] != 1 || len(dist) != 2 {
		t.Fatalf("unexpected distribution: %v", dist)
	}
}

func TestWeeklyHealthAverages(t *testing.T) {
	got := WeeklyHealthAverages([]db.HealthDataEntry{{Steps: nil}, {Steps: ptrInt(1000)}})
	if got.Steps != 1000 {
		t.Fatalf("expected steps=1000 counting only present values, got %.1f", got.Steps)
	}

	got = WeeklyHealthAverages([]db.HealthDataEntry{{Steps: nil}})
	if got.Steps != 0 {
		t.Fatalf("expected steps=0 with no values, got %.1f", got.Steps)
	}

	got = WeeklyHealthAverages([]db.HealthDataEntry{
		{SleepHours: ptrFloat(6), WaterIntake: ptrFloat(1), Calories: ptrFloat(300)},
		{SleepHours: ptrFloat(8), WaterIntake: ptrFloat(2)},
	})
	if got.Sleep != 7 || got.Water != 1.5 || got.Calories != 300 {
		t.Fatalf("unexpected averages: %+v", got)
	}
}

func TestWithinDays(t *testing.T) {
	entries := []db.MoodEntry{moodAt(db.MoodHappy, 0), moodAt(db.MoodHappy, 7), moodAt(db.MoodHappy, 8)}
	if got := WithinDays(entries, now, 7); len(got) != 2 {
		t.Fatalf("expected 2 entries within 7 days, got %d", len(got))
	}
}

func TestMoodChartSortsAscending(t *testing.T) {
	points := MoodChart([]db.MoodEntry{moodAt(db.MoodHappy, 0), moodAt(db.MoodSad, 2), moodAt(db.MoodCalm, 1)})
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	if points[0].Score != 3 || points[2].Score != 7 || !points[0].Date.Before(points[1].Date) {
		t.Fatalf("unexpected chart order: %+v", points)
	}
}

func TestGenerateInsights(t *testing.T) {
	tests := []struct {
		name    string
		entries []db.MoodEntry
		lang    string
		want    []string
	}{
		{
			name:    "empty",
			entries: nil,
			lang:    "de",
			want:    []string{},
		},
		{
			name: "positive and consistent",
			entries: []db.MoodEntry{
				moodAt(db.MoodHappy, 0), moodAt(db.MoodHappy, 1), moodAt(db.MoodCalm, 2),
				moodAt(db.MoodVeryHappy, 3), moodAt(db.MoodHappy, 4),
			},
			lang: "de",
			want: []string{
				"Deine Stimmung war in der letzten Woche überwiegend positiv!",
				"Am häufigsten fühltest du dich: Glücklich",
				"Gut gemacht! Du hast regelmäßig deine Stimmung erfasst.",
			},
		},
		{
			name:    "challenging in english",
			entries: []db.MoodEntry{moodAt(db.MoodStressed, 0), moodAt(db.MoodSad, 1)},
			lang:    "en-US",
			want: []string{
				"You had a challenging week. Remember to take some time for yourself.",
				"You most often felt: Sad",
			},
		},
		{
			name:    "old entries ignored",
			entries: []db.MoodEntry{moodAt(db.MoodVerySad, 20)},
			lang:    "de",
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateInsights(tt.entries, now, tt.lang)
			if strings.Join(got, "\n") != strings.Join(tt.want, "\n") {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	entries := []db.MoodEntry{moodAt(db.MoodHappy, 0), moodAt(db.MoodHappy, 1), moodAt(db.MoodSad, 20)}
	summary := Summarize(entries, now, 0, 0)
	if summary.Entries != 2 || summary.Average != 7 {
		t.Fatalf("unexpected trend values: %+v", summary)
	}
	if summary.MostFrequent == nil || *summary.MostFrequent != db.MoodHappy {
		t.Fatalf("expected happy as most frequent, got %v", summary.MostFrequent)
	}
	if summary.Distribution[db.MoodSad] != 1 || summary.Distribution[db.MoodHappy] != 2 {
		t.Fatalf("expected 30-day distribution to include the older entry: %v", summary.Distribution)
	}
}
