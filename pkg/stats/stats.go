package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/smith3v/mood-tracker/pkg/db"
)

const (
	DefaultTrendDays        = 7
	DefaultDistributionDays = 30
	DefaultMoodScore        = 5.0

	positiveThreshold    = 7.0
	challengingThreshold = 4.0
	consistencyEntries   = 5
)

type HealthAverages struct {
	Steps    float64
	Calories float64
	Sleep    float64
	Water    float64
}

type ChartPoint struct {
	Date  time.Time
	Score float64
}

// MoodSummary bundles the derived values shown on the statistics screen.
type MoodSummary struct {
	Entries      int
	Average      float64
	MostFrequent *db.MoodCategory
	Distribution map[db.MoodCategory]int
	Chart        []ChartPoint
}

// WithinDays keeps mood entries dated at or after now minus days.
func WithinDays(entries []db.MoodEntry, now time.Time, days int) []db.MoodEntry {
	return since(entries, now.AddDate(0, 0, -days), func(e db.MoodEntry) time.Time { return e.Date })
}

func HealthWithinDays(entries []db.HealthDataEntry, now time.Time, days int) []db.HealthDataEntry {
	return since(entries, now.AddDate(0, 0, -days), func(e db.HealthDataEntry) time.Time { return e.Date })
}

func since[T any](entries []T, start time.Time, at func(T) time.Time) []T {
	out := make([]T, 0, len(entries))
	for _, e := range entries {
		if !at(e).Before(start) {
			out = append(out, e)
		}
	}
	return out
}

// AverageMoodScore is the mean mood score, DefaultMoodScore when empty.
func AverageMoodScore(entries []db.MoodEntry) float64 {
	if len(entries) == 0 {
		return DefaultMoodScore
	}
	total := 0.0
	for _, e := range entries {
		total += e.Mood.Score()
	}
	return total / float64(len(entries))
}

// MostFrequentMood returns the mode. Ties go to the category declared first.
func MostFrequentMood(entries []db.MoodEntry) (db.MoodCategory, bool) {
	counts := MoodDistribution(entries)
	var best db.MoodCategory
	bestCount := 0
	for _, mood := range db.MoodCategories {
		if counts[mood] > bestCount {
			best = mood
			bestCount = counts[mood]
		}
	}
	return best, bestCount > 0
}

func MoodDistribution(entries []db.MoodEntry) map[db.MoodCategory]int {
	distribution := make(map[db.MoodCategory]int)
	for _, e := range entries {
		distribution[e.Mood]++
	}
	return distribution
}

// WeeklyHealthAverages averages each metric over the entries that carry it.
// A metric no entry carries averages to 0.
func WeeklyHealthAverages(entries []db.HealthDataEntry) HealthAverages {
	var steps, calories, sleep, water []float64
	for _, e := range entries {
		if e.Steps != nil {
			steps = append(steps, float64(*e.Steps))
		}
		if e.Calories != nil {
			calories = append(calories, *e.Calories)
		}
		if e.SleepHours != nil {
			sleep = append(sleep, *e.SleepHours)
		}
		if e.WaterIntake != nil {
			water = append(water, *e.WaterIntake)
		}
	}
	return HealthAverages{
		Steps:    mean(steps),
		Calories: mean(calories),
		Sleep:    mean(sleep),
		Water:    mean(water),
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// MoodChart returns one point per entry, oldest first.
func MoodChart(entries []db.MoodEntry) []ChartPoint {
	points := make([]ChartPoint, 0, len(entries))
	for _, e := range entries {
		points = append(points, ChartPoint{Date: e.Date, Score: e.Mood.Score()})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points
}

// Summarize computes trend values over trendDays and the distribution over
// distributionDays. Non-positive windows fall back to the defaults.
func Summarize(entries []db.MoodEntry, now time.Time, trendDays, distributionDays int) MoodSummary {
	if trendDays <= 0 {
		trendDays = DefaultTrendDays
	}
	if distributionDays <= 0 {
		distributionDays = DefaultDistributionDays
	}
	trend := WithinDays(entries, now, trendDays)
	summary := MoodSummary{
		Entries:      len(trend),
		Average:      AverageMoodScore(trend),
		Distribution: MoodDistribution(WithinDays(entries, now, distributionDays)),
		Chart:        MoodChart(trend),
	}
	if mood, ok := MostFrequentMood(trend); ok {
		summary.MostFrequent = &mood
	}
	return summary
}

type insightTexts struct {
	positive    string
	challenging string
	mostCommon  string
	consistent  string
}

var insightsByLanguage = map[string]insightTexts{
	"de": {
		positive:    "Deine Stimmung war in der letzten Woche überwiegend positiv!",
		challenging: "Du hattest eine herausfordernde Woche. Denke daran, dir Zeit für dich selbst zu nehmen.",
		mostCommon:  "Am häufigsten fühltest du dich: %s",
		consistent:  "Gut gemacht! Du hast regelmäßig deine Stimmung erfasst.",
	},
	"en": {
		positive:    "Your mood was mostly positive over the last week!",
		challenging: "You had a challenging week. Remember to take some time for yourself.",
		mostCommon:  "You most often felt: %s",
		consistent:  "Well done! You have been logging your mood regularly.",
	},
}

// GenerateInsights evaluates the fixed rules over the last week of entries,
// in rule order: mood level, most common mood, logging consistency.
func GenerateInsights(entries []db.MoodEntry, now time.Time, lang string) []string {
	texts, ok := insightsByLanguage[language(lang)]
	if !ok {
		texts = insightsByLanguage[db.DefaultLanguage]
	}
	week := WithinDays(entries, now, DefaultTrendDays)

	insights := []string{}
	avg := AverageMoodScore(week)
	if avg >= positiveThreshold {
		insights = append(insights, texts.positive)
	} else if avg <= challengingThreshold {
		insights = append(insights, texts.challenging)
	}
	if mood, ok := MostFrequentMood(week); ok {
		insights = append(insights, fmt.Sprintf(texts.mostCommon, mood.LabelFor(lang)))
	}
	if len(week) >= consistencyEntries {
		insights = append(insights, texts.consistent)
	}
	return insights
}

func language(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if len(lang) > 2 {
		return lang[:2]
	}
	return lang
}
