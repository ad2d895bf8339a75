package health

import (
	"math"

	"github.com/smith3v/mood-tracker/pkg/db"
)

// MergeResult lists, per metric, what happened to a fetched value.
type MergeResult struct {
	Applied []Metric
	Locked  []Metric
	Missing []Metric
}

// ApplyMerge copies every fetched value whose manual flag is false into a copy
// of entry. Flags are never changed and the input entry is left untouched.
func ApplyMerge(entry db.HealthDataEntry, snap Snapshot) (db.HealthDataEntry, MergeResult) {
	var res MergeResult
	merged := entry

	consider := func(metric Metric, fetched bool, locked bool, apply func()) {
		switch {
		case !fetched:
			res.Missing = append(res.Missing, metric)
		case locked:
			res.Locked = append(res.Locked, metric)
		default:
			apply()
			res.Applied = append(res.Applied, metric)
		}
	}

	consider(MetricSteps, snap.Steps != nil, entry.StepsManuallyEdited, func() {
		merged.UpdateSteps(*snap.Steps, false)
	})
	consider(MetricCalories, snap.Calories != nil, entry.CaloriesManuallyEdited, func() {
		merged.UpdateCalories(*snap.Calories, false)
	})
	consider(MetricSleep, snap.SleepHours != nil, entry.SleepManuallyEdited, func() {
		merged.UpdateSleep(*snap.SleepHours, false)
	})
	consider(MetricWater, snap.Water != nil, entry.WaterManuallyEdited, func() {
		merged.UpdateWater(*snap.Water, false)
	})

	return merged, res
}

// SetMetric writes a value for one metric; manual marks it as user-edited.
func SetMetric(entry *db.HealthDataEntry, metric Metric, value float64, manual bool) {
	switch metric {
	case MetricSteps:
		entry.UpdateSteps(int(math.Round(value)), manual)
	case MetricCalories:
		entry.UpdateCalories(value, manual)
	case MetricSleep:
		entry.UpdateSleep(value, manual)
	case MetricWater:
		entry.UpdateWater(value, manual)
	}
}
