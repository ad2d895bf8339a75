package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/smith3v/mood-tracker/pkg/db"
)

const timeLayout = "2006-01-02 15:04"

func printUser(w io.Writer, user *db.User) {
	fmt.Fprintf(w, "Name:    %s\n", user.Name)
	fmt.Fprintf(w, "Email:   %s\n", user.Email)
	fmt.Fprintf(w, "Age:     %s\n", intOrDash(user.Age))
	fmt.Fprintf(w, "Weight:  %s\n", floatOrDash(user.Weight, 1, " kg"))
	fmt.Fprintf(w, "Height:  %s\n", floatOrDash(user.Height, 0, " cm"))
	gender := "-"
	if user.Gender != nil {
		gender = *user.Gender
	}
	fmt.Fprintf(w, "Gender:  %s\n", gender)
}

func printMood(w io.Writer, e db.MoodEntry, loc *time.Location, lang string) {
	notes := ""
	if e.Notes != nil {
		notes = *e.Notes
	}
	fmt.Fprintf(w, "%s  %s %-16s %2d/10  %s  [%s]\n",
		e.Date.In(loc).Format(timeLayout),
		e.Mood.Symbol(),
		e.Mood.LabelFor(lang),
		e.Intensity,
		notes,
		e.ID,
	)
	if len(e.Triggers) > 0 {
		fmt.Fprintf(w, "    triggers:   %s\n", strings.Join(e.Triggers, ", "))
	}
	if len(e.Activities) > 0 {
		fmt.Fprintf(w, "    activities: %s\n", strings.Join(e.Activities, ", "))
	}
}

func printHealth(w io.Writer, e *db.HealthDataEntry) {
	fmt.Fprintf(w, "ID:        %s\n", e.ID)
	fmt.Fprintf(w, "Day:       %s\n", e.Day)
	fmt.Fprintf(w, "Steps:     %s%s\n", intOrDash(e.Steps), manualMark(e.StepsManuallyEdited))
	fmt.Fprintf(w, "Calories:  %s%s\n", floatOrDash(e.Calories, 0, " kcal"), manualMark(e.CaloriesManuallyEdited))
	fmt.Fprintf(w, "Sleep:     %s%s\n", floatOrDash(e.SleepHours, 1, " h"), manualMark(e.SleepManuallyEdited))
	fmt.Fprintf(w, "Water:     %s%s\n", floatOrDash(e.WaterIntake, 1, " l"), manualMark(e.WaterManuallyEdited))
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func manualMark(manual bool) string {
	if manual {
		return " (manual)"
	}
	return ""
}

func intOrDash(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func floatOrDash(v *float64, precision int, unit string) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', precision, 64) + unit
}
