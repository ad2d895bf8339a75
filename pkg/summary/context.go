package summary

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smith3v/mood-tracker/pkg/db"
)

const DefaultDaysBack = 14

type Options struct {
	// DaysBack bounds the window ending at Now; zero means DefaultDaysBack.
	DaysBack int
	Now      time.Time
	Language string
}

type template struct {
	profile     string
	name        string
	age         string
	weight      string
	height      string
	unknown     string
	lastMood    string
	moodFormat  string
	noMoods     string
	trends      string
	mood        string
	steps       string
	calories    string
	sleep       string
	water       string
	rules       string
	ruleMedical string
	ruleGentle  string
}

const notAvailable = "n/a"

var templates = map[string]template{
	"de": {
		profile:     "Nutzerprofil:",
		name:        "Name",
		age:         "Alter",
		weight:      "Gewicht",
		height:      "Größe",
		unknown:     "unbekannt",
		lastMood:    "Letzter Mood-Check",
		moodFormat:  "%s (Intensität %d/10)",
		noMoods:     "Keine Stimmungseinträge.",
		trends:      "Trends der letzten %d Tage:",
		mood:        "Stimmung Ø (1..10)",
		steps:       "Schritte Ø",
		calories:    "Aktive Kalorien Ø",
		sleep:       "Schlaf Ø (h)",
		water:       "Wasser Ø (L)",
		rules:       "Wichtige Regel:",
		ruleMedical: "Gib keine medizinischen Diagnosen. Wenn es der Person sehr schlecht geht, nenne eine Hilfsnummer.",
		ruleGentle:  "Wenn die Stimmung länger schlecht ist: sanfte, konkrete Vorschläge (Spaziergang, Yoga, Freunde, Routine, Schlafhygiene).",
	},
	"en": {
		profile:     "User profile:",
		name:        "Name",
		age:         "Age",
		weight:      "Weight",
		height:      "Height",
		unknown:     "unknown",
		lastMood:    "Last mood check",
		moodFormat:  "%s (intensity %d/10)",
		noMoods:     "No mood entries.",
		trends:      "Trends of the last %d days:",
		mood:        "Mood avg (1..10)",
		steps:       "Steps avg",
		calories:    "Active calories avg",
		sleep:       "Sleep avg (h)",
		water:       "Water avg (L)",
		rules:       "Important rules:",
		ruleMedical: "Do not give medical diagnoses. If the person is doing very badly, point to a helpline.",
		ruleGentle:  "If the mood stays low for a while: gentle, concrete suggestions (walk, yoga, friends, routine, sleep hygiene).",
	},
}

// BuildContext renders the profile and recent trends as plain text for an
// external assistant. Entries outside the window are ignored; inputs are
// only read.
func BuildContext(user db.User, moods []db.MoodEntry, health []db.HealthDataEntry, opts Options) string {
	daysBack := opts.DaysBack
	if daysBack <= 0 {
		daysBack = DefaultDaysBack
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	tpl, ok := templates[language(opts.Language)]
	if !ok {
		tpl = templates[db.DefaultLanguage]
	}
	start := now.AddDate(0, 0, -daysBack)

	var windowMoods []db.MoodEntry
	for _, m := range moods {
		if !m.Date.Before(start) && !m.Date.After(now) {
			windowMoods = append(windowMoods, m)
		}
	}
	var moodScores, sleep, steps, calories, water []float64
	var last *db.MoodEntry
	for i := range windowMoods {
		moodScores = append(moodScores, windowMoods[i].Mood.Score())
		if last == nil || !windowMoods[i].Date.Before(last.Date) {
			last = &windowMoods[i]
		}
	}
	for _, h := range health {
		if h.Date.Before(db.StartOfDay(start, now.Location())) || h.Date.After(now) {
			continue
		}
		if h.SleepHours != nil {
			sleep = append(sleep, *h.SleepHours)
		}
		if h.Steps != nil && *h.Steps > 0 {
			steps = append(steps, float64(*h.Steps))
		}
		if h.Calories != nil {
			calories = append(calories, *h.Calories)
		}
		if h.WaterIntake != nil {
			water = append(water, *h.WaterIntake)
		}
	}

	lastMood := tpl.noMoods
	if last != nil {
		lastMood = fmt.Sprintf(tpl.moodFormat, last.Mood.LabelFor(opts.Language), last.Intensity)
	}

	var b strings.Builder
	b.WriteString(tpl.profile + "\n")
	fmt.Fprintf(&b, "- %s: %s\n", tpl.name, orUnknown(strings.TrimSpace(user.Name), tpl.unknown))
	fmt.Fprintf(&b, "- %s: %s\n", tpl.age, intOr(user.Age, tpl.unknown))
	fmt.Fprintf(&b, "- %s: %s\n", tpl.weight, measureOr(user.Weight, "kg", tpl.unknown))
	fmt.Fprintf(&b, "- %s: %s\n", tpl.height, measureOr(user.Height, "cm", tpl.unknown))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s: %s\n", tpl.lastMood, lastMood)
	b.WriteString("\n")
	fmt.Fprintf(&b, tpl.trends+"\n", daysBack)
	fmt.Fprintf(&b, "- %s: %s\n", tpl.mood, average(moodScores, 1))
	fmt.Fprintf(&b, "- %s: %s\n", tpl.steps, average(steps, 0))
	fmt.Fprintf(&b, "- %s: %s\n", tpl.calories, average(calories, 0))
	fmt.Fprintf(&b, "- %s: %s\n", tpl.sleep, average(sleep, 1))
	fmt.Fprintf(&b, "- %s: %s\n", tpl.water, average(water, 1))
	b.WriteString("\n")
	b.WriteString(tpl.rules + "\n")
	fmt.Fprintf(&b, "- %s\n", tpl.ruleMedical)
	fmt.Fprintf(&b, "- %s\n", tpl.ruleGentle)
	return b.String()
}

func average(values []float64, precision int) string {
	if len(values) == 0 {
		return notAvailable
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return strconv.FormatFloat(total/float64(len(values)), 'f', precision, 64)
}

func orUnknown(value, unknown string) string {
	if value == "" {
		return unknown
	}
	return value
}

func intOr(v *int, unknown string) string {
	if v == nil {
		return unknown
	}
	return strconv.Itoa(*v)
}

func measureOr(v *float64, unit, unknown string) string {
	if v == nil {
		return unknown
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + " " + unit
}

func language(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if len(lang) > 2 {
		return lang[:2]
	}
	return lang
}
