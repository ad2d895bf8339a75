package db

import (
	"fmt"
	"strings"
)

type MoodCategory string

const (
	MoodVeryHappy MoodCategory = "very_happy"
	MoodHappy     MoodCategory = "happy"
	MoodNeutral   MoodCategory = "neutral"
	MoodSad       MoodCategory = "sad"
	MoodVerySad   MoodCategory = "very_sad"
	MoodAnxious   MoodCategory = "anxious"
	MoodStressed  MoodCategory = "stressed"
	MoodCalm      MoodCategory = "calm"
	MoodEnergetic MoodCategory = "energetic"
	MoodTired     MoodCategory = "tired"
)

const (
	MinIntensity     = 1
	MaxIntensity     = 10
	DefaultIntensity = 5
)

type moodInfo struct {
	label   string
	labelEN string
	symbol  string
	score   float64
}

// MoodCategories lists every category in declaration order.
var MoodCategories = []MoodCategory{
	MoodVeryHappy,
	MoodHappy,
	MoodNeutral,
	MoodSad,
	MoodVerySad,
	MoodAnxious,
	MoodStressed,
	MoodCalm,
	MoodEnergetic,
	MoodTired,
}

var moodTable = map[MoodCategory]moodInfo{
	MoodVeryHappy: {label: "Sehr glücklich", labelEN: "Very happy", symbol: "😄", score: 9},
	MoodHappy:     {label: "Glücklich", labelEN: "Happy", symbol: "🙂", score: 7},
	MoodNeutral:   {label: "Neutral", labelEN: "Neutral", symbol: "😐", score: 5},
	MoodSad:       {label: "Traurig", labelEN: "Sad", symbol: "😔", score: 3},
	MoodVerySad:   {label: "Sehr traurig", labelEN: "Very sad", symbol: "😢", score: 1},
	MoodAnxious:   {label: "Ängstlich", labelEN: "Anxious", symbol: "😰", score: 3},
	MoodStressed:  {label: "Gestresst", labelEN: "Stressed", symbol: "😫", score: 1},
	MoodCalm:      {label: "Ruhig", labelEN: "Calm", symbol: "😌", score: 7},
	MoodEnergetic: {label: "Energiegeladen", labelEN: "Energetic", symbol: "⚡", score: 9},
	MoodTired:     {label: "Müde", labelEN: "Tired", symbol: "😴", score: 4},
}

func (m MoodCategory) Valid() bool {
	_, ok := moodTable[m]
	return ok
}

// Label is the German display label; LabelFor picks by language code.
func (m MoodCategory) Label() string {
	return moodTable[m].label
}

func (m MoodCategory) LabelFor(lang string) string {
	info, ok := moodTable[m]
	if !ok {
		return string(m)
	}
	if strings.HasPrefix(strings.ToLower(lang), "en") {
		return info.labelEN
	}
	return info.label
}

func (m MoodCategory) Symbol() string {
	return moodTable[m].symbol
}

// Score is the fixed chart value on the 1..9 scale.
func (m MoodCategory) Score() float64 {
	return moodTable[m].score
}

// Index is the declaration position, -1 for unknown categories.
func (m MoodCategory) Index() int {
	for i, c := range MoodCategories {
		if c == m {
			return i
		}
	}
	return -1
}

// ParseMoodCategory accepts a key ("very_happy") or a German/English label.
func ParseMoodCategory(value string) (MoodCategory, error) {
	needle := strings.ToLower(strings.TrimSpace(value))
	needle = strings.ReplaceAll(needle, "-", "_")
	for _, c := range MoodCategories {
		info := moodTable[c]
		if needle == string(c) ||
			needle == strings.ToLower(info.label) ||
			needle == strings.ToLower(info.labelEN) ||
			needle == strings.ReplaceAll(strings.ToLower(info.labelEN), " ", "_") {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown mood %q", value)
}

func ClampIntensity(value int) int {
	if value < MinIntensity {
		return MinIntensity
	}
	if value > MaxIntensity {
		return MaxIntensity
	}
	return value
}
