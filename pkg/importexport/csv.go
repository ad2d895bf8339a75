package importexport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/smith3v/mood-tracker/pkg/db"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const maxDelimiterSampleRecords = 20

// Column order used when a health file has no header row.
var defaultHealthColumns = []string{"date", "steps", "calories", "sleep_hours", "water_liters"}

var healthColumnAliases = map[string]string{
	"date":         "date",
	"day":          "date",
	"datum":        "date",
	"steps":        "steps",
	"schritte":     "steps",
	"calories":     "calories",
	"kcal":         "calories",
	"kalorien":     "calories",
	"sleep":        "sleep_hours",
	"sleep_hours":  "sleep_hours",
	"schlaf":       "sleep_hours",
	"water":        "water_liters",
	"water_liters": "water_liters",
	"wasser":       "water_liters",
}

// HealthRow is one parsed day of an exported health file. Empty cells stay nil.
type HealthRow struct {
	Day        time.Time
	Steps      *int
	Calories   *float64
	SleepHours *float64
	Water      *float64
}

// ParseHealthCSV reads rows of date,steps,calories,sleep_hours,water_liters.
// Rows with an unparseable date or number are skipped and counted.
func ParseHealthCSV(data []byte, loc *time.Location) ([]HealthRow, int, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	delimiter := detectCSVDelimiter(data)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	var rows []HealthRow
	skipped := 0
	checkedHeader := false
	columns := defaultHealthColumns

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, skipped, err
		}
		if isEmptyCSVRecord(record) {
			skipped++
			continue
		}
		if !checkedHeader {
			checkedHeader = true
			if header, ok := healthHeader(record); ok {
				columns = header
				continue
			}
		}
		row, err := parseHealthRecord(record, columns, loc)
		if err != nil {
			skipped++
			continue
		}
		rows = append(rows, row)
	}

	return rows, skipped, nil
}

func parseHealthRecord(record, columns []string, loc *time.Location) (HealthRow, error) {
	var row HealthRow
	haveDate := false
	for i, field := range record {
		if i >= len(columns) {
			break
		}
		value := strings.TrimSpace(field)
		if value == "" {
			continue
		}
		switch columns[i] {
		case "date":
			day, err := db.ParseDay(value, loc)
			if err != nil {
				return HealthRow{}, err
			}
			row.Day = day
			haveDate = true
		case "steps":
			steps, err := strconv.Atoi(value)
			if err != nil || steps < 0 {
				return HealthRow{}, fmt.Errorf("invalid steps %q", value)
			}
			row.Steps = &steps
		case "calories":
			v, err := parseMetric(value)
			if err != nil {
				return HealthRow{}, err
			}
			row.Calories = &v
		case "sleep_hours":
			v, err := parseMetric(value)
			if err != nil {
				return HealthRow{}, err
			}
			row.SleepHours = &v
		case "water_liters":
			v, err := parseMetric(value)
			if err != nil {
				return HealthRow{}, err
			}
			row.Water = &v
		}
	}
	if !haveDate {
		return HealthRow{}, errors.New("missing date")
	}
	return row, nil
}

// parseMetric accepts a decimal comma as written by German spreadsheet exports.
func parseMetric(value string) (float64, error) {
	v, err := strconv.ParseFloat(strings.Replace(value, ",", ".", 1), 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid value %q", value)
	}
	return v, nil
}

func healthHeader(record []string) ([]string, bool) {
	columns := make([]string, len(record))
	hasDate := false
	for i, field := range record {
		name, ok := healthColumnAliases[strings.ToLower(strings.TrimSpace(field))]
		if !ok {
			columns[i] = ""
			continue
		}
		columns[i] = name
		if name == "date" {
			hasDate = true
		}
	}
	return columns, hasDate
}

func detectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', '\t', ';'}
	bestDelimiter := candidates[0]
	bestScore := -1

	for _, delimiter := range candidates {
		score, err := scoreDelimiter(data, delimiter, maxDelimiterSampleRecords)
		if err != nil {
			continue
		}
		if score > bestScore {
			bestScore = score
			bestDelimiter = delimiter
		}
	}

	if bestScore <= 0 {
		return ','
	}
	return bestDelimiter
}

func scoreDelimiter(data []byte, delimiter rune, maxRecords int) (int, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	counts := make(map[int]int)
	recordsSeen := 0

	for recordsSeen < maxRecords {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
		if isEmptyCSVRecord(record) {
			continue
		}
		recordsSeen++

		if len(record) < 2 {
			continue
		}
		counts[len(record)]++
	}

	best := 0
	for _, score := range counts {
		if score > best {
			best = score
		}
	}
	return best, nil
}

func isEmptyCSVRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// BuildMoodExportCSV renders entries with a header row. Lists are joined with "|".
func BuildMoodExportCSV(entries []db.MoodEntry, loc *time.Location, lang string) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.Write(utf8BOM); err != nil {
		return nil, err
	}

	writer := csv.NewWriter(&buf)
	writer.UseCRLF = true

	if err := writer.Write([]string{"date", "time", "mood", "label", "intensity", "notes", "triggers", "activities"}); err != nil {
		return nil, err
	}
	for _, entry := range entries {
		local := entry.Date.In(loc)
		notes := ""
		if entry.Notes != nil {
			notes = *entry.Notes
		}
		record := []string{
			entry.Day,
			local.Format("15:04"),
			string(entry.Mood),
			entry.Mood.LabelFor(lang),
			strconv.Itoa(entry.Intensity),
			notes,
			strings.Join(entry.Triggers, "|"),
			strings.Join(entry.Activities, "|"),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ExportFilename(now time.Time) string {
	return fmt.Sprintf("moods-%s.csv", now.Format("20060102"))
}

func SortMoodsForExport(entries []db.MoodEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date.Equal(entries[j].Date) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].Date.Before(entries[j].Date)
	})
}
