package util

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Outcome tags the result of parsing a single cell.
type Outcome uint8

const (
	OutcomeEmpty Outcome = iota
	OutcomeText
	OutcomeDate
	OutcomeFailure
)

// Parsed is the typed result of coercing one raw cell.
type Parsed struct {
	Outcome Outcome
	Text    string
	Time    time.Time
	Raw     string // original text, kept for failures
}

// sheetsEpoch is day zero of spreadsheet serial dates.
var sheetsEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// dateLayouts are tried in order. Ambiguous numeric forms are read month-first,
// the way Sheets formats them for en-US locales.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"2006/1/2",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"02-Jan-2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"Mon, Jan 2, 2006",
	"Monday, January 2, 2006",
	"20060102T150405Z",
}

var numberRegex = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// FormatValue renders a raw cell value as text. nil becomes "".
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case bool:
		return strings.ToUpper(strconv.FormatBool(t))
	default:
		return fmt.Sprint(t)
	}
}

// ParseText coerces a raw value to trimmed text. It never fails.
func ParseText(v any) Parsed {
	s := strings.TrimSpace(FormatValue(v))
	if s == "" {
		return Parsed{Outcome: OutcomeEmpty}
	}
	return Parsed{Outcome: OutcomeText, Text: s, Raw: s}
}

// ParseDate coerces a raw value to a UTC timestamp. Numbers are read as
// spreadsheet serial days. Blank input is OutcomeEmpty, anything else that
// does not parse is OutcomeFailure.
func ParseDate(v any) Parsed {
	if f, ok := asFloat(v); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Parsed{Outcome: OutcomeFailure, Raw: FormatValue(v)}
		}
		return Parsed{Outcome: OutcomeDate, Time: SerialToTime(f)}
	}

	s := strings.TrimSpace(FormatValue(v))
	if s == "" {
		return Parsed{Outcome: OutcomeEmpty}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Parsed{Outcome: OutcomeDate, Time: t.UTC(), Raw: s}
		}
	}
	return Parsed{Outcome: OutcomeFailure, Raw: s}
}

// SerialToTime converts a spreadsheet serial day number to a UTC time,
// rounded to the second.
func SerialToTime(serial float64) time.Time {
	d := time.Duration(math.Round(serial*24*60*60)) * time.Second
	return sheetsEpoch.Add(d)
}

// ParseNumber reports whether s is a plain decimal number, the way spreadsheet
// exports turn "42" or "3.5" into numbers. Thousands separators, currency and
// words like "inf" are left as text.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !numberRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}
