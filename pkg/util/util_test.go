package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		outcome Outcome
		want    time.Time
	}{
		{"iso date", "2024-03-01", OutcomeDate, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"iso datetime", "2024-03-01 09:30:00", OutcomeDate, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)},
		{"rfc3339 offset", "2024-03-01T10:00:00+02:00", OutcomeDate, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)},
		{"us format", "3/1/2024", OutcomeDate, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"long month", "March 1, 2024", OutcomeDate, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"padded", "  2024-03-01  ", OutcomeDate, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"serial number", float64(45352), OutcomeDate, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"serial int", 45352, OutcomeDate, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"not applicable", "N/A", OutcomeFailure, time.Time{}},
		{"garbage", "next tuesday-ish", OutcomeFailure, time.Time{}},
		{"blank", "   ", OutcomeEmpty, time.Time{}},
		{"nil", nil, OutcomeEmpty, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDate(tt.in)
			assert.Equal(t, tt.outcome, got.Outcome)
			if tt.outcome == OutcomeDate {
				assert.True(t, tt.want.Equal(got.Time), "Expected %v, got %v", tt.want, got.Time)
			}
		})
	}
}

func TestParseDateKeepsRawOnFailure(t *testing.T) {
	got := ParseDate(" N/A ")
	assert.Equal(t, OutcomeFailure, got.Outcome)
	assert.Equal(t, "N/A", got.Raw)
}

func TestParseText(t *testing.T) {
	assert.Equal(t, Parsed{Outcome: OutcomeText, Text: "Alice", Raw: "Alice"}, ParseText("  Alice "))
	assert.Equal(t, OutcomeEmpty, ParseText(nil).Outcome)
	assert.Equal(t, "42", ParseText(float64(42)).Text)
	assert.Equal(t, "1.5", ParseText(1.5).Text)
	assert.Equal(t, "TRUE", ParseText(true).Text)
}

func TestParseNumber(t *testing.T) {
	for _, s := range []string{"42", "-3", "3.5", ".5", "1e3", " 7 "} {
		_, ok := ParseNumber(s)
		assert.True(t, ok, "Expected %q to parse as a number", s)
	}
	for _, s := range []string{"", "1,000", "$5", "inf", "NaN", "12abc", "T-100"} {
		_, ok := ParseNumber(s)
		assert.False(t, ok, "Expected %q to stay text", s)
	}
}

func TestSerialToTime(t *testing.T) {
	got := SerialToTime(45352.5)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), got)
}
