package model

import (
	"strconv"
	"time"
)

// Kind tags the value held by a Cell.
type Kind uint8

const (
	KindNull Kind = iota
	KindText
	KindNumber
	KindDate
)

// DateLayout is the display format for date cells.
const DateLayout = "2006-01-02"

// Cell is one typed spreadsheet value.
type Cell struct {
	Kind   Kind
	Text   string
	Number float64
	Time   time.Time
}

// Null returns an empty cell, used for missing or unparseable dates.
func Null() Cell { return Cell{Kind: KindNull} }

// Text returns a text cell.
func Text(s string) Cell { return Cell{Kind: KindText, Text: s} }

// Number returns a numeric cell.
func Number(f float64) Cell { return Cell{Kind: KindNumber, Number: f} }

// Date returns a date cell.
func Date(t time.Time) Cell { return Cell{Kind: KindDate, Time: t} }

// IsNull reports whether the cell holds no value.
func (c Cell) IsNull() bool { return c.Kind == KindNull }

// String returns the display form of the cell. Null cells render as "".
func (c Cell) String() string {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case KindDate:
		if c.Time.Hour() == 0 && c.Time.Minute() == 0 && c.Time.Second() == 0 {
			return c.Time.Format(DateLayout)
		}
		return c.Time.Format("2006-01-02 15:04")
	default:
		return ""
	}
}

// Value returns the cell as a plain Go value suitable for JSON encoding.
func (c Cell) Value() any {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindNumber:
		return c.Number
	case KindDate:
		return c.Time.Format(time.RFC3339)
	default:
		return nil
	}
}

// Record is one normalized row keyed by trimmed column name.
type Record map[string]Cell

// Get returns the cell for column and whether the record has it.
func (r Record) Get(column string) (Cell, bool) {
	c, ok := r[column]
	return c, ok
}

// TaskSet is an ordered collection of normalized records together with the
// columns they were read with, in encounter order. A TaskSet is never
// modified after it is built; operations return new sets.
type TaskSet struct {
	Columns []string
	Records []Record
}

// Len returns the number of records.
func (ts TaskSet) Len() int { return len(ts.Records) }

// HasColumn reports whether column was present in the source table.
func (ts TaskSet) HasColumn(column string) bool {
	for _, c := range ts.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// WithRecords returns a set sharing ts's columns but holding records.
func (ts TaskSet) WithRecords(records []Record) TaskSet {
	return TaskSet{Columns: ts.Columns, Records: records}
}

// RawTable is the untyped payload a source returns: the header row in sheet
// order and one map per data row. Values are string, float64, int, bool or nil.
type RawTable struct {
	Header []string         `json:"header"`
	Rows   []map[string]any `json:"rows"`
}
