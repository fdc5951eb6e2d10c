package pipeline

import (
	"slices"
	"strings"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

// Selections maps a column to the values allowed through the filter. A column
// with no entry or an empty list is not filtered.
type Selections map[string][]string

// Clone returns a deep copy of s.
func (s Selections) Clone() Selections {
	if s == nil {
		return nil
	}
	out := make(Selections, len(s))
	for k, v := range s {
		out[k] = slices.Clone(v)
	}
	return out
}

// Vocabulary returns the sorted, distinct, non-empty values of column.
func Vocabulary(ts model.TaskSet, column string) []string {
	if !ts.HasColumn(column) {
		return []string{}
	}
	seen := make(map[string]bool)
	values := make([]string, 0)
	for _, r := range ts.Records {
		c, ok := r.Get(column)
		if !ok {
			continue
		}
		v := c.String()
		if strings.TrimSpace(v) == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	slices.Sort(values)
	return values
}

// ApplyFilters keeps the records whose value in every selected column is one
// of the allowed values, compared exactly. Input order is preserved and ts is not modified.
func ApplyFilters(ts model.TaskSet, sel Selections) model.TaskSet {
	allowed := make(map[string]map[string]bool)
	for col, values := range sel {
		if len(values) == 0 || !ts.HasColumn(col) {
			continue
		}
		set := make(map[string]bool, len(values))
		for _, v := range values {
			set[v] = true
		}
		allowed[col] = set
	}

	records := make([]model.Record, 0, len(ts.Records))
	for _, r := range ts.Records {
		if matchesSelections(r, allowed) {
			records = append(records, r)
		}
	}
	return ts.WithRecords(records)
}

func matchesSelections(r model.Record, allowed map[string]map[string]bool) bool {
	for col, set := range allowed {
		c, _ := r.Get(col)
		if !set[c.String()] {
			return false
		}
	}
	return true
}

// CountByStatus counts records whose Status equals status, ignoring case and
// surrounding whitespace. It returns 0 when there is no Status column.
func CountByStatus(ts model.TaskSet, status string) int {
	if !ts.HasColumn(ColumnStatus) {
		return 0
	}
	want := strings.TrimSpace(status)
	n := 0
	for _, r := range ts.Records {
		c, ok := r.Get(ColumnStatus)
		if ok && strings.EqualFold(strings.TrimSpace(c.String()), want) {
			n++
		}
	}
	return n
}
