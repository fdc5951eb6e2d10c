package pipeline

import (
	"slices"
	"strings"

	"github.com/harrisonrobin/taskboard/pkg/model"
	"github.com/harrisonrobin/taskboard/pkg/util"
)

// Normalize turns a raw table into a TaskSet. Column names are trimmed, text
// columns become trimmed strings, and date columns become dates or null.
// A malformed cell never fails the load.
func Normalize(raw *model.RawTable, schema Schema) model.TaskSet {
	ts, _ := normalize(raw, schema)
	return ts
}

// normalize also reports how many date cells were nulled by parse failures.
func normalize(raw *model.RawTable, schema Schema) (model.TaskSet, int) {
	if raw == nil {
		return model.TaskSet{}, 0
	}

	columns := columnOrder(raw)
	for _, c := range schema.EnsureColumns {
		if !slices.Contains(columns, c) {
			columns = append(columns, c)
		}
	}

	failures := 0
	records := make([]model.Record, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		trimmed := trimKeys(row, raw.Header)

		rec := make(model.Record, len(columns))
		for _, col := range columns {
			v := trimmed[col]
			switch {
			case schema.isDate(col):
				cell, failed := dateCell(v)
				if failed {
					failures++
				}
				rec[col] = cell
			case schema.isText(col):
				rec[col] = model.Text(util.ParseText(v).Text)
			case v == nil && slices.Contains(schema.EnsureColumns, col):
				rec[col] = model.Text("")
			default:
				rec[col] = rawCell(v)
			}
		}
		records = append(records, rec)
	}

	return model.TaskSet{Columns: columns, Records: records}, failures
}

// columnOrder returns trimmed, unique column names: header order first,
// then keys only seen in rows, in sorted order per row.
func columnOrder(raw *model.RawTable) []string {
	var columns []string
	seen := make(map[string]bool)
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		columns = append(columns, name)
	}

	for _, h := range raw.Header {
		add(h)
	}
	for _, row := range raw.Rows {
		extra := make([]string, 0)
		for k := range row {
			if !seen[strings.TrimSpace(k)] {
				extra = append(extra, k)
			}
		}
		slices.Sort(extra)
		for _, k := range extra {
			add(k)
		}
	}
	return columns
}

// trimKeys re-keys row by trimmed column name. When two keys trim to the
// same name the one later in the header wins.
func trimKeys(row map[string]any, header []string) map[string]any {
	out := make(map[string]any, len(row))
	for _, h := range header {
		v, ok := row[h]
		name := strings.TrimSpace(h)
		if ok && name != "" {
			out[name] = v
		}
	}
	for k, v := range row {
		name := strings.TrimSpace(k)
		if name == "" {
			continue
		}
		if _, ok := out[name]; !ok {
			out[name] = v
		}
	}
	return out
}

func dateCell(v any) (model.Cell, bool) {
	p := util.ParseDate(v)
	switch p.Outcome {
	case util.OutcomeDate:
		return model.Date(p.Time), false
	case util.OutcomeFailure:
		return model.Null(), true
	default:
		return model.Null(), false
	}
}

// rawCell keeps an undeclared column's value as close to the source as
// possible: numbers stay numbers and text is left untouched.
func rawCell(v any) model.Cell {
	switch t := v.(type) {
	case nil:
		return model.Null()
	case string:
		return model.Text(t)
	case float64:
		return model.Number(t)
	case float32:
		return model.Number(float64(t))
	case int:
		return model.Number(float64(t))
	case int64:
		return model.Number(float64(t))
	default:
		return model.Text(util.FormatValue(t))
	}
}
