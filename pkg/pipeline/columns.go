package pipeline

import (
	"encoding/json"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

// Field is one (column, value) pair of a displayed row.
type Field struct {
	Column string
	Value  model.Cell
}

// MarshalJSON encodes the cell as its plain value.
func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Column string `json:"column"`
		Value  any    `json:"value"`
	}{f.Column, f.Value.Value()})
}

// Grid is the display-ready table: ordered columns and ordered rows.
type Grid struct {
	Columns []string  `json:"columns"`
	Rows    [][]Field `json:"rows"`
}

// SelectColumns lays out ts with the preferred columns that exist first, in
// preferred order, followed by every other column in encounter order.
func SelectColumns(ts model.TaskSet, preferred []string) Grid {
	columns := make([]string, 0, len(ts.Columns))
	used := make(map[string]bool, len(ts.Columns))
	for _, c := range preferred {
		if ts.HasColumn(c) && !used[c] {
			used[c] = true
			columns = append(columns, c)
		}
	}
	for _, c := range ts.Columns {
		if !used[c] {
			used[c] = true
			columns = append(columns, c)
		}
	}

	rows := make([][]Field, 0, len(ts.Records))
	for _, r := range ts.Records {
		row := make([]Field, len(columns))
		for i, c := range columns {
			v, ok := r.Get(c)
			if !ok {
				v = model.Null()
			}
			row[i] = Field{Column: c, Value: v}
		}
		rows = append(rows, row)
	}
	return Grid{Columns: columns, Rows: rows}
}
