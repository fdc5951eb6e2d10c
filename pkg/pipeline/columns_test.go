package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

func TestSelectColumns(t *testing.T) {
	raw := &model.RawTable{
		Header: []string{"Notes", "Extra", "Status", "Task", "Another"},
		Rows:   []map[string]any{{"Notes": "n", "Extra": "e", "Status": "Done", "Task": "t", "Another": 1.0}},
	}
	ts := Normalize(raw, DefaultSchema())

	grid := SelectColumns(ts, []string{"Task", "Owner", "Status", "Task", "Notes"})

	assert.Equal(t, []string{"Task", "Status", "Notes", "Extra", "Another"}, grid.Columns)
	require.Len(t, grid.Rows, 1)
	row := grid.Rows[0]
	require.Len(t, row, 5)
	assert.Equal(t, "Task", row[0].Column)
	assert.Equal(t, "t", row[0].Value.String())
	assert.Equal(t, "1", row[4].Value.String())
}

func TestSelectColumnsKeepsEveryColumnOnce(t *testing.T) {
	raw := &model.RawTable{
		Header: []string{"B", "A", "Task", "C"},
		Rows:   []map[string]any{{"B": "1", "A": "2", "Task": "3", "C": "4"}},
	}
	ts := Normalize(raw, DefaultSchema())

	grid := SelectColumns(ts, DefaultSchema().PreferredOrder)

	assert.ElementsMatch(t, ts.Columns, grid.Columns)
	assert.Equal(t, "Task", grid.Columns[0])
}

func TestSelectColumnsEmptySet(t *testing.T) {
	grid := SelectColumns(model.TaskSet{}, DefaultSchema().PreferredOrder)
	assert.Empty(t, grid.Columns)
	assert.Empty(t, grid.Rows)
}

func TestFieldJSON(t *testing.T) {
	b, err := json.Marshal([]Field{
		{Column: "Task", Value: model.Text("x")},
		{Column: "Deadline", Value: model.Null()},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"column":"Task","value":"x"},{"column":"Deadline","value":null}]`, string(b))
}
