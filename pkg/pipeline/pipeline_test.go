package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/taskboard/pkg/metrics"
	"github.com/harrisonrobin/taskboard/pkg/model"
)

type fakeSource struct {
	table *model.RawTable
	err   error
	calls int
	gotID string
	gotTb string
}

func (f *fakeSource) FetchRows(_ context.Context, spreadsheetID, tableName string) (*model.RawTable, error) {
	f.calls++
	f.gotID, f.gotTb = spreadsheetID, tableName
	return f.table, f.err
}

var target = Target{SpreadsheetID: "sheet-1", TableName: "Tasks"}

func taskTable() *model.RawTable {
	return &model.RawTable{
		Header: []string{"Task", "Owner", "Project", "Status", "Deadline", "Notes"},
		Rows: []map[string]any{
			{"Task": "Ship v2", "Owner": "Bea", "Project": "Apollo", "Status": "Done", "Deadline": "2024-01-10", "Notes": ""},
			{"Task": "Fix login", "Owner": "Al", "Project": "Apollo", "Status": "Blocked", "Deadline": "2024-03-01", "Notes": "waiting on IT"},
			{"Task": "Write docs", "Owner": "Bea", "Project": "Gemini", "Status": "In Progress", "Deadline": "N/A", "Notes": ""},
			{"Task": "Plan Q3", "Owner": "Cy", "Project": "Gemini", "Status": "Not Started", "Deadline": "2024-02-01", "Notes": ""},
		},
	}
}

func TestRunDefaultSessionShowsEverything(t *testing.T) {
	src := &fakeSource{table: taskTable()}
	p := New(src, target, DefaultSchema(), nil)

	dash, err := p.Run(context.Background(), NewSession("tester", nil))
	require.NoError(t, err)

	assert.Equal(t, "sheet-1", src.gotID)
	assert.Equal(t, "Tasks", src.gotTb)
	assert.Equal(t, StateReady, dash.State)
	assert.Equal(t, Counters{Total: 4, Blocked: 1, InProgress: 1, Done: 1}, dash.Counters)

	require.Len(t, dash.Filters, 3)
	owner, ok := dash.Filter("Owner")
	require.True(t, ok)
	assert.Equal(t, []string{"Al", "Bea", "Cy"}, owner.Choices)
	assert.Equal(t, owner.Choices, owner.Selected)

	require.NotNil(t, dash.Grid)
	assert.Equal(t, []string{"Task", "Owner", "Project", "Status", "Deadline", "Notes"}, dash.Grid.Columns)
	var order []string
	for _, row := range dash.Grid.Rows {
		order = append(order, row[0].Value.String())
	}
	assert.Equal(t, []string{"Fix login", "Write docs", "Plan Q3", "Ship v2"}, order)
}

func TestRunAppliesSessionSelections(t *testing.T) {
	p := New(&fakeSource{table: taskTable()}, target, DefaultSchema(), nil)

	dash, err := p.Run(context.Background(), NewSession("", Selections{"Owner": {"Bea"}}))
	require.NoError(t, err)

	assert.Equal(t, Counters{Total: 2, InProgress: 1, Done: 1}, dash.Counters)
	owner, _ := dash.Filter("Owner")
	assert.Equal(t, []string{"Al", "Bea", "Cy"}, owner.Choices, "choices come from the unfiltered set")
	assert.Equal(t, []string{"Bea"}, owner.Selected)
	assert.True(t, owner.IsSelected("Bea"))
	assert.False(t, owner.IsSelected("Al"))
	assert.Len(t, dash.Grid.Rows, 2)
}

func TestRunDateSortPolicy(t *testing.T) {
	schema := DefaultSchema()
	schema.Sort = SortByDate
	p := New(&fakeSource{table: taskTable()}, target, schema, nil)

	dash, err := p.Run(context.Background(), NewSession("", nil))
	require.NoError(t, err)

	var order []string
	for _, row := range dash.Grid.Rows {
		order = append(order, row[0].Value.String())
	}
	assert.Equal(t, []string{"Ship v2", "Plan Q3", "Fix login", "Write docs"}, order)
}

func TestRunEmptySource(t *testing.T) {
	before := testutil.ToFloat64(metrics.PipelineRuns.WithLabelValues(metrics.OutcomeEmpty))
	p := New(&fakeSource{table: &model.RawTable{Header: []string{"Task"}}}, target, DefaultSchema(), nil)

	dash, err := p.Run(context.Background(), NewSession("", nil))
	require.NoError(t, err)

	assert.Equal(t, StateEmpty, dash.State)
	assert.Equal(t, Counters{}, dash.Counters)
	assert.Nil(t, dash.Grid)
	assert.Empty(t, dash.Filters)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.PipelineRuns.WithLabelValues(metrics.OutcomeEmpty)))
}

func TestRunNilTableIsEmpty(t *testing.T) {
	p := New(&fakeSource{}, target, DefaultSchema(), nil)
	dash, err := p.Run(context.Background(), NewSession("", nil))
	require.NoError(t, err)
	assert.Equal(t, StateEmpty, dash.State)
}

func TestRunFetchFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"table not found", ErrTableNotFound, ErrTableNotFound},
		{"wrapped unavailable", errors.Join(ErrSourceUnavailable, errors.New("403")), ErrSourceUnavailable},
		{"unclassified", errors.New("connection reset"), ErrSourceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(&fakeSource{table: taskTable(), err: tt.err}, target, DefaultSchema(), nil)
			dash, err := p.Run(context.Background(), NewSession("", nil))
			assert.Nil(t, dash)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRunIsDeterministic(t *testing.T) {
	p := New(&fakeSource{table: taskTable()}, target, DefaultSchema(), nil)
	a, err := p.Run(context.Background(), NewSession("", nil))
	require.NoError(t, err)
	b, err := p.Run(context.Background(), NewSession("", nil))
	require.NoError(t, err)
	assert.Equal(t, a.Grid, b.Grid)
}

func TestNewSessionCopiesSelections(t *testing.T) {
	sel := Selections{"Owner": {"Al"}}
	s := NewSession("u", sel)
	sel["Owner"][0] = "changed"
	assert.Equal(t, "Al", s.Selections["Owner"][0])
	assert.NotEmpty(t, s.ID)
}
