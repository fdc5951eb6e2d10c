package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

func sampleSet(t *testing.T) model.TaskSet {
	t.Helper()
	raw := &model.RawTable{
		Header: []string{"Task", "Owner", "Project", "Status"},
		Rows: []map[string]any{
			{"Task": "t1", "Owner": "Bea", "Project": "Apollo", "Status": "Blocked"},
			{"Task": "t2", "Owner": "Al", "Project": "Apollo", "Status": "Done"},
			{"Task": "t3", "Owner": "Bea", "Project": "Gemini", "Status": " in progress "},
			{"Task": "t4", "Owner": "", "Project": "Gemini", "Status": "Done"},
			{"Task": "t5", "Owner": "Al", "Project": "Apollo", "Status": "DONE"},
		},
	}
	return Normalize(raw, DefaultSchema())
}

func tasks(ts model.TaskSet) []string {
	out := make([]string, 0, ts.Len())
	for _, r := range ts.Records {
		out = append(out, r["Task"].Text)
	}
	return out
}

func TestVocabulary(t *testing.T) {
	ts := sampleSet(t)
	assert.Equal(t, []string{"Al", "Bea"}, Vocabulary(ts, "Owner"))
	assert.Equal(t, []string{"Apollo", "Gemini"}, Vocabulary(ts, "Project"))
	assert.Equal(t, []string{"Blocked", "DONE", "Done", "in progress"}, Vocabulary(ts, "Status"))
	assert.Equal(t, []string{}, Vocabulary(ts, "Priority"))
}

func TestApplyFiltersSubsetAndOrder(t *testing.T) {
	ts := sampleSet(t)

	got := ApplyFilters(ts, Selections{"Owner": {"Bea", "Al"}, "Project": {"Apollo"}})

	assert.Equal(t, []string{"t1", "t2", "t5"}, tasks(got))
	assert.Equal(t, ts.Columns, got.Columns)
	assert.Equal(t, 5, ts.Len(), "input must not be modified")
}

func TestApplyFiltersEmptySelectionIsIdentity(t *testing.T) {
	ts := sampleSet(t)
	assert.Equal(t, tasks(ts), tasks(ApplyFilters(ts, nil)))
	assert.Equal(t, tasks(ts), tasks(ApplyFilters(ts, Selections{"Owner": {}, "Status": nil})))
}

func TestApplyFiltersFullVocabularyIsIdentity(t *testing.T) {
	ts := sampleSet(t)
	for _, col := range []string{"Project", "Status"} {
		got := ApplyFilters(ts, Selections{col: Vocabulary(ts, col)})
		assert.Equal(t, tasks(ts), tasks(got), col)
	}
}

func TestApplyFiltersMissingColumnIsNoop(t *testing.T) {
	ts := sampleSet(t)
	got := ApplyFilters(ts, Selections{"Priority": {"High"}})
	assert.Equal(t, tasks(ts), tasks(got))
}

func TestApplyFiltersExcludesUnmatched(t *testing.T) {
	ts := sampleSet(t)
	got := ApplyFilters(ts, Selections{"Owner": {"Nobody"}})
	assert.Equal(t, 0, got.Len())
}

func TestCountByStatus(t *testing.T) {
	ts := sampleSet(t)
	assert.Equal(t, 1, CountByStatus(ts, "Blocked"))
	assert.Equal(t, 3, CountByStatus(ts, "done"))
	assert.Equal(t, 3, CountByStatus(ts, "  DONE "))
	assert.Equal(t, 1, CountByStatus(ts, "In Progress"))
	assert.Equal(t, 0, CountByStatus(ts, "Not Started"))
}

func TestCountByStatusMatchesFilter(t *testing.T) {
	ts := sampleSet(t)
	got := ApplyFilters(ts, Selections{"Status": {"Blocked"}})
	assert.Equal(t, got.Len(), CountByStatus(ts, "Blocked"))
}

// Filters match cell text exactly; counters fold case and whitespace. The two
// agree only for a spelling that every matching cell uses.
func TestCountByStatusFoldsCaseButFiltersDoNot(t *testing.T) {
	ts := sampleSet(t)

	assert.Equal(t, 3, CountByStatus(ts, "done"))
	assert.Equal(t, 0, ApplyFilters(ts, Selections{"Status": {"done"}}).Len())
	assert.Equal(t, []string{"t2", "t4"}, tasks(ApplyFilters(ts, Selections{"Status": {"Done"}})))
	assert.Equal(t, []string{"t5"}, tasks(ApplyFilters(ts, Selections{"Status": {"DONE"}})))
	assert.Equal(t, 3, ApplyFilters(ts, Selections{"Status": {"Done", "DONE"}}).Len())
}

func TestCountByStatusWithoutColumn(t *testing.T) {
	raw := &model.RawTable{Header: []string{"Task"}, Rows: []map[string]any{{"Task": "x"}}}
	assert.Equal(t, 0, CountByStatus(Normalize(raw, DefaultSchema()), "Done"))
}

func TestSelectionsClone(t *testing.T) {
	sel := Selections{"Owner": {"Al"}}
	c := sel.Clone()
	c["Owner"][0] = "Bea"
	assert.Equal(t, "Al", sel["Owner"][0])
	assert.Nil(t, Selections(nil).Clone())
}
