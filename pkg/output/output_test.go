package output

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/taskboard/pkg/colors"
	"github.com/harrisonrobin/taskboard/pkg/model"
	"github.com/harrisonrobin/taskboard/pkg/pipeline"
)

type staticSource struct{ table *model.RawTable }

func (s staticSource) FetchRows(context.Context, string, string) (*model.RawTable, error) {
	return s.table, nil
}

func runDashboard(t *testing.T, table *model.RawTable, sel pipeline.Selections) *pipeline.Dashboard {
	t.Helper()
	p := pipeline.New(staticSource{table}, pipeline.Target{SpreadsheetID: "sheet-1", TableName: "Tasks"}, pipeline.DefaultSchema(), nil)
	d, err := p.Run(context.Background(), pipeline.NewSession("", sel))
	require.NoError(t, err)
	return d
}

func sampleTable() *model.RawTable {
	return &model.RawTable{
		Header: []string{"Task", "Owner", "Project", "Status", "Deadline"},
		Rows: []map[string]any{
			{"Task": "Ship v2", "Owner": "Bea", "Project": "Apollo", "Status": "Done", "Deadline": "2024-01-10"},
			{"Task": "Fix login", "Owner": "Al", "Project": "Apollo", "Status": "Blocked", "Deadline": "2024-03-01"},
			{"Task": "Write docs", "Owner": "Bea", "Project": "Gemini", "Status": "In Progress", "Deadline": ""},
		},
	}
}

func TestDashboardTable(t *testing.T) {
	DisableColor()
	palette, err := colors.NewColorCache(filepath.Join(t.TempDir(), "colors.json"))
	require.NoError(t, err)

	var buf bytes.Buffer
	Dashboard(&buf, runDashboard(t, sampleTable(), nil), palette)
	out := buf.String()

	assert.Contains(t, out, "sheet-1 / Tasks")
	assert.Contains(t, out, "Total 3   Blocked 1   In Progress 1   Done 1")
	assert.Contains(t, out, "Owner: all (2)")
	assert.Contains(t, out, "Showing 3 task(s) after filters.")
	assert.Less(t, strings.Index(out, "Fix login"), strings.Index(out, "Write docs"))
	assert.Less(t, strings.Index(out, "Write docs"), strings.Index(out, "Ship v2"))
	assert.Contains(t, out, "2024-03-01")
}

func TestDashboardTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	Dashboard(&buf, runDashboard(t, &model.RawTable{}, nil), nil)
	assert.Contains(t, buf.String(), "No tasks found in the sheet yet.")
	assert.NotContains(t, buf.String(), "Total")
}

func TestDashboardTableNoMatches(t *testing.T) {
	DisableColor()
	var buf bytes.Buffer
	Dashboard(&buf, runDashboard(t, sampleTable(), pipeline.Selections{"Owner": {"Zed"}}), nil)
	assert.Contains(t, buf.String(), "No tasks match the current filters.")
	assert.Contains(t, buf.String(), "Owner: Zed (1 of 2)")
}

func TestDashboardCompact(t *testing.T) {
	var buf bytes.Buffer
	DashboardCompact(&buf, runDashboard(t, sampleTable(), pipeline.Selections{"Project": {"Apollo"}}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "total=2 blocked=1 in_progress=0 done=1", lines[0])
	assert.Equal(t, `Task="Fix login" Owner=Al Project=Apollo Status=Blocked Deadline=2024-03-01`, lines[1])
}

func TestDashboardCompactEmpty(t *testing.T) {
	var buf bytes.Buffer
	DashboardCompact(&buf, runDashboard(t, &model.RawTable{}, nil))
	assert.Equal(t, "empty\n", buf.String())
}

func TestJSONError(t *testing.T) {
	var buf bytes.Buffer
	JSONError(&buf, "TABLE_NOT_FOUND", "worksheet 'X' not found", "check the tab name", nil)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "TABLE_NOT_FOUND", resp.Code)
	assert.Equal(t, "check the tab name", resp.Hint)
}

func TestDetect(t *testing.T) {
	t.Setenv("TASKBOARD_OUTPUT", "")
	assert.Equal(t, FormatTable, Detect(false, false))
	assert.Equal(t, FormatJSON, Detect(true, true))
	assert.Equal(t, FormatCompact, Detect(false, true))

	t.Setenv("TASKBOARD_OUTPUT", "json")
	assert.Equal(t, FormatJSON, Detect(false, false))
}
