package filesource

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/taskboard/pkg/model"
	"github.com/harrisonrobin/taskboard/pkg/pipeline"
)

func TestParseRowsArray(t *testing.T) {
	input := `[
		{"Task": "Ship", "Status": "Done", "Due Date": "2024-03-01"},
		{"Task": "Plan", "Owner": "ana", "Estimate": 3, "Ratio": 0.5, "Flag": true, "Notes": null}
	]`

	table, err := ParseRows(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"Task", "Status", "Due Date", "Owner", "Estimate", "Ratio", "Flag", "Notes"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Ship", table.Rows[0]["Task"])
	assert.Equal(t, int64(3), table.Rows[1]["Estimate"])
	assert.Equal(t, 0.5, table.Rows[1]["Ratio"])
	assert.Equal(t, true, table.Rows[1]["Flag"])
	assert.Nil(t, table.Rows[1]["Notes"])
	_, ok := table.Rows[0]["Owner"]
	assert.False(t, ok)
}

func TestParseRowsNDJSON(t *testing.T) {
	input := "{\"Task\": \"a\", \"Tags\": [\"x\", \"y\"]}\n{\"Task\": \"b\"}\n"

	table, err := ParseRows(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"Task", "Tags"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, `["x","y"]`, table.Rows[0]["Tags"])
}

func TestParseRowsEmpty(t *testing.T) {
	for _, input := range []string{"", "  \n", "[]"} {
		table, err := ParseRows(strings.NewReader(input))
		require.NoError(t, err)
		assert.Empty(t, table.Rows)
	}
}

func TestParseRowsRejectsGarbage(t *testing.T) {
	_, err := ParseRows(strings.NewReader(`[1, 2]`))
	assert.Error(t, err)

	_, err = ParseRows(strings.NewReader(`{"Task": `))
	assert.Error(t, err)
}

func TestFetchRows(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Tasks.json"), []byte(`[{"Task":"a","Status":"Blocked"}]`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Broken.json"), []byte(`[{"Task":`), 0644))
	client := NewClient(dir)

	t.Run("reads the tab file", func(t *testing.T) {
		table, err := client.FetchRows(context.Background(), "ignored", "Tasks")
		require.NoError(t, err)
		assert.Equal(t, []string{"Task", "Status"}, table.Header)
		assert.Len(t, table.Rows, 1)
	})

	t.Run("missing tab", func(t *testing.T) {
		_, err := client.FetchRows(context.Background(), "", "Archive")
		assert.ErrorIs(t, err, pipeline.ErrTableNotFound)
	})

	t.Run("corrupt file", func(t *testing.T) {
		_, err := client.FetchRows(context.Background(), "", "Broken")
		assert.ErrorIs(t, err, pipeline.ErrSourceUnavailable)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := client.FetchRows(ctx, "", "Tasks")
		assert.ErrorIs(t, err, pipeline.ErrSourceUnavailable)
	})
}

func TestFileNameStaysInDirectory(t *testing.T) {
	tests := []struct {
		table string
		want  string
	}{
		{"Tasks", "Tasks.json"},
		{"Q1/Q2", "Q1_Q2.json"},
		{"../../etc/passwd", ".._.._etc_passwd.json"},
		{`..\evil`, ".._evil.json"},
		{"..", "_...json"},
		{"", "_.json"},
	}
	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			name := FileName(tt.table)
			assert.Equal(t, tt.want, name)
			assert.Equal(t, name, filepath.Base(name))
		})
	}

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Q1_Q2.json"), []byte(`[{"Task":"a"}]`), 0644))
	table, err := NewClient(dir).FetchRows(context.Background(), "", "Q1/Q2")
	require.NoError(t, err)
	assert.Len(t, table.Rows, 1)
}

func TestWriteRowsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "Tasks.json")
	table := &model.RawTable{
		Header: []string{"Task", "Status", "Estimate"},
		Rows: []map[string]any{
			{"Task": "a", "Status": "Done", "Estimate": int64(2)},
			{"Task": "b"},
		},
	}

	require.NoError(t, WriteRows(path, table))

	client := NewClient(filepath.Dir(path))
	got, err := client.FetchRows(context.Background(), "", "Tasks")
	require.NoError(t, err)
	assert.Equal(t, table.Header, got.Header)
	assert.Equal(t, table.Rows, got.Rows)
}
