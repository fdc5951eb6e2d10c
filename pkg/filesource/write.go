package filesource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

// WriteRows saves table as a JSON array at path, keys in header order. The
// file is replaced atomically so a watcher never sees a partial write.
func WriteRows(path string, table *model.RawTable) error {
	var buf bytes.Buffer
	buf.WriteString("[\n")
	for i, row := range table.Rows {
		buf.WriteString("  {")
		first := true
		for _, key := range table.Header {
			v, ok := row[key]
			if !ok {
				continue
			}
			if !first {
				buf.WriteString(", ")
			}
			first = false
			k, _ := json.Marshal(key)
			val, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("failed to encode %q: %w", key, err)
			}
			buf.Write(k)
			buf.WriteString(": ")
			buf.Write(val)
		}
		buf.WriteString("}")
		if i < len(table.Rows)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("]\n")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move export into place: %w", err)
	}
	return nil
}
