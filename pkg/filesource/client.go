// Package filesource reads task rows from local JSON exports, one file per
// tab, for offline use and tests.
package filesource

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrisonrobin/taskboard/pkg/model"
	"github.com/harrisonrobin/taskboard/pkg/pipeline"
)

// Ext is the file extension of a tab export.
const Ext = ".json"

// Client serves FetchRows from <dir>/<tableName>.json. The spreadsheet ID is
// ignored.
type Client struct {
	dir string
}

func NewClient(dir string) *Client {
	return &Client{dir: dir}
}

// Dir is the directory the client reads from.
func (c *Client) Dir() string { return c.dir }

// Path returns the file backing tableName.
func (c *Client) Path(tableName string) string {
	return filepath.Join(c.dir, FileName(tableName))
}

var separators = strings.NewReplacer("/", "_", `\`, "_")

// FileName is the base name of the export for tableName. Path separators in
// tab names become underscores so the file always stays inside its directory.
func FileName(tableName string) string {
	name := separators.Replace(tableName)
	if name == "" || name == "." || name == ".." {
		name = "_" + name
	}
	return name + Ext
}

func (c *Client) FetchRows(ctx context.Context, _ string, tableName string) (*model.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", pipeline.ErrSourceUnavailable, err)
	}

	f, err := os.Open(c.Path(tableName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: worksheet '%s' not found in %s", pipeline.ErrTableNotFound, tableName, c.dir)
		}
		return nil, fmt.Errorf("%w: %w", pipeline.ErrSourceUnavailable, err)
	}
	defer f.Close()

	table, err := ParseRows(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", pipeline.ErrSourceUnavailable, c.Path(tableName), err)
	}
	return table, nil
}

// ParseRows decodes either a JSON array of objects or a stream of
// newline-delimited objects. The header is the key order of the first object
// followed by keys first seen in later objects.
func ParseRows(r io.Reader) (*model.RawTable, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return &model.RawTable{Header: []string{}, Rows: []map[string]any{}}, nil
	}
	if err != nil {
		return nil, err
	}

	table := &model.RawTable{Header: []string{}, Rows: []map[string]any{}}
	seen := map[string]bool{}
	add := func(keys []string, row map[string]any) {
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				table.Header = append(table.Header, k)
			}
		}
		table.Rows = append(table.Rows, row)
	}

	decoder := json.NewDecoder(br)
	decoder.UseNumber()

	if first == '[' {
		if _, err := decoder.Token(); err != nil {
			return nil, fmt.Errorf("failed to decode task json: %w", err)
		}
		for decoder.More() {
			keys, row, err := decodeObject(decoder)
			if err != nil {
				return nil, err
			}
			add(keys, row)
		}
		if _, err := decoder.Token(); err != nil {
			return nil, fmt.Errorf("failed to decode task json: %w", err)
		}
		return table, nil
	}

	for {
		keys, row, err := decodeObject(decoder)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		add(keys, row)
	}
	return table, nil
}

// decodeObject reads one object token by token so key order survives.
func decodeObject(decoder *json.Decoder) ([]string, map[string]any, error) {
	tok, err := decoder.Token()
	if err != nil {
		if err == io.EOF {
			return nil, nil, io.EOF
		}
		return nil, nil, fmt.Errorf("failed to decode task json: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("failed to decode task json: expected object, got %v", tok)
	}

	var keys []string
	row := map[string]any{}
	for decoder.More() {
		tok, err := decoder.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to decode task json: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("failed to decode task json: bad key %v", tok)
		}
		var value any
		if err := decoder.Decode(&value); err != nil {
			return nil, nil, fmt.Errorf("failed to decode task json: field %q: %w", key, err)
		}
		if _, dup := row[key]; !dup {
			keys = append(keys, key)
		}
		row[key] = scalar(value)
	}
	if _, err := decoder.Token(); err != nil {
		return nil, nil, fmt.Errorf("failed to decode task json: %w", err)
	}
	return keys, row, nil
}

// scalar maps decoded values onto the RawTable value set. Nested arrays and
// objects are kept as their JSON text.
func scalar(v any) any {
	switch x := v.(type) {
	case nil, string, bool:
		return x
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if !bytes.ContainsRune([]byte(" \t\r\n"), rune(b)) {
			return b, br.UnreadByte()
		}
	}
}
