// Package sheets reads worksheet rows from the Google Sheets API.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/harrisonrobin/taskboard/pkg/model"
	"github.com/harrisonrobin/taskboard/pkg/pipeline"
	"github.com/harrisonrobin/taskboard/pkg/util"
)

// Client is a Google Sheets API client.
type Client struct {
	srv    *sheetsapi.Service
	logger *zap.Logger
}

// NewSheetsClient wraps an existing Sheets service.
func NewSheetsClient(srv *sheetsapi.Service, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{srv: srv, logger: logger}
}

// FetchRows returns every record of the named tab. The first row is the
// header; numeric-looking cells become numbers.
func (c *Client) FetchRows(ctx context.Context, spreadsheetID, tableName string) (*model.RawTable, error) {
	// 1. Resolve the tab by title so a wrong name is distinguishable from an
	// unreachable spreadsheet.
	ss, err := c.srv.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapAPIError("unable to open spreadsheet", err)
	}

	found := false
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == tableName {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: worksheet '%s' not found", pipeline.ErrTableNotFound, tableName)
	}

	// 2. Read the whole tab.
	vr, err := c.srv.Spreadsheets.Values.Get(spreadsheetID, quoteSheetName(tableName)).
		ValueRenderOption("FORMATTED_VALUE").
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapAPIError("unable to read worksheet values", err)
	}

	table := ValuesToTable(vr.Values)
	c.logger.Debug("fetched worksheet",
		zap.String("worksheet", tableName),
		zap.Int("rows", len(table.Rows)))
	return table, nil
}

// ValuesToTable converts a rows-major value grid into header-keyed records.
// Short rows are padded with "", fully blank rows are dropped.
func ValuesToTable(values [][]interface{}) *model.RawTable {
	table := &model.RawTable{Header: []string{}, Rows: []map[string]any{}}
	if len(values) == 0 {
		return table
	}

	for _, h := range values[0] {
		table.Header = append(table.Header, util.FormatValue(h))
	}

	for _, row := range values[1:] {
		if isBlankRow(row) {
			continue
		}
		rec := make(map[string]any, len(table.Header))
		for i, h := range table.Header {
			var v interface{} = ""
			if i < len(row) {
				v = numericise(row[i])
			}
			rec[h] = v
		}
		table.Rows = append(table.Rows, rec)
	}
	return table
}

func numericise(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if f, ok := util.ParseNumber(s); ok {
		return f
	}
	return s
}

func isBlankRow(row []interface{}) bool {
	for _, v := range row {
		if strings.TrimSpace(util.FormatValue(v)) != "" {
			return false
		}
	}
	return true
}

// quoteSheetName returns the A1 range covering a whole tab.
func quoteSheetName(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func wrapAPIError(msg string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s: permission denied (is the sheet shared with the account?): %v",
				pipeline.ErrSourceUnavailable, msg, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s: spreadsheet not found (check spreadsheet_id): %v",
				pipeline.ErrSourceUnavailable, msg, err)
		}
	}
	return fmt.Errorf("%w: %s: %v", pipeline.ErrSourceUnavailable, msg, err)
}
