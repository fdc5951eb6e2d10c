// Package pipeline turns raw spreadsheet rows into a filtered, ranked table
// ready for display: normalize, derive filter choices, filter, count, order
// and lay out columns.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harrisonrobin/taskboard/pkg/metrics"
	"github.com/harrisonrobin/taskboard/pkg/model"
)

// Source fetches the raw rows of one tab of one spreadsheet. Implementations
// return errors wrapping ErrSourceUnavailable or ErrTableNotFound.
type Source interface {
	FetchRows(ctx context.Context, spreadsheetID, tableName string) (*model.RawTable, error)
}

// Target identifies the tab a pipeline reads.
type Target struct {
	SpreadsheetID string `json:"spreadsheet_id"`
	TableName     string `json:"table_name"`
}

// Session is the per-request context of one pipeline run.
type Session struct {
	ID          string     `json:"id"`
	User        string     `json:"user,omitempty"`
	Selections  Selections `json:"selections,omitempty"`
	RequestedAt time.Time  `json:"requested_at"`
}

// NewSession returns a session with a fresh ID. sel is copied.
func NewSession(user string, sel Selections) Session {
	return Session{
		ID:          uuid.NewString(),
		User:        user,
		Selections:  sel.Clone(),
		RequestedAt: time.Now().UTC(),
	}
}

// State is the terminal state of a successful run.
type State string

const (
	StateReady State = "ready"
	StateEmpty State = "empty"
)

// Counters are the headline numbers, computed over the filtered rows.
type Counters struct {
	Total      int `json:"total"`
	Blocked    int `json:"blocked"`
	InProgress int `json:"in_progress"`
	Done       int `json:"done"`
}

// FilterWidget is one multi-select filter: every choice and the ones in effect.
type FilterWidget struct {
	Column   string   `json:"column"`
	Choices  []string `json:"choices"`
	Selected []string `json:"selected"`
}

// IsSelected reports whether value is currently selected.
func (f FilterWidget) IsSelected(value string) bool {
	for _, s := range f.Selected {
		if s == value {
			return true
		}
	}
	return false
}

// Dashboard is the view of one run.
type Dashboard struct {
	State     State          `json:"state"`
	Target    Target         `json:"target"`
	Session   Session        `json:"session"`
	Counters  Counters       `json:"counters"`
	Filters   []FilterWidget `json:"filters"`
	Grid      *Grid          `json:"grid,omitempty"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// Filter returns the widget for column, if any.
func (d *Dashboard) Filter(column string) (FilterWidget, bool) {
	for _, f := range d.Filters {
		if f.Column == column {
			return f, true
		}
	}
	return FilterWidget{}, false
}

// Pipeline runs the full fetch-to-grid sequence against one target.
type Pipeline struct {
	source Source
	target Target
	schema Schema
	logger *zap.Logger
	now    func() time.Time
}

// New creates a Pipeline. A nil logger disables logging.
func New(source Source, target Target, schema Schema, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		source: source,
		target: target,
		schema: schema.WithDefaults(),
		logger: logger,
		now:    time.Now,
	}
}

// Target returns the tab this pipeline reads.
func (p *Pipeline) Target() Target { return p.target }

// Schema returns the effective schema.
func (p *Pipeline) Schema() Schema { return p.schema }

// Run fetches, normalizes, filters, counts, orders and lays out the rows for
// sess. A fetch failure returns a nil Dashboard and an error wrapping
// ErrSourceUnavailable or ErrTableNotFound; nothing partial is produced.
func (p *Pipeline) Run(ctx context.Context, sess Session) (*Dashboard, error) {
	log := p.logger.With(zap.String("session", sess.ID), zap.String("table", p.target.TableName))

	start := p.now()
	raw, err := p.source.FetchRows(ctx, p.target.SpreadsheetID, p.target.TableName)
	metrics.FetchDuration.Observe(p.now().Sub(start).Seconds())
	if err != nil {
		err = classify(err)
		if errors.Is(err, ErrTableNotFound) {
			metrics.PipelineRuns.WithLabelValues(metrics.OutcomeTableNotFound).Inc()
		} else {
			metrics.PipelineRuns.WithLabelValues(metrics.OutcomeSourceUnavailable).Inc()
		}
		log.Warn("fetch failed", zap.Error(err))
		return nil, err
	}

	dash := &Dashboard{
		State:     StateEmpty,
		Target:    p.target,
		Session:   sess,
		Filters:   []FilterWidget{},
		FetchedAt: p.now().UTC(),
	}

	ts, failures := normalize(raw, p.schema)
	if failures > 0 {
		metrics.CellParseFailures.Add(float64(failures))
		log.Debug("nulled unparseable date cells", zap.Int("cells", failures))
	}
	if ts.Len() == 0 {
		metrics.PipelineRuns.WithLabelValues(metrics.OutcomeEmpty).Inc()
		log.Info("source returned no rows")
		return dash, nil
	}

	for _, col := range p.schema.FilterColumns {
		choices := Vocabulary(ts, col)
		selected := choices
		if s := sess.Selections[col]; len(s) > 0 {
			selected = s
		}
		dash.Filters = append(dash.Filters, FilterWidget{Column: col, Choices: choices, Selected: selected})
	}

	filtered := ApplyFilters(ts, sess.Selections)
	dash.Counters = Counters{
		Total:      filtered.Len(),
		Blocked:    CountByStatus(filtered, StatusBlocked),
		InProgress: CountByStatus(filtered, StatusInProgress),
		Done:       CountByStatus(filtered, StatusDone),
	}

	ordered := OrderView(filtered, p.schema.Sort, p.schema.DatePriority)
	grid := SelectColumns(ordered, p.schema.PreferredOrder)
	dash.Grid = &grid
	dash.State = StateReady

	metrics.PipelineRuns.WithLabelValues(metrics.OutcomeReady).Inc()
	log.Debug("pipeline run complete",
		zap.Int("rows", ts.Len()),
		zap.Int("shown", filtered.Len()))
	return dash, nil
}

// classify makes sure every fetch error carries one of the two sentinels.
func classify(err error) error {
	if errors.Is(err, ErrTableNotFound) || errors.Is(err, ErrSourceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
}
