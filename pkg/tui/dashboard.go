// Package tui implements the interactive terminal dashboard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harrisonrobin/taskboard/pkg/output"
	"github.com/harrisonrobin/taskboard/pkg/pipeline"
)

const (
	runTimeout   = 30 * time.Second
	maxColWidth  = 32
	filterHeight = 8 // visible choices per filter
	chromeHeight = 6 // title, counters, blank lines and status bar
)

// Runner produces a dashboard for a session. *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, sess pipeline.Session) (*pipeline.Dashboard, error)
}

// Refresher drops cached snapshots.
type Refresher interface {
	Invalidate(ctx context.Context) error
}

// ReloadMsg asks the dashboard to refetch, e.g. after the export file changed.
type ReloadMsg struct{}

type dashboardMsg struct {
	dash *pipeline.Dashboard
	err  error
}

type pane int

const (
	paneFilters pane = iota
	paneTable
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	activeStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("33")).Padding(0, 1)
	inactiveStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
	cursorStyle   = lipgloss.NewStyle().Reverse(true)
)

// Dashboard is the top-level bubbletea model.
type Dashboard struct {
	runner    Runner
	refresher Refresher
	user      string

	sel     pipeline.Selections
	dash    *pipeline.Dashboard
	err     error
	loading bool

	focus     pane
	filterCol int
	cursor    int
	table     table.Model

	width  int
	height int
}

// New creates the model. refresher may be nil.
func New(runner Runner, refresher Refresher, user string) *Dashboard {
	t := table.New(table.WithFocused(false), table.WithHeight(10))
	return &Dashboard{
		runner:    runner,
		refresher: refresher,
		user:      user,
		sel:       pipeline.Selections{},
		table:     t,
		loading:   true,
	}
}

// Selections returns the filters currently applied.
func (d *Dashboard) Selections() pipeline.Selections { return d.sel.Clone() }

// Init implements tea.Model.
func (d *Dashboard) Init() tea.Cmd {
	return d.load(false)
}

// Update implements tea.Model.
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return d.handleKey(msg)
	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		d.resizeTable()
		return d, nil
	case ReloadMsg:
		d.loading = true
		return d, d.load(true)
	case dashboardMsg:
		d.loading = false
		d.err = msg.err
		if msg.err == nil {
			d.dash = msg.dash
			d.fillTable()
			d.clampCursor()
		} else {
			d.dash = nil
		}
		return d, nil
	}
	return d, nil
}

func (d *Dashboard) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+c"))) {
		return d, tea.Quit
	}

	switch msg.String() {
	case "q", "esc":
		return d, tea.Quit
	case "r":
		d.loading = true
		return d, d.load(true)
	case "tab":
		if d.focus == paneFilters {
			d.focus = paneTable
			d.table.Focus()
		} else {
			d.focus = paneFilters
			d.table.Blur()
		}
		return d, nil
	}

	if d.focus == paneTable {
		var cmd tea.Cmd
		d.table, cmd = d.table.Update(msg)
		return d, cmd
	}
	return d.handleFilterKey(msg)
}

func (d *Dashboard) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	filters := d.filters()
	if len(filters) == 0 {
		return d, nil
	}

	switch msg.String() {
	case "h", "left":
		if d.filterCol > 0 {
			d.filterCol--
			d.cursor = 0
		}
	case "l", "right":
		if d.filterCol < len(filters)-1 {
			d.filterCol++
			d.cursor = 0
		}
	case "k", "up":
		if d.cursor > 0 {
			d.cursor--
		}
	case "j", "down":
		if d.cursor < len(filters[d.filterCol].Choices)-1 {
			d.cursor++
		}
	case " ", "space":
		f := filters[d.filterCol]
		if len(f.Choices) == 0 {
			return d, nil
		}
		d.sel = Toggle(d.sel, f, f.Choices[d.cursor])
		d.loading = true
		return d, d.load(false)
	case "a":
		delete(d.sel, filters[d.filterCol].Column)
		d.loading = true
		return d, d.load(false)
	}
	return d, nil
}

// Toggle flips value in the selection for f's column. Starting from "all
// selected", the first toggle deselects value. Selecting every choice again
// drops the column from sel.
func Toggle(sel pipeline.Selections, f pipeline.FilterWidget, value string) pipeline.Selections {
	out := sel.Clone()
	if out == nil {
		out = pipeline.Selections{}
	}
	current := out[f.Column]
	if len(current) == 0 {
		current = slices.Clone(f.Choices)
	}

	var next []string
	if slices.Contains(current, value) {
		for _, v := range current {
			if v != value {
				next = append(next, v)
			}
		}
	} else {
		next = append(slices.Clone(current), value)
	}

	if len(next) == 0 || containsAll(next, f.Choices) {
		delete(out, f.Column)
		return out
	}
	slices.Sort(next)
	out[f.Column] = next
	return out
}

func containsAll(have, want []string) bool {
	for _, w := range want {
		if !slices.Contains(have, w) {
			return false
		}
	}
	return true
}

func (d *Dashboard) load(invalidate bool) tea.Cmd {
	sess := pipeline.NewSession(d.user, d.sel)
	runner, refresher := d.runner, d.refresher
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		if invalidate && refresher != nil {
			if err := refresher.Invalidate(ctx); err != nil {
				return dashboardMsg{err: fmt.Errorf("refresh: %w", err)}
			}
		}
		dash, err := runner.Run(ctx, sess)
		return dashboardMsg{dash: dash, err: err}
	}
}

func (d *Dashboard) filters() []pipeline.FilterWidget {
	if d.dash == nil {
		return nil
	}
	return d.dash.Filters
}

func (d *Dashboard) clampCursor() {
	filters := d.filters()
	if d.filterCol >= len(filters) {
		d.filterCol = max(0, len(filters)-1)
	}
	if len(filters) == 0 {
		d.cursor = 0
		return
	}
	d.cursor = min(d.cursor, max(0, len(filters[d.filterCol].Choices)-1))
}

func (d *Dashboard) fillTable() {
	if d.dash == nil || d.dash.Grid == nil {
		d.table.SetRows(nil)
		d.table.SetColumns(nil)
		return
	}
	g := d.dash.Grid

	widths := make([]int, len(g.Columns))
	for i, c := range g.Columns {
		widths[i] = lipgloss.Width(c)
	}
	rows := make([]table.Row, 0, len(g.Rows))
	for _, r := range g.Rows {
		row := make(table.Row, len(r))
		for i, f := range r {
			row[i] = strings.ReplaceAll(f.Value.String(), "\n", " ")
			widths[i] = max(widths[i], min(lipgloss.Width(row[i]), maxColWidth))
		}
		rows = append(rows, row)
	}

	cols := make([]table.Column, len(g.Columns))
	for i, c := range g.Columns {
		cols[i] = table.Column{Title: c, Width: widths[i]}
	}
	// Rows must be cleared before narrowing the column set.
	d.table.SetRows(nil)
	d.table.SetColumns(cols)
	d.table.SetRows(rows)
	d.resizeTable()
}

func (d *Dashboard) resizeTable() {
	if d.height == 0 {
		return
	}
	d.table.SetHeight(max(3, d.height-chromeHeight-filterHeight-2))
	if d.width > 0 {
		d.table.SetWidth(d.width)
	}
}

// View implements tea.Model.
func (d *Dashboard) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Task Tracking Dashboard"))
	if d.dash != nil {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %s / %s", d.dash.Target.SpreadsheetID, d.dash.Target.TableName)))
	}
	b.WriteString("\n\n")

	switch {
	case d.err != nil:
		b.WriteString(errorStyle.Render(errorHint(d.err)))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(d.err.Error()))
		b.WriteString("\n")
	case d.dash == nil:
		b.WriteString("Loading...\n")
	case d.dash.State == pipeline.StateEmpty:
		b.WriteString("No tasks found in the sheet yet.\n")
	default:
		b.WriteString(output.Counters(d.dash.Counters))
		b.WriteString("\n\n")
		b.WriteString(d.viewFilters())
		b.WriteString("\n")
		if len(d.table.Rows()) == 0 {
			b.WriteString("No tasks match the current filters.\n")
		} else {
			style := inactiveStyle
			if d.focus == paneTable {
				style = activeStyle
			}
			b.WriteString(style.Render(d.table.View()))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(d.statusBar())
	return b.String()
}

func (d *Dashboard) viewFilters() string {
	filters := d.filters()
	boxes := make([]string, 0, len(filters))
	for i, f := range filters {
		var lines []string
		lines = append(lines, titleStyle.Render(f.Column))

		start := 0
		if i == d.filterCol && d.cursor >= filterHeight {
			start = d.cursor - filterHeight + 1
		}
		end := min(len(f.Choices), start+filterHeight)
		for j := start; j < end; j++ {
			choice := f.Choices[j]
			mark := "[ ]"
			if f.IsSelected(choice) {
				mark = "[x]"
			}
			line := mark + " " + choice
			if i == d.filterCol && j == d.cursor && d.focus == paneFilters {
				line = cursorStyle.Render(line)
			}
			lines = append(lines, line)
		}
		if end < len(f.Choices) {
			lines = append(lines, dimStyle.Render(fmt.Sprintf("... %d more", len(f.Choices)-end)))
		}

		style := inactiveStyle
		if i == d.filterCol && d.focus == paneFilters {
			style = activeStyle
		}
		boxes = append(boxes, style.Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

func (d *Dashboard) statusBar() string {
	help := "tab focus • ←/→ filter • ↑/↓ move • space toggle • a all • r refresh • q quit"
	if d.loading {
		help = "loading... • " + help
	} else if d.dash != nil {
		help = fmt.Sprintf("%d shown • fetched %s • %s", d.dash.Counters.Total, d.dash.FetchedAt.Local().Format("15:04:05"), help)
	}
	return dimStyle.Render(help)
}

func errorHint(err error) string {
	if errors.Is(err, pipeline.ErrTableNotFound) {
		return "Worksheet not found. Check the worksheet name in the config."
	}
	return "Could not load Google Sheet. Check credentials, spreadsheet_id, and sharing permissions."
}
