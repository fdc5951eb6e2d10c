package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/harrisonrobin/taskboard/pkg/colors"
	"github.com/harrisonrobin/taskboard/pkg/pipeline"
)

// maxCell truncates long free-text cells such as Notes.
const maxCell = 48

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("244"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))

	counterStyles = map[string]lipgloss.Style{
		"Total":                   lipgloss.NewStyle().Bold(true),
		pipeline.StatusBlocked:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		pipeline.StatusInProgress: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33")),
		pipeline.StatusDone:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("34")),
	}

	// Keyed by lower-cased status.
	statusStyles = map[string]lipgloss.Style{
		"blocked":     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		"in progress": lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		"not started": lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		"done":        lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	}

	noColor bool
)

// DisableColor strips all styling from table output.
func DisableColor() {
	noColor = true
	titleStyle = lipgloss.NewStyle()
	headerStyle = lipgloss.NewStyle()
	dimStyle = lipgloss.NewStyle()
	borderStyle = lipgloss.NewStyle()
	counterStyles = map[string]lipgloss.Style{}
	statusStyles = map[string]lipgloss.Style{}
}

// Dashboard renders counters, the filters in effect and the ordered table.
// palette colors the Project column and may be nil.
func Dashboard(w io.Writer, d *pipeline.Dashboard, palette *colors.ColorCache) {
	fmt.Fprintln(w, titleStyle.Render("Task Tracking Dashboard"))
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%s / %s", d.Target.SpreadsheetID, d.Target.TableName)))
	fmt.Fprintln(w)

	if d.State == pipeline.StateEmpty {
		fmt.Fprintln(w, "No tasks found in the sheet yet.")
		return
	}

	fmt.Fprintln(w, Counters(d.Counters))
	for _, f := range d.Filters {
		fmt.Fprintln(w, dimStyle.Render(FilterSummary(f)))
	}
	fmt.Fprintln(w)

	if d.Grid == nil || len(d.Grid.Rows) == 0 {
		fmt.Fprintln(w, "No tasks match the current filters.")
	} else {
		fmt.Fprintln(w, Grid(d.Grid, palette))
	}
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("Showing %d task(s) after filters.", d.Counters.Total)))
}

// Counters renders the four headline numbers on one line.
func Counters(c pipeline.Counters) string {
	parts := []string{
		counter("Total", c.Total),
		counter(pipeline.StatusBlocked, c.Blocked),
		counter(pipeline.StatusInProgress, c.InProgress),
		counter(pipeline.StatusDone, c.Done),
	}
	return strings.Join(parts, "   ")
}

func counter(label string, n int) string {
	value := fmt.Sprintf("%d", n)
	if s, ok := counterStyles[label]; ok {
		value = s.Render(value)
	}
	return label + " " + value
}

// FilterSummary describes one filter, e.g. "Owner: all (3)" or
// "Status: Blocked, Done (2 of 4)".
func FilterSummary(f pipeline.FilterWidget) string {
	if len(f.Selected) == len(f.Choices) {
		return fmt.Sprintf("%s: all (%d)", f.Column, len(f.Choices))
	}
	return fmt.Sprintf("%s: %s (%d of %d)", f.Column, strings.Join(f.Selected, ", "), len(f.Selected), len(f.Choices))
}

// Grid renders the table with a header row.
func Grid(g *pipeline.Grid, palette *colors.ColorCache) string {
	rows := make([][]string, 0, len(g.Rows))
	for _, r := range g.Rows {
		cells := make([]string, len(r))
		for i, f := range r {
			cells[i] = truncate(f.Value.String(), maxCell)
		}
		rows = append(rows, cells)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(g.Columns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return base.Inherit(headerStyle)
			}
			if noColor || row < 0 || row >= len(rows) || col >= len(g.Columns) {
				return base
			}
			switch g.Columns[col] {
			case pipeline.ColumnStatus:
				if s, ok := statusStyles[strings.ToLower(rows[row][col])]; ok {
					return base.Inherit(s)
				}
			case pipeline.ColumnProject:
				if palette != nil {
					return base.Inherit(palette.Style(rows[row][col]))
				}
			}
			return base
		})
	return t.String()
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}
