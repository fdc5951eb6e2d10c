package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/harrisonrobin/taskboard/pkg/pipeline"
)

// DashboardCompact renders one line of counters followed by one line per
// task: the non-empty fields as column=value pairs.
func DashboardCompact(w io.Writer, d *pipeline.Dashboard) {
	if d.State == pipeline.StateEmpty {
		fmt.Fprintln(w, "empty")
		return
	}

	c := d.Counters
	fmt.Fprintf(w, "total=%d blocked=%d in_progress=%d done=%d\n", c.Total, c.Blocked, c.InProgress, c.Done)
	if d.Grid == nil {
		return
	}
	for _, row := range d.Grid.Rows {
		parts := make([]string, 0, len(row))
		for _, f := range row {
			v := f.Value.String()
			if v == "" {
				continue
			}
			parts = append(parts, f.Column+"="+quote(v))
		}
		fmt.Fprintln(w, strings.Join(parts, " "))
	}
}

func quote(s string) string {
	if strings.ContainsAny(s, " \t\n\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
