// Package output renders a dashboard as a table, compact lines or JSON.
package output

import "os"

// Format represents an output format.
type Format int

const (
	FormatTable Format = iota
	FormatJSON
	FormatCompact
)

// Detect picks a format from flags, then TASKBOARD_OUTPUT, then table.
func Detect(jsonFlag, compactFlag bool) Format {
	if jsonFlag {
		return FormatJSON
	}
	if compactFlag {
		return FormatCompact
	}
	switch os.Getenv("TASKBOARD_OUTPUT") {
	case "json":
		return FormatJSON
	case "compact", "oneline":
		return FormatCompact
	}
	return FormatTable
}
