package pipeline

import "slices"

// Well-known column names.
const (
	ColumnTask    = "Task"
	ColumnOwner   = "Owner"
	ColumnProject = "Project"
	ColumnStatus  = "Status"
)

// Status values with dedicated counters.
const (
	StatusBlocked    = "Blocked"
	StatusInProgress = "In Progress"
	StatusNotStarted = "Not Started"
	StatusDone       = "Done"
)

// SortPolicy selects how OrderView orders rows.
type SortPolicy string

const (
	// SortByDate orders by the first present date column, nulls last.
	SortByDate SortPolicy = "date"
	// SortByRank orders by status rank, then by date.
	SortByRank SortPolicy = "rank"
)

// Schema names the typed columns and display preferences for one sheet.
type Schema struct {
	TextColumns    []string   `yaml:"text_columns,omitempty" json:"text_columns"`
	DateColumns    []string   `yaml:"date_columns,omitempty" json:"date_columns"`
	PreferredOrder []string   `yaml:"preferred_order,omitempty" json:"preferred_order"`
	DatePriority   []string   `yaml:"date_priority,omitempty" json:"date_priority"`
	FilterColumns  []string   `yaml:"filter_columns,omitempty" json:"filter_columns"`
	EnsureColumns  []string   `yaml:"ensure_columns,omitempty" json:"ensure_columns"`
	Sort           SortPolicy `yaml:"sort,omitempty" json:"sort"`
}

// DefaultSchema returns the column sets used by the Tasks sheet.
func DefaultSchema() Schema {
	return Schema{
		TextColumns: []string{
			"Task", "Owner", "Project", "Status", "Priority", "Notes",
			"Task ID", "Blockers", "Project Team", "Latest Update",
		},
		DateColumns: []string{"Due Date", "Created At", "Updated At", "StartDate", "Deadline"},
		PreferredOrder: []string{
			"Task ID", "Task", "Owner", "Project", "Project Team", "Status", "Priority",
			"StartDate", "Deadline", "Due Date", "Latest Update", "Blockers", "Notes",
		},
		DatePriority:  []string{"Deadline", "Due Date", "StartDate"},
		FilterColumns: []string{ColumnOwner, ColumnProject, ColumnStatus},
		Sort:          SortByRank,
	}
}

// WithDefaults fills every unset field from DefaultSchema.
func (s Schema) WithDefaults() Schema {
	d := DefaultSchema()
	if s.TextColumns == nil {
		s.TextColumns = d.TextColumns
	}
	if s.DateColumns == nil {
		s.DateColumns = d.DateColumns
	}
	if s.PreferredOrder == nil {
		s.PreferredOrder = d.PreferredOrder
	}
	if s.DatePriority == nil {
		s.DatePriority = d.DatePriority
	}
	if s.FilterColumns == nil {
		s.FilterColumns = d.FilterColumns
	}
	if s.Sort == "" {
		s.Sort = d.Sort
	}
	return s
}

// Valid reports whether the sort policy is one OrderView understands.
func (p SortPolicy) Valid() bool {
	return p == SortByDate || p == SortByRank
}

func (s Schema) isDate(column string) bool { return slices.Contains(s.DateColumns, column) }
func (s Schema) isText(column string) bool { return slices.Contains(s.TextColumns, column) }
