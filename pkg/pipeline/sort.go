package pipeline

import (
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

// Rank values. Lower sorts first.
const (
	RankBlocked    = 0
	RankInProgress = 1
	RankNotStarted = 2
	RankDone       = 3
	RankOther      = 50
	RankMissing    = 99
)

// Rank maps a status to its sort priority.
func Rank(status string) int {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "blocked":
		return RankBlocked
	case "in progress":
		return RankInProgress
	case "not started":
		return RankNotStarted
	case "done":
		return RankDone
	default:
		return RankOther
	}
}

// RankCell ranks a status cell; absent or null cells rank after everything.
func RankCell(c model.Cell, present bool) int {
	if !present || c.IsNull() {
		return RankMissing
	}
	return Rank(c.String())
}

// OrderView returns ts with its records stably sorted under policy. The date
// key is the first column of datePriority present in ts.
func OrderView(ts model.TaskSet, policy SortPolicy, datePriority []string) model.TaskSet {
	dateCol := firstPresent(ts, datePriority)
	if policy != SortByRank && dateCol == "" {
		return ts.WithRecords(slices.Clone(ts.Records))
	}

	records := slices.Clone(ts.Records)
	sort.SliceStable(records, func(i, j int) bool {
		if policy == SortByRank {
			ri, rj := rankOf(records[i]), rankOf(records[j])
			if ri != rj {
				return ri < rj
			}
		}
		return compareDates(records[i], records[j], dateCol)
	})
	return ts.WithRecords(records)
}

func firstPresent(ts model.TaskSet, columns []string) string {
	for _, c := range columns {
		if ts.HasColumn(c) {
			return c
		}
	}
	return ""
}

func rankOf(r model.Record) int {
	c, ok := r.Get(ColumnStatus)
	return RankCell(c, ok)
}

func dateOf(r model.Record, column string) *time.Time {
	c, ok := r.Get(column)
	if !ok || c.Kind != model.KindDate {
		return nil
	}
	return &c.Time
}

// compareDates orders ascending with nulls last.
func compareDates(a, b model.Record, column string) bool {
	if column == "" {
		return false
	}
	da, db := dateOf(a, column), dateOf(b, column)
	if da == nil {
		return false // nil sorts last
	}
	if db == nil {
		return true
	}
	return da.Before(*db)
}
