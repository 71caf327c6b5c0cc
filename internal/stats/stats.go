// Package stats aggregates counts and rates over a set of todos.
package stats

import (
	"time"

	dom "github.com/birlikkoshan/todo-api/internal/domain"
)

// Stats is computed from one consistent set of todos; every breakdown sees the same records.
type Stats struct {
	Total          int
	Completed      int
	Pending        int
	InProgress     int
	Overdue        int
	HighPriority   int
	CompletionRate float64

	ByPriority        map[dom.Priority]int
	ByStatus          map[dom.Status]int
	ByTag             map[string]int
	OverdueByPriority map[dom.Priority]int
}

// Compute aggregates todos. now is the reference for overdue checks.
// A tag repeated within one todo counts once for that todo.
func Compute(todos []dom.Todo, now time.Time) Stats {
	s := Stats{
		ByPriority:        map[dom.Priority]int{},
		ByStatus:          map[dom.Status]int{},
		ByTag:             map[string]int{},
		OverdueByPriority: map[dom.Priority]int{},
	}
	for _, t := range todos {
		s.Total++
		s.ByStatus[t.Status]++
		s.ByPriority[t.Priority]++

		switch t.Status {
		case dom.StatusCompleted:
			s.Completed++
		case dom.StatusPending:
			s.Pending++
		case dom.StatusInProgress:
			s.InProgress++
		}
		if t.Priority == dom.PriorityHigh {
			s.HighPriority++
		}
		if t.Overdue(now) {
			s.Overdue++
			s.OverdueByPriority[t.Priority]++
		}

		seen := make(map[string]struct{}, len(t.Tags))
		for _, tag := range t.Tags {
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			s.ByTag[tag]++
		}
	}
	s.CompletionRate = CompletionRate(s.Completed, s.Total)
	return s
}

// CompletionRate is completed/total as a percentage, 0 for an empty set.
func CompletionRate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}
