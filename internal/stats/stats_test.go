package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	dom "github.com/birlikkoshan/todo-api/internal/domain"
)

func TestComputeEmpty(t *testing.T) {
	s := Compute(nil, time.Now())

	assert.Equal(t, 0, s.Total)
	assert.Equal(t, float64(0), s.CompletionRate)
	assert.Empty(t, s.ByPriority)
	assert.Empty(t, s.ByStatus)
	assert.Empty(t, s.ByTag)
	assert.Empty(t, s.OverdueByPriority)
}

func TestCompute(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	todos := []dom.Todo{
		{Status: dom.StatusPending, Priority: dom.PriorityHigh, DueDate: &yesterday, Tags: []string{"a", "b", "a"}},
		{Status: dom.StatusCompleted, Priority: dom.PriorityHigh, DueDate: &yesterday, Tags: []string{"a"}},
		{Status: dom.StatusInProgress, Priority: dom.PriorityLow, DueDate: &yesterday},
		{Status: dom.StatusPending, Priority: dom.PriorityMedium, DueDate: &tomorrow, Tags: []string{"c"}},
		{Status: dom.StatusPending, Priority: dom.PriorityMedium},
	}

	s := Compute(todos, now)

	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 1, s.Completed)
	assert.Equal(t, 3, s.Pending)
	assert.Equal(t, 1, s.InProgress)
	assert.Equal(t, 2, s.HighPriority)
	assert.Equal(t, 2, s.Overdue)
	assert.Equal(t, float64(1)/float64(5)*100, s.CompletionRate)

	assert.Equal(t, map[dom.Priority]int{dom.PriorityHigh: 2, dom.PriorityMedium: 2, dom.PriorityLow: 1}, s.ByPriority)
	assert.Equal(t, map[dom.Status]int{dom.StatusPending: 3, dom.StatusCompleted: 1, dom.StatusInProgress: 1}, s.ByStatus)
	assert.Equal(t, map[string]int{"a": 2, "b": 1, "c": 1}, s.ByTag)
	assert.Equal(t, map[dom.Priority]int{dom.PriorityHigh: 1, dom.PriorityLow: 1}, s.OverdueByPriority)
}

func TestOverdueExcludesCompleted(t *testing.T) {
	now := time.Now()
	yesterday := now.Add(-24 * time.Hour)
	todo := dom.Todo{Status: dom.StatusPending, Priority: dom.PriorityMedium, DueDate: &yesterday}

	assert.Equal(t, 1, Compute([]dom.Todo{todo}, now).Overdue)

	todo.Status = dom.StatusCompleted
	s := Compute([]dom.Todo{todo}, now)
	assert.Equal(t, 0, s.Overdue)
	assert.Empty(t, s.OverdueByPriority)
}

func TestCompletionRate(t *testing.T) {
	assert.Equal(t, float64(0), CompletionRate(0, 0))
	assert.Equal(t, float64(100), CompletionRate(3, 3))
	assert.Equal(t, float64(2)/float64(3)*100, CompletionRate(2, 3))
}
