package domain

import (
	"fmt"
	"time"
)

// Status is the workflow state of a todo.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every valid status in declaration order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// ParseStatus returns the Status named by s or an error for unknown values.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

func (s Status) Valid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

// Priority is the importance level of a todo.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every valid priority in declaration order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority returns the Priority named by s or an error for unknown values.
func ParsePriority(s string) (Priority, error) {
	for _, p := range Priorities {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

func (p Priority) Valid() bool {
	_, err := ParsePriority(string(p))
	return err == nil
}

// Domain entity: бизнес-объект (истина).
// Не зависит от Gin, Postgres, Redis.
type Todo struct {
	ID          string
	Title       string
	Description *string
	Status      Status
	Priority    Priority
	DueDate     *time.Time
	Tags        []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Overdue reports whether the todo's due date is before now and it is not completed.
func (t Todo) Overdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != StatusCompleted
}

// HasTag reports exact, case-sensitive membership of tag in the tag list.
func (t Todo) HasTag(tag string) bool {
	for _, have := range t.Tags {
		if have == tag {
			return true
		}
	}
	return false
}

// Stamp assigns creation timestamps. CreatedAt and UpdatedAt are equal afterwards.
func (t *Todo) Stamp(now time.Time) {
	now = Precision(now)
	t.CreatedAt = now
	t.UpdatedAt = now
}

// Touch refreshes UpdatedAt. The new value is always strictly after the previous one.
func (t *Todo) Touch(now time.Time) {
	now = Precision(now)
	if !now.After(t.UpdatedAt) {
		now = t.UpdatedAt.Add(time.Microsecond)
	}
	t.UpdatedAt = now
}

// Precision normalizes a timestamp to the resolution every store can round-trip.
func Precision(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// Clone returns a deep copy so callers can't alias store-owned slices and pointers.
func (t Todo) Clone() Todo {
	out := t
	if t.Description != nil {
		d := *t.Description
		out.Description = &d
	}
	if t.DueDate != nil {
		d := *t.DueDate
		out.DueDate = &d
	}
	out.Tags = append(make([]string, 0, len(t.Tags)), t.Tags...)
	return out
}
