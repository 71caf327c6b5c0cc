package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	TitleMinLen = 1
	TitleMaxLen = 200
)

// Optional marks whether a patch field was supplied at all.
type Optional[T any] struct {
	Set   bool
	Value T
}

// Some returns a supplied Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// TodoInput is the caller-controlled part of a new todo.
// Empty Status/Priority fall back to pending/medium.
type TodoInput struct {
	Title       string
	Description *string
	Status      Status
	Priority    Priority
	DueDate     *time.Time
	Tags        []string
}

// Validate checks field constraints. prefix is prepended to field names (e.g. "todos[2].").
func (in TodoInput) Validate(prefix string) error {
	var v ValidationError
	v.check(prefix+"title", validTitle(in.Title))
	if in.Status != "" && !in.Status.Valid() {
		v.Add(prefix+"status", fmt.Sprintf("must be one of %s", joinStatuses()))
	}
	if in.Priority != "" && !in.Priority.Valid() {
		v.Add(prefix+"priority", fmt.Sprintf("must be one of %s", joinPriorities()))
	}
	return v.Err()
}

// Todo builds the entity with defaults applied. Id and timestamps are left for the store.
func (in TodoInput) Todo() Todo {
	t := Todo{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		Tags:        append([]string{}, in.Tags...),
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.DueDate != nil {
		d := t.DueDate.UTC()
		t.DueDate = &d
	}
	return t
}

// TodoPatch is a partial update; only Set fields change.
type TodoPatch struct {
	Title       Optional[string]
	Description Optional[*string]
	Status      Optional[Status]
	Priority    Optional[Priority]
	DueDate     Optional[*time.Time]
	Tags        Optional[[]string]
}

// Empty reports whether no field is supplied.
func (p TodoPatch) Empty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Status.Set &&
		!p.Priority.Set && !p.DueDate.Set && !p.Tags.Set
}

func (p TodoPatch) Validate(prefix string) error {
	var v ValidationError
	if p.Title.Set {
		v.check(prefix+"title", validTitle(p.Title.Value))
	}
	if p.Status.Set && !p.Status.Value.Valid() {
		v.Add(prefix+"status", fmt.Sprintf("must be one of %s", joinStatuses()))
	}
	if p.Priority.Set && !p.Priority.Value.Valid() {
		v.Add(prefix+"priority", fmt.Sprintf("must be one of %s", joinPriorities()))
	}
	return v.Err()
}

// Apply copies supplied fields onto t. Timestamps are not touched.
func (p TodoPatch) Apply(t *Todo) {
	if p.Title.Set {
		t.Title = p.Title.Value
	}
	if p.Description.Set {
		t.Description = p.Description.Value
	}
	if p.Status.Set {
		t.Status = p.Status.Value
	}
	if p.Priority.Set {
		t.Priority = p.Priority.Value
	}
	if p.DueDate.Set {
		if p.DueDate.Value == nil {
			t.DueDate = nil
		} else {
			d := p.DueDate.Value.UTC()
			t.DueDate = &d
		}
	}
	if p.Tags.Set {
		t.Tags = append([]string{}, p.Tags.Value...)
	}
}

func validTitle(title string) string {
	n := utf8.RuneCountInString(title)
	switch {
	case n < TitleMinLen:
		return "must not be empty"
	case n > TitleMaxLen:
		return fmt.Sprintf("must be at most %d characters", TitleMaxLen)
	}
	return ""
}

func joinStatuses() string {
	names := make([]string, len(Statuses))
	for i, s := range Statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

func joinPriorities() string {
	names := make([]string, len(Priorities))
	for i, p := range Priorities {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
