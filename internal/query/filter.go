package query

import (
	"strings"
	"time"

	dom "github.com/birlikkoshan/todo-api/internal/domain"
)

// Predicate reports whether a todo belongs to a result set.
type Predicate func(t dom.Todo) bool

// All matches every todo.
func All(dom.Todo) bool { return true }

// And matches when every predicate matches. No predicates matches everything.
func And(preds ...Predicate) Predicate {
	switch len(preds) {
	case 0:
		return All
	case 1:
		return preds[0]
	}
	return func(t dom.Todo) bool {
		for _, p := range preds {
			if !p(t) {
				return false
			}
		}
		return true
	}
}

// Or matches when any predicate matches.
func Or(preds ...Predicate) Predicate {
	return func(t dom.Todo) bool {
		for _, p := range preds {
			if p(t) {
				return true
			}
		}
		return false
	}
}

func StatusIs(s dom.Status) Predicate {
	return func(t dom.Todo) bool { return t.Status == s }
}

func PriorityIs(p dom.Priority) Predicate {
	return func(t dom.Todo) bool { return t.Priority == p }
}

// TitleContains is a case-insensitive substring match on the title.
func TitleContains(q string) Predicate {
	needle := strings.ToLower(q)
	return func(t dom.Todo) bool {
		return strings.Contains(strings.ToLower(t.Title), needle)
	}
}

// DescriptionContains is a case-insensitive substring match; a missing description never matches.
func DescriptionContains(q string) Predicate {
	needle := strings.ToLower(q)
	return func(t dom.Todo) bool {
		return t.Description != nil && strings.Contains(strings.ToLower(*t.Description), needle)
	}
}

// TextContains matches q against title OR description.
func TextContains(q string) Predicate {
	return Or(TitleContains(q), DescriptionContains(q))
}

// HasTag requires exact membership of tag in the todo's tag list.
func HasTag(tag string) Predicate {
	return func(t dom.Todo) bool { return t.HasTag(tag) }
}

// DueOnOrBefore: due_date <= bound. Todos without a due date never match.
func DueOnOrBefore(bound time.Time) Predicate {
	return func(t dom.Todo) bool { return t.DueDate != nil && !t.DueDate.After(bound) }
}

// DueOnOrAfter: due_date >= bound. Todos without a due date never match.
func DueOnOrAfter(bound time.Time) Predicate {
	return func(t dom.Todo) bool { return t.DueDate != nil && !t.DueDate.Before(bound) }
}

// CreatedWithin bounds created_at inclusively; nil ends are open.
func CreatedWithin(from, to *time.Time) Predicate {
	var preds []Predicate
	if from != nil {
		f := *from
		preds = append(preds, func(t dom.Todo) bool { return !t.CreatedAt.Before(f) })
	}
	if to != nil {
		e := *to
		preds = append(preds, func(t dom.Todo) bool { return !t.CreatedAt.After(e) })
	}
	return And(preds...)
}

// Criteria is the set of optional list/search filters. Zero values mean "not applied".
// Tags must all be present on a todo (AND across tags).
type Criteria struct {
	Status    *dom.Status
	Priority  *dom.Priority
	Search    string
	Tags      []string
	DueBefore *time.Time
	DueAfter  *time.Time
}

// Predicate ANDs together every supplied criterion.
func (c Criteria) Predicate() Predicate {
	var preds []Predicate
	if c.Status != nil {
		preds = append(preds, StatusIs(*c.Status))
	}
	if c.Priority != nil {
		preds = append(preds, PriorityIs(*c.Priority))
	}
	if c.Search != "" {
		preds = append(preds, TextContains(c.Search))
	}
	for _, tag := range c.Tags {
		preds = append(preds, HasTag(tag))
	}
	if c.DueBefore != nil {
		preds = append(preds, DueOnOrBefore(*c.DueBefore))
	}
	if c.DueAfter != nil {
		preds = append(preds, DueOnOrAfter(*c.DueAfter))
	}
	return And(preds...)
}
