package dto

import (
	"fmt"
	"time"

	dom "github.com/birlikkoshan/todo-api/internal/domain"
	"github.com/birlikkoshan/todo-api/internal/query"
)

type CreateTodoRequest struct {
	Title       string    `json:"title" binding:"required,min=1,max=200"`
	Description *string   `json:"description"`
	Status      *string   `json:"status" binding:"omitempty,oneof=pending in_progress completed"`
	Priority    *string   `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     Timestamp `json:"due_date" binding:"omitempty,timestamp" swaggertype:"string" format:"date-time"` // optional: "2026-02-19" or RFC3339
	Tags        []string  `json:"tags"`
}

// Input converts the request; missing or null status/priority fall back to defaults.
func (r CreateTodoRequest) Input() dom.TodoInput {
	in := dom.TodoInput{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate.Ptr(),
		Tags:        r.Tags,
	}
	if r.Status != nil {
		in.Status = dom.Status(*r.Status)
	}
	if r.Priority != nil {
		in.Priority = dom.Priority(*r.Priority)
	}
	return in
}

// UpdateTodoRequest: absent field = unchanged, null clears description/due_date
// and empties tags. null is rejected for title, status and priority.
type UpdateTodoRequest struct {
	Title       Nullable[string]    `json:"title" swaggertype:"string"`
	Description Nullable[string]    `json:"description" swaggertype:"string"`
	Status      Nullable[string]    `json:"status" swaggertype:"string" enums:"pending,in_progress,completed"`
	Priority    Nullable[string]    `json:"priority" swaggertype:"string" enums:"low,medium,high"`
	DueDate     Nullable[Timestamp] `json:"due_date" binding:"omitempty,timestamp" swaggertype:"string" format:"date-time"`
	Tags        Nullable[[]string]  `json:"tags" swaggertype:"array,string"`
}

// Patch converts the request. prefix is prepended to field names in errors.
func (r UpdateTodoRequest) Patch(prefix string) (dom.TodoPatch, error) {
	var (
		p dom.TodoPatch
		v dom.ValidationError
	)
	if r.Title.Set {
		if r.Title.Null {
			v.Add(prefix+"title", "must not be null")
		}
		p.Title = dom.Some(r.Title.Value)
	}
	if r.Description.Set {
		if r.Description.Null {
			p.Description = dom.Some[*string](nil)
		} else {
			d := r.Description.Value
			p.Description = dom.Some(&d)
		}
	}
	if r.Status.Set {
		if r.Status.Null {
			v.Add(prefix+"status", "must not be null")
		}
		p.Status = dom.Some(dom.Status(r.Status.Value))
	}
	if r.Priority.Set {
		if r.Priority.Null {
			v.Add(prefix+"priority", "must not be null")
		}
		p.Priority = dom.Some(dom.Priority(r.Priority.Value))
	}
	if r.DueDate.Set {
		p.DueDate = dom.Some(r.DueDate.Value.Ptr())
	}
	if r.Tags.Set {
		tags := r.Tags.Value
		if tags == nil {
			tags = []string{}
		}
		p.Tags = dom.Some(tags)
	}
	if err := v.Err(); err != nil {
		return dom.TodoPatch{}, err
	}
	return p, nil
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending in_progress completed"`
}

type SearchRequest struct {
	Query     string    `json:"query" binding:"required"`
	Status    *string   `json:"status" binding:"omitempty,oneof=pending in_progress completed"`
	Priority  *string   `json:"priority" binding:"omitempty,oneof=low medium high"`
	Tags      []string  `json:"tags"`
	DueBefore Timestamp `json:"due_before" binding:"omitempty,timestamp" swaggertype:"string" format:"date-time"`
	DueAfter  Timestamp `json:"due_after" binding:"omitempty,timestamp" swaggertype:"string" format:"date-time"`
}

// Criteria returns the filters other than the text query; every tag must be present.
func (r SearchRequest) Criteria() query.Criteria {
	c := query.Criteria{
		Tags:      r.Tags,
		DueBefore: r.DueBefore.Ptr(),
		DueAfter:  r.DueAfter.Ptr(),
	}
	if r.Status != nil {
		s := dom.Status(*r.Status)
		c.Status = &s
	}
	if r.Priority != nil {
		p := dom.Priority(*r.Priority)
		c.Priority = &p
	}
	return c
}

type BulkCreateRequest struct {
	Todos []CreateTodoRequest `json:"todos" binding:"required,min=1,max=100,dive"`
}

type BulkUpdateRequest struct {
	Updates map[string]UpdateTodoRequest `json:"updates" binding:"required,dive"`
}

// Patches converts every entry, collecting all field errors before failing.
func (r BulkUpdateRequest) Patches() (map[string]dom.TodoPatch, error) {
	var v dom.ValidationError
	out := make(map[string]dom.TodoPatch, len(r.Updates))
	for id, u := range r.Updates {
		p, err := u.Patch(fmt.Sprintf("updates[%s].", id))
		if err != nil {
			v.Merge(err)
			continue
		}
		out[id] = p
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// PageQuery is the ?page&size pair shared by list and search.
type PageQuery struct {
	Page int `form:"page,default=1"`
	Size int `form:"size,default=10"`
}

func (q PageQuery) ToPage() (query.Page, error) {
	return query.NewPage(q.Page, q.Size)
}

type ListQuery struct {
	PageQuery
	Status    *string `form:"status" binding:"omitempty,oneof=pending in_progress completed"`
	Priority  *string `form:"priority" binding:"omitempty,oneof=low medium high"`
	Search    string  `form:"search"`
	Tag       string  `form:"tag"`
	DueBefore string  `form:"due_before"`
	DueAfter  string  `form:"due_after"`
}

func (q ListQuery) Criteria() (query.Criteria, error) {
	var (
		c query.Criteria
		v dom.ValidationError
	)
	if q.Status != nil {
		s := dom.Status(*q.Status)
		c.Status = &s
	}
	if q.Priority != nil {
		p := dom.Priority(*q.Priority)
		c.Priority = &p
	}
	c.Search = q.Search
	if q.Tag != "" {
		c.Tags = []string{q.Tag}
	}
	c.DueBefore = optionalTime(&v, "due_before", q.DueBefore)
	c.DueAfter = optionalTime(&v, "due_after", q.DueAfter)
	if err := v.Err(); err != nil {
		return query.Criteria{}, err
	}
	return c, nil
}

type StatsQuery struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

// Bounds returns the inclusive created_at range; nil ends are open.
func (q StatsQuery) Bounds() (from, to *time.Time, err error) {
	var v dom.ValidationError
	from = optionalTime(&v, "start_date", q.StartDate)
	to = optionalTime(&v, "end_date", q.EndDate)
	if err := v.Err(); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func optionalTime(v *dom.ValidationError, field, raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := ParseTimestamp(raw)
	if err != nil {
		v.Add(field, err.Error())
		return nil
	}
	return &t
}

type TodoResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      string     `json:"status" enums:"pending,in_progress,completed"`
	Priority    string     `json:"priority" enums:"low,medium,high"`
	DueDate     *time.Time `json:"due_date"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type ListTodosResponse struct {
	Todos      []TodoResponse `json:"todos"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	Size       int            `json:"size"`
	TotalPages int            `json:"total_pages"`
}

type StatsResponse struct {
	TotalTodos        int            `json:"total_todos"`
	CompletedTodos    int            `json:"completed_todos"`
	PendingTodos      int            `json:"pending_todos"`
	InProgressTodos   int            `json:"in_progress_todos"`
	OverdueTodos      int            `json:"overdue_todos"`
	HighPriorityTodos int            `json:"high_priority_todos"`
	CompletionRate    float64        `json:"completion_rate"`
	TodosByPriority   map[string]int `json:"todos_by_priority"`
	TodosByStatus     map[string]int `json:"todos_by_status"`
	TodosByTag        map[string]int `json:"todos_by_tag"`
	OverdueByPriority map[string]int `json:"overdue_by_priority"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type ValidationErrorResponse struct {
	Detail []dom.FieldError `json:"detail"`
}
