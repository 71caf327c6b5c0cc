package query

import (
	"fmt"
	"sort"

	dom "github.com/birlikkoshan/todo-api/internal/domain"
)

const (
	DefaultPage = 1
	DefaultSize = 10
	MaxSize     = 100
)

// Page is a validated 1-based page request.
type Page struct {
	Number int
	Size   int
}

// NewPage rejects out-of-range values instead of clamping them.
func NewPage(number, size int) (Page, error) {
	var v dom.ValidationError
	if number < 1 {
		v.Add("page", "must be greater than or equal to 1")
	}
	if size < 1 || size > MaxSize {
		v.Add("size", fmt.Sprintf("must be between 1 and %d", MaxSize))
	}
	if err := v.Err(); err != nil {
		return Page{}, err
	}
	return Page{Number: number, Size: size}, nil
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// Window converts the page into a store slice.
func (p Page) Window() Window { return Window{Offset: p.Offset(), Limit: p.Size} }

// Window is an offset/limit slice. Limit 0 means unbounded.
type Window struct {
	Offset int
	Limit  int
}

// Result is one store scan: the sliced items and the number of matches before slicing.
type Result struct {
	Items []dom.Todo
	Total int
}

// Listing is a paginated response.
type Listing struct {
	Items      []dom.Todo
	Total      int
	Page       int
	Size       int
	TotalPages int
}

// TotalPages is ceil(total/size); zero when there are no matches.
func TotalPages(total, size int) int {
	if size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// NewListing assembles the response for a page from a store result.
func NewListing(r Result, p Page) Listing {
	items := r.Items
	if items == nil {
		items = []dom.Todo{}
	}
	return Listing{
		Items:      items,
		Total:      r.Total,
		Page:       p.Number,
		Size:       p.Size,
		TotalPages: TotalPages(r.Total, p.Size),
	}
}

// Apply filters todos given in insertion order, orders them newest first
// (ties keep insertion order) and slices the window.
func Apply(inserted []dom.Todo, match Predicate, w Window) Result {
	if match == nil {
		match = All
	}
	matched := make([]dom.Todo, 0, len(inserted))
	for _, t := range inserted {
		if match(t) {
			matched = append(matched, t)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := min(max(w.Offset, 0), total)
	end := total
	if w.Limit > 0 && start+w.Limit < total {
		end = start + w.Limit
	}
	return Result{Items: matched[start:end], Total: total}
}
