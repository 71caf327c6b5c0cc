package query

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dom "github.com/birlikkoshan/todo-api/internal/domain"
)

func TestNewPageRejectsOutOfRange(t *testing.T) {
	for _, tc := range []struct{ page, size int }{{0, 10}, {1, 0}, {1, 101}, {-1, -1}} {
		_, err := NewPage(tc.page, tc.size)
		var ve *dom.ValidationError
		assert.ErrorAs(t, err, &ve, "page=%d size=%d", tc.page, tc.size)
	}
	p, err := NewPage(3, 100)
	require.NoError(t, err)
	assert.Equal(t, 200, p.Offset())
}

func TestTotalPages(t *testing.T) {
	tests := []struct{ total, size, want int }{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{99, 1, 99},
		{100, 100, 1},
		{101, 100, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TotalPages(tt.total, tt.size), "total=%d size=%d", tt.total, tt.size)
	}
}

func seq(n int, base time.Time) []dom.Todo {
	out := make([]dom.Todo, n)
	for i := range out {
		out[i] = dom.Todo{ID: fmt.Sprint(i), CreatedAt: base.Add(time.Duration(i) * time.Minute)}
	}
	return out
}

func TestApplyOrdersNewestFirstWithStableTies(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	todos := []dom.Todo{
		{ID: "a", CreatedAt: base},
		{ID: "b", CreatedAt: base.Add(time.Hour)},
		{ID: "c", CreatedAt: base},
		{ID: "d", CreatedAt: base.Add(time.Hour)},
	}
	r := Apply(todos, nil, Window{})
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids(r.Items))
	assert.Equal(t, 4, r.Total)
}

func TestApplyWindows(t *testing.T) {
	todos := seq(25, time.Now())

	for size := 1; size <= 30; size++ {
		for page := 1; page <= 30; page++ {
			p, err := NewPage(page, size)
			require.NoError(t, err)
			l := NewListing(Apply(todos, All, p.Window()), p)

			assert.LessOrEqual(t, len(l.Items), size)
			assert.Equal(t, 25, l.Total)
			assert.Equal(t, (25+size-1)/size, l.TotalPages)
			if p.Offset() >= 25 {
				assert.Empty(t, l.Items)
			}
		}
	}
}

func TestApplyTotalCountsBeforeSlicing(t *testing.T) {
	todos := seq(12, time.Now())
	even := func(t dom.Todo) bool { return len(t.ID)%2 == 0 }

	r := Apply(todos, even, Window{Offset: 0, Limit: 1})
	assert.Equal(t, 2, r.Total) // "10", "11"
	assert.Equal(t, []string{"11"}, ids(r.Items))
}

func TestNewListingEmpty(t *testing.T) {
	p, _ := NewPage(1, 10)
	l := NewListing(Result{}, p)
	assert.NotNil(t, l.Items)
	assert.Equal(t, 0, l.TotalPages)
}
