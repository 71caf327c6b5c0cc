package dto

import (
	"encoding/json"
	"testing"
	"time"

	dom "github.com/birlikkoshan/todo-api/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2026-02-19", want: time.Date(2026, 2, 19, 0, 0, 0, 0, time.UTC)},
		{in: "2026-02-19T10:30:00Z", want: time.Date(2026, 2, 19, 10, 30, 0, 0, time.UTC)},
		{in: "2026-02-19T10:30:00+03:00", want: time.Date(2026, 2, 19, 7, 30, 0, 0, time.UTC)},
		{in: "2026-02-19T10:30:00.123456Z", want: time.Date(2026, 2, 19, 10, 30, 0, 123456000, time.UTC)},
		{in: "2026-02-19T10:30:00", want: time.Date(2026, 2, 19, 10, 30, 0, 0, time.UTC)},
		{in: "19/02/2026", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestUpdateRequestTriState(t *testing.T) {
	var req UpdateTodoRequest
	body := `{"description": null, "due_date": null, "tags": null, "priority": "high"}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	p, err := req.Patch("")
	require.NoError(t, err)
	assert.False(t, p.Title.Set)
	assert.False(t, p.Status.Set)
	assert.True(t, p.Description.Set)
	assert.Nil(t, p.Description.Value)
	assert.True(t, p.DueDate.Set)
	assert.Nil(t, p.DueDate.Value)
	assert.Equal(t, []string{}, p.Tags.Value)
	assert.Equal(t, dom.Some(dom.PriorityHigh), p.Priority)
}

func TestUpdateRequestSetValues(t *testing.T) {
	var req UpdateTodoRequest
	body := `{"title": "new", "description": "d", "due_date": "2026-01-02", "tags": ["a", "a"]}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	p, err := req.Patch("")
	require.NoError(t, err)
	assert.Equal(t, "new", p.Title.Value)
	require.NotNil(t, p.Description.Value)
	assert.Equal(t, "d", *p.Description.Value)
	require.NotNil(t, p.DueDate.Value)
	assert.True(t, p.DueDate.Value.Equal(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, []string{"a", "a"}, p.Tags.Value)
}

func TestUpdateRequestRejectsNullRequiredFields(t *testing.T) {
	var req UpdateTodoRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title": null, "status": null}`), &req))

	_, err := req.Patch("updates[x].")
	var ve *dom.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Fields, 2)
	assert.Equal(t, "updates[x].title", ve.Fields[0].Field)
	assert.Equal(t, "updates[x].status", ve.Fields[1].Field)
}

func TestCreateRequestIgnoresServerFields(t *testing.T) {
	var req CreateTodoRequest
	body := `{"id": "mine", "created_at": "2020-01-01", "title": "t", "status": null}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	in := req.Input()
	assert.Equal(t, "t", in.Title)
	assert.Equal(t, dom.StatusPending, in.Todo().Status)
	assert.Nil(t, in.DueDate)
}

func TestListQueryCriteria(t *testing.T) {
	status := "completed"
	q := ListQuery{Status: &status, Tag: "work", DueBefore: "2026-01-01"}
	c, err := q.Criteria()
	require.NoError(t, err)
	assert.Equal(t, dom.StatusCompleted, *c.Status)
	assert.Equal(t, []string{"work"}, c.Tags)
	require.NotNil(t, c.DueBefore)
	assert.Nil(t, c.DueAfter)

	_, err = ListQuery{DueAfter: "soon"}.Criteria()
	var ve *dom.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "due_after", ve.Fields[0].Field)
}

func TestTimestampKeepsUnparsedText(t *testing.T) {
	tests := []struct {
		body    string
		wantRaw string
		wantSet bool
	}{
		{body: `{"due_date":"2026-02-19"}`, wantRaw: "2026-02-19", wantSet: true},
		{body: `{"due_date":" "}`},
		{body: `{"due_date":null}`},
		{body: `{"due_date":"next week"}`, wantRaw: "next week"},
		{body: `{"due_date":20260219}`, wantRaw: "20260219"},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			var req CreateTodoRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.wantRaw, req.DueDate.Raw())
			assert.Equal(t, tt.wantSet, req.DueDate.Ptr() != nil)
		})
	}
}
