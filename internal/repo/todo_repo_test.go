package repo

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	dom "github.com/birlikkoshan/todo-api/internal/domain"
	"github.com/birlikkoshan/todo-api/internal/query"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFactory func(t *testing.T) TodoRepo

func stores() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) TodoRepo {
			return NewMemTodoRepo()
		},
		"sqlite": func(t *testing.T) TodoRepo {
			r, err := NewSQLiteTodoRepo(context.Background(), filepath.Join(t.TempDir(), "todos.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = r.Close() })
			return r
		},
		"redis": func(t *testing.T) TodoRepo {
			mr := miniredis.RunT(t)
			r := NewRedisTodoRepo(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "todo")
			t.Cleanup(func() { _ = r.Close() })
			return r
		},
	}
}

func forEachStore(t *testing.T, fn func(t *testing.T, r TodoRepo)) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			fn(t, factory(t))
		})
	}
}

func strptr(s string) *string { return &s }

func newTodo(title string, tags ...string) dom.Todo {
	return dom.TodoInput{Title: title, Tags: tags}.Todo()
}

func TestCreateAssignsServerFields(t *testing.T) {
	forEachStore(t, func(t *testing.T, r TodoRepo) {
		ctx := context.Background()
		due := time.Date(2030, 1, 2, 3, 4, 5, 123456789, time.UTC)
		in := newTodo("write report", "work", "work")
		in.ID = "caller-id"
		in.CreatedAt = time.Unix(0, 0)
		in.Description = strptr("quarterly")
		in.DueDate = &due

		created, err := r.Create(ctx, in)
		require.NoError(t, err)
		assert.NotEqual(t, "caller-id", created.ID)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, created.CreatedAt, created.UpdatedAt)
		assert.True(t, created.CreatedAt.After(time.Unix(0, 0)))

		got, err := r.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)
		assert.Equal(t, []string{"work", "work"}, got.Tags)
		assert.Equal(t, dom.StatusPending, got.Status)
		assert.Equal(t, dom.PriorityMedium, got.Priority)
		require.NotNil(t, got.DueDate)
		assert.True(t, got.DueDate.Equal(dom.Precision(due)))
	})
}

func TestGetMissing(t *testing.T) {
	forEachStore(t, func(t *testing.T, r TodoRepo) {
		_, err := r.GetByID(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUpdateRefreshesUpdatedAt(t *testing.T) {
	forEachStore(t, func(t *testing.T, r TodoRepo) {
		ctx := context.Background()
		created, err := r.Create(ctx, newTodo("T"))
		require.NoError(t, err)

		updated, err := r.Update(ctx, created.ID, dom.TodoPatch{
			Status:      dom.Some(dom.StatusInProgress),
			Description: dom.Some(strptr("started")),
		})
		require.NoError(t, err)
		assert.Equal(t, created.CreatedAt, updated.CreatedAt)
		assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
		assert.Equal(t, dom.StatusInProgress, updated.Status)
		assert.Equal(t, "started", *updated.Description)
		assert.Equal(t, created.Title, updated.Title)

		cleared, err := r.Update(ctx, created.ID, dom.TodoPatch{
			Description: dom.Some[*string](nil),
			Tags:        dom.Some[[]string](nil),
		})
		require.NoError(t, err)
		assert.Nil(t, cleared.Description)
		assert.Equal(t, []string{}, cleared.Tags)

		got, err := r.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, cleared, got)

		_, err = r.Update(ctx, "missing", dom.TodoPatch{Title: dom.Some("x")})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUpdateManyIsAllOrNothing(t *testing.T) {
	forEachStore(t, func(t *testing.T, r TodoRepo) {
		ctx := context.Background()
		x, err := r.Create(ctx, newTodo("X"))
		require.NoError(t, err)
		y, err := r.Create(ctx, newTodo("Y"))
		require.NoError(t, err)

		_, err = r.UpdateMany(ctx, map[string]dom.TodoPatch{
			x.ID: {Status: dom.Some(dom.StatusCompleted)},
			y.ID: {Status: dom.Some(dom.StatusCompleted)},
			"Z":  {Status: dom.Some(dom.StatusCompleted)},
		})
		var nf *NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, []string{"Z"}, nf.IDs)
		assert.ErrorIs(t, err, ErrNotFound)

		for _, id := range []string{x.ID, y.ID} {
			got, err := r.GetByID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, dom.StatusPending, got.Status)
		}

		updated, err := r.UpdateMany(ctx, map[string]dom.TodoPatch{
			x.ID: {Priority: dom.Some(dom.PriorityHigh)},
			y.ID: {Title: dom.Some("Y2")},
		})
		require.NoError(t, err)
		require.Len(t, updated, 2)
		byID := map[string]dom.Todo{}
		for _, u := range updated {
			byID[u.ID] = u
		}
		assert.Equal(t, dom.PriorityHigh, byID[x.ID].Priority)
		assert.Equal(t, "Y2", byID[y.ID].Title)

		empty, err := r.UpdateMany(ctx, map[string]dom.TodoPatch{})
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func TestDelete(t *testing.T) {
	forEachStore(t, func(t *testing.T, r TodoRepo) {
		ctx := context.Background()
		created, err := r.Create(ctx, newTodo("gone"))
		require.NoError(t, err)

		require.NoError(t, r.Delete(ctx, created.ID))
		_, err = r.GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, r.Delete(ctx, created.ID), ErrNotFound)

		res, err := r.Scan(ctx, query.All, query.Window{})
		require.NoError(t, err)
		assert.Equal(t, 0, res.Total)
	})
}

func TestScanOrdersNewestFirstAndCountsBeforeSlicing(t *testing.T) {
	forEachStore(t, func(t *testing.T, r TodoRepo) {
		ctx := context.Background()
		// One batch shares a created_at, so insertion order breaks the tie.
		batch, err := r.CreateMany(ctx, []dom.Todo{newTodo("a", "x"), newTodo("b"), newTodo("c", "x")})
		require.NoError(t, err)
		later, err := r.Create(ctx, newTodo("d", "x"))
		require.NoError(t, err)

		res, err := r.Scan(ctx, query.All, query.Window{})
		require.NoError(t, err)
		require.Equal(t, 4, res.Total)
		titles := make([]string, len(res.Items))
		for i, it := range res.Items {
			titles[i] = it.Title
		}
		if later.CreatedAt.After(batch[0].CreatedAt) {
			assert.Equal(t, []string{"d", "a", "b", "c"}, titles)
		} else {
			assert.ElementsMatch(t, []string{"d", "a", "b", "c"}, titles)
		}

		res, err = r.Scan(ctx, query.HasTag("x"), query.Window{Offset: 1, Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, 3, res.Total)
		assert.Len(t, res.Items, 1)

		res, err = r.Scan(ctx, query.HasTag("x"), query.Window{Offset: 10, Limit: 5})
		require.NoError(t, err)
		assert.Equal(t, 3, res.Total)
		assert.Empty(t, res.Items)
	})
}

func TestConcurrentUpdatesOnDisjointRecords(t *testing.T) {
	forEachStore(t, func(t *testing.T, r TodoRepo) {
		ctx := context.Background()
		list, err := r.CreateMany(ctx, []dom.Todo{newTodo("1"), newTodo("2"), newTodo("3"), newTodo("4")})
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make(chan error, len(list))
		for _, td := range list {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, err := r.Update(ctx, id, dom.TodoPatch{Status: dom.Some(dom.StatusCompleted)})
				errs <- err
			}(td.ID)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		res, err := r.Scan(ctx, query.StatusIs(dom.StatusCompleted), query.Window{})
		require.NoError(t, err)
		assert.Equal(t, len(list), res.Total)
	})
}

func TestPing(t *testing.T) {
	forEachStore(t, func(t *testing.T, r TodoRepo) {
		assert.NoError(t, r.Ping(context.Background()))
	})
}
