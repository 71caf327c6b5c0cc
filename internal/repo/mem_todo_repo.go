package repo

import (
	"context"
	"errors"
	"sync"

	dom "github.com/birlikkoshan/todo-api/internal/domain"
	"github.com/birlikkoshan/todo-api/internal/metrics"
	"github.com/birlikkoshan/todo-api/internal/query"
)

// MemTodoRepo is a process-local TodoRepo. Records are cloned on the way in
// and out so callers never share memory with the store.
type MemTodoRepo struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]dom.Todo
}

func NewMemTodoRepo() *MemTodoRepo {
	return &MemTodoRepo{byID: map[string]dom.Todo{}}
}

func (r *MemTodoRepo) Create(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	list, err := r.CreateMany(ctx, []dom.Todo{t})
	if err != nil {
		return dom.Todo{}, err
	}
	return list[0], nil
}

func (r *MemTodoRepo) CreateMany(ctx context.Context, list []dom.Todo) ([]dom.Todo, error) {
	timer := metrics.TrackStoreOperation("memory", "insert")
	defer timer.ObserveDuration()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	at := now()
	out := make([]dom.Todo, len(list))

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, t := range list {
		out[i] = prepareNew(t, at)
		r.byID[out[i].ID] = out[i].Clone()
		r.order = append(r.order, out[i].ID)
	}
	return out, nil
}

func (r *MemTodoRepo) GetByID(ctx context.Context, id string) (dom.Todo, error) {
	timer := metrics.TrackStoreOperation("memory", "get")
	defer timer.ObserveDuration()

	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	if !ok {
		return dom.Todo{}, ErrNotFound
	}
	return t.Clone(), nil
}

func (r *MemTodoRepo) Update(ctx context.Context, id string, patch dom.TodoPatch) (dom.Todo, error) {
	list, err := r.UpdateMany(ctx, map[string]dom.TodoPatch{id: patch})
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return dom.Todo{}, ErrNotFound
	}
	if err != nil {
		return dom.Todo{}, err
	}
	return list[0], nil
}

// UpdateMany resolves every id under the write lock before touching any record.
func (r *MemTodoRepo) UpdateMany(ctx context.Context, patches map[string]dom.TodoPatch) ([]dom.Todo, error) {
	timer := metrics.TrackStoreOperation("memory", "update")
	defer timer.ObserveDuration()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids := sortedIDs(patches)

	r.mu.Lock()
	defer r.mu.Unlock()
	if miss := missing(ids, r.byID); len(miss) > 0 {
		return nil, &NotFoundError{IDs: miss}
	}
	at := now()
	out := make([]dom.Todo, 0, len(ids))
	for _, id := range ids {
		t := r.byID[id].Clone()
		applyPatch(&t, patches[id], at)
		r.byID[id] = t
		out = append(out, t.Clone())
	}
	return out, nil
}

func (r *MemTodoRepo) Delete(ctx context.Context, id string) error {
	timer := metrics.TrackStoreOperation("memory", "delete")
	defer timer.ObserveDuration()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	for i, have := range r.order {
		if have == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemTodoRepo) Scan(ctx context.Context, match query.Predicate, w query.Window) (query.Result, error) {
	timer := metrics.TrackStoreOperation("memory", "scan")
	defer timer.ObserveDuration()

	r.mu.RLock()
	list := make([]dom.Todo, 0, len(r.order))
	for _, id := range r.order {
		list = append(list, r.byID[id].Clone())
	}
	r.mu.RUnlock()
	return query.Apply(list, match, w), nil
}

func (r *MemTodoRepo) Ping(ctx context.Context) error { return ctx.Err() }

func (r *MemTodoRepo) Close() error { return nil }
