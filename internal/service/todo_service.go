package service

import (
	"context"
	"fmt"
	"time"

	dom "github.com/birlikkoshan/todo-api/internal/domain"
	"github.com/birlikkoshan/todo-api/internal/metrics"
	"github.com/birlikkoshan/todo-api/internal/query"
	"github.com/birlikkoshan/todo-api/internal/repo"
	"github.com/birlikkoshan/todo-api/internal/stats"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const MaxBulk = 100

var ErrNotFound = repo.ErrNotFound

// NotFoundError names the ids a bulk update could not resolve.
type NotFoundError = repo.NotFoundError

type TodoService struct {
	repo repo.TodoRepo
	log  *zap.Logger
	now  func() time.Time
	sf   singleflight.Group
}

type Option func(*TodoService)

// WithClock replaces the wall clock used for overdue checks.
func WithClock(now func() time.Time) Option {
	return func(s *TodoService) { s.now = now }
}

func NewTodoService(r repo.TodoRepo, log *zap.Logger, opts ...Option) *TodoService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &TodoService{repo: r, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TodoService) Create(ctx context.Context, in dom.TodoInput) (dom.Todo, error) {
	if err := in.Validate(""); err != nil {
		return dom.Todo{}, err
	}
	t, err := s.repo.Create(ctx, in.Todo())
	if err != nil {
		return dom.Todo{}, err
	}
	metrics.TrackTodoOperation("create", 1)
	s.log.Debug("todo created", zap.String("id", t.ID))
	return t, nil
}

func (s *TodoService) GetByID(ctx context.Context, id string) (dom.Todo, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns one page of todos matching c, newest first.
func (s *TodoService) List(ctx context.Context, c query.Criteria, p query.Page) (query.Listing, error) {
	res, err := s.repo.Scan(ctx, c.Predicate(), p.Window())
	if err != nil {
		return query.Listing{}, err
	}
	return query.NewListing(res, p), nil
}

// Search is List with a required free-text query matched, as given, against title or description.
func (s *TodoService) Search(ctx context.Context, q string, c query.Criteria, p query.Page) (query.Listing, error) {
	if q == "" {
		return query.Listing{}, dom.NewValidationError("query", "must not be empty")
	}
	c.Search = q
	return s.List(ctx, c, p)
}

func (s *TodoService) Update(ctx context.Context, id string, patch dom.TodoPatch) (dom.Todo, error) {
	if err := patch.Validate(""); err != nil {
		return dom.Todo{}, err
	}
	t, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return dom.Todo{}, err
	}
	metrics.TrackTodoOperation("update", 1)
	s.log.Debug("todo updated", zap.String("id", id))
	return t, nil
}

func (s *TodoService) UpdateStatus(ctx context.Context, id string, status dom.Status) (dom.Todo, error) {
	patch := dom.TodoPatch{Status: dom.Some(status)}
	if err := patch.Validate(""); err != nil {
		return dom.Todo{}, err
	}
	t, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return dom.Todo{}, err
	}
	metrics.TrackTodoOperation("status", 1)
	s.log.Debug("todo status changed", zap.String("id", id), zap.String("status", string(status)))
	return t, nil
}

func (s *TodoService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	metrics.TrackTodoOperation("delete", 1)
	s.log.Debug("todo deleted", zap.String("id", id))
	return nil
}

// BulkCreate validates every item before inserting any, then inserts them in one unit.
func (s *TodoService) BulkCreate(ctx context.Context, items []dom.TodoInput) ([]dom.Todo, error) {
	if len(items) < 1 || len(items) > MaxBulk {
		return nil, dom.NewValidationError("todos", fmt.Sprintf("must contain between 1 and %d items", MaxBulk))
	}
	var v dom.ValidationError
	list := make([]dom.Todo, len(items))
	for i, in := range items {
		v.Merge(in.Validate(fmt.Sprintf("todos[%d].", i)))
		list[i] = in.Todo()
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	created, err := s.repo.CreateMany(ctx, list)
	if err != nil {
		return nil, err
	}
	metrics.TrackTodoOperation("bulk_create", len(created))
	s.log.Info("todos bulk created", zap.Int("count", len(created)))
	return created, nil
}

// BulkUpdate applies every patch or none. A missing id fails the whole batch
// with a *NotFoundError listing the missing ids. Results are ordered by id.
func (s *TodoService) BulkUpdate(ctx context.Context, patches map[string]dom.TodoPatch) ([]dom.Todo, error) {
	if len(patches) == 0 {
		return []dom.Todo{}, nil
	}
	var v dom.ValidationError
	for id, patch := range patches {
		v.Merge(patch.Validate(fmt.Sprintf("updates[%s].", id)))
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateMany(ctx, patches)
	if err != nil {
		return nil, err
	}
	metrics.TrackTodoOperation("bulk_update", len(updated))
	s.log.Info("todos bulk updated", zap.Int("count", len(updated)))
	return updated, nil
}

// Stats aggregates the todos created within [from, to]; nil bounds are open.
// Identical concurrent requests share one scan. The shared scan ignores the
// cancellation of whichever caller started it; each caller still stops
// waiting when its own ctx ends.
func (s *TodoService) Stats(ctx context.Context, from, to *time.Time) (stats.Stats, error) {
	key := "stats:" + boundKey(from) + ":" + boundKey(to)
	scanCtx := context.WithoutCancel(ctx)
	ch := s.sf.DoChan(key, func() (interface{}, error) {
		res, err := s.repo.Scan(scanCtx, query.CreatedWithin(from, to), query.Window{})
		if err != nil {
			return nil, err
		}
		return stats.Compute(res.Items, s.now()), nil
	})
	select {
	case <-ctx.Done():
		return stats.Stats{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return stats.Stats{}, r.Err
		}
		return r.Val.(stats.Stats), nil
	}
}

func boundKey(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339Nano)
}
