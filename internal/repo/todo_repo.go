package repo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	dom "github.com/birlikkoshan/todo-api/internal/domain"
	"github.com/birlikkoshan/todo-api/internal/metrics"
	"github.com/birlikkoshan/todo-api/internal/query"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a single id does not resolve.
var ErrNotFound = errors.New("todo not found")

// NotFoundError names every id of a multi-id operation that did not resolve.
type NotFoundError struct {
	IDs []string
}

func (e *NotFoundError) Error() string {
	return "todos not found: " + strings.Join(e.IDs, ", ")
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// TodoRepo is the durable todo collection. Ids and timestamps are owned by the store:
// Create assigns both, every successful Update refreshes UpdatedAt.
// CreateMany and UpdateMany commit all records or none.
type TodoRepo interface {
	Create(ctx context.Context, t dom.Todo) (dom.Todo, error)
	CreateMany(ctx context.Context, list []dom.Todo) ([]dom.Todo, error)
	GetByID(ctx context.Context, id string) (dom.Todo, error)
	Update(ctx context.Context, id string, patch dom.TodoPatch) (dom.Todo, error)
	UpdateMany(ctx context.Context, patches map[string]dom.TodoPatch) ([]dom.Todo, error)
	Delete(ctx context.Context, id string) error
	// Scan returns the window of matching todos, newest first, and the match count before slicing.
	Scan(ctx context.Context, match query.Predicate, w query.Window) (query.Result, error)
	Ping(ctx context.Context) error
	Close() error
}

func now() time.Time { return dom.Precision(time.Now()) }

// prepareNew assigns the server-owned fields, ignoring whatever the caller put there.
func prepareNew(t dom.Todo, at time.Time) dom.Todo {
	out := t.Clone()
	out.ID = uuid.NewString()
	out.Stamp(at)
	if out.DueDate != nil {
		d := dom.Precision(*out.DueDate)
		out.DueDate = &d
	}
	return out
}

// applyPatch mutates a stored record in place and stamps it.
func applyPatch(t *dom.Todo, patch dom.TodoPatch, at time.Time) {
	patch.Apply(t)
	if t.DueDate != nil {
		d := dom.Precision(*t.DueDate)
		t.DueDate = &d
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	t.Touch(at)
}

func sortedIDs(patches map[string]dom.TodoPatch) []string {
	ids := make([]string, 0, len(patches))
	for id := range patches {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// missing returns the ids (in input order) that have no record.
func missing(ids []string, found map[string]dom.Todo) []string {
	var out []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

const pgTodoColumns = `id, title, description, status, priority, due_date, tags, created_at, updated_at`

// PGTodoRepo implements TodoRepo with Postgres.
type PGTodoRepo struct {
	db *pgxpool.Pool
}

func NewPGTodoRepo(db *pgxpool.Pool) *PGTodoRepo {
	return &PGTodoRepo{db: db}
}

func scanPGTodo(row pgx.Row) (dom.Todo, error) {
	var (
		t                dom.Todo
		status, priority string
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &status, &priority, &t.DueDate, &t.Tags,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return dom.Todo{}, err
	}
	t.Status = dom.Status(status)
	t.Priority = dom.Priority(priority)
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.DueDate != nil {
		d := t.DueDate.UTC()
		t.DueDate = &d
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, nil
}

func collectPGTodos(rows pgx.Rows) ([]dom.Todo, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (dom.Todo, error) {
		return scanPGTodo(row)
	})
}

func (r *PGTodoRepo) insert(ctx context.Context, tx pgx.Tx, t dom.Todo) error {
	query := `
		INSERT INTO todos (id, title, description, status, priority, due_date, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := tx.Exec(ctx, query, t.ID, t.Title, t.Description, string(t.Status), string(t.Priority),
		t.DueDate, t.Tags, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r *PGTodoRepo) write(ctx context.Context, tx pgx.Tx, t dom.Todo) error {
	query := `
		UPDATE todos SET title = $2, description = $3, status = $4, priority = $5,
			due_date = $6, tags = $7, updated_at = $8
		WHERE id = $1`
	tag, err := tx.Exec(ctx, query, t.ID, t.Title, t.Description, string(t.Status), string(t.Priority),
		t.DueDate, t.Tags, t.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGTodoRepo) Create(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	list, err := r.CreateMany(ctx, []dom.Todo{t})
	if err != nil {
		return dom.Todo{}, err
	}
	return list[0], nil
}

func (r *PGTodoRepo) CreateMany(ctx context.Context, list []dom.Todo) ([]dom.Todo, error) {
	timer := metrics.TrackStoreOperation("postgres", "insert")
	defer timer.ObserveDuration()

	at := now()
	out := make([]dom.Todo, len(list))
	for i, t := range list {
		out[i] = prepareNew(t, at)
	}
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		for _, t := range out {
			if err := r.insert(ctx, tx, t); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("pg insert todos: %w", err)
	}
	return out, nil
}

func (r *PGTodoRepo) GetByID(ctx context.Context, id string) (dom.Todo, error) {
	timer := metrics.TrackStoreOperation("postgres", "get")
	defer timer.ObserveDuration()

	query := `SELECT ` + pgTodoColumns + ` FROM todos WHERE id = $1`
	t, err := scanPGTodo(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return dom.Todo{}, ErrNotFound
	}
	if err != nil {
		return dom.Todo{}, fmt.Errorf("pg get todo: %w", err)
	}
	return t, nil
}

func (r *PGTodoRepo) Update(ctx context.Context, id string, patch dom.TodoPatch) (dom.Todo, error) {
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

// UpdateMany locks every target row, fails with NotFoundError if any is missing,
// and otherwise writes all patches in the same transaction.
func (r *PGTodoRepo) UpdateMany(ctx context.Context, patches map[string]dom.TodoPatch) ([]dom.Todo, error) {
	timer := metrics.TrackStoreOperation("postgres", "update")
	defer timer.ObserveDuration()

	if len(patches) == 0 {
		return []dom.Todo{}, nil
	}
	ids := sortedIDs(patches)
	var out []dom.Todo
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT `+pgTodoColumns+` FROM todos WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
		if err != nil {
			return err
		}
		current, err := collectPGTodos(rows)
		if err != nil {
			return err
		}
		found := make(map[string]dom.Todo, len(current))
		for _, t := range current {
			found[t.ID] = t
		}
		if miss := missing(ids, found); len(miss) > 0 {
			return &NotFoundError{IDs: miss}
		}

		at := now()
		out = make([]dom.Todo, 0, len(ids))
		for _, id := range ids {
			t := found[id]
			applyPatch(&t, patches[id], at)
			if err := r.write(ctx, tx, t); err != nil {
				return err
			}
			out = append(out, t)
		}
		return nil
	})
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nil, nf
	}
	if err != nil {
		return nil, fmt.Errorf("pg update todos: %w", err)
	}
	return out, nil
}

func (r *PGTodoRepo) Delete(ctx context.Context, id string) error {
	timer := metrics.TrackStoreOperation("postgres", "delete")
	defer timer.ObserveDuration()

	tag, err := r.db.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pg delete todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Scan reads the whole table in insertion order and filters in the application;
// tag membership is not pushed down to the database.
func (r *PGTodoRepo) Scan(ctx context.Context, match query.Predicate, w query.Window) (query.Result, error) {
	timer := metrics.TrackStoreOperation("postgres", "scan")
	defer timer.ObserveDuration()

	rows, err := r.db.Query(ctx, `SELECT `+pgTodoColumns+` FROM todos ORDER BY seq`)
	if err != nil {
		return query.Result{}, fmt.Errorf("pg scan todos: %w", err)
	}
	list, err := collectPGTodos(rows)
	if err != nil {
		return query.Result{}, fmt.Errorf("pg scan todos: %w", err)
	}
	return query.Apply(list, match, w), nil
}

func (r *PGTodoRepo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *PGTodoRepo) Close() error {
	r.db.Close()
	return nil
}
