package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	dom "github.com/birlikkoshan/todo-api/internal/domain"
	"github.com/birlikkoshan/todo-api/internal/metrics"
	"github.com/birlikkoshan/todo-api/internal/query"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

const sqliteTodoColumns = `id, title, description, status, priority, due_date, tags, created_at, updated_at`

// sqliteTodo is the row shape; timestamps are RFC3339Nano UTC text, tags a JSON array.
type sqliteTodo struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	Status      string         `db:"status"`
	Priority    string         `db:"priority"`
	DueDate     sql.NullString `db:"due_date"`
	Tags        string         `db:"tags"`
	CreatedAt   string         `db:"created_at"`
	UpdatedAt   string         `db:"updated_at"`
}

func toSQLiteTodo(t dom.Todo) (sqliteTodo, error) {
	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return sqliteTodo{}, err
	}
	row := sqliteTodo{
		ID:        t.ID,
		Title:     t.Title,
		Status:    string(t.Status),
		Priority:  string(t.Priority),
		Tags:      string(tags),
		CreatedAt: formatTime(t.CreatedAt),
		UpdatedAt: formatTime(t.UpdatedAt),
	}
	if t.Description != nil {
		row.Description = sql.NullString{String: *t.Description, Valid: true}
	}
	if t.DueDate != nil {
		row.DueDate = sql.NullString{String: formatTime(*t.DueDate), Valid: true}
	}
	return row, nil
}

func (row sqliteTodo) todo() (dom.Todo, error) {
	t := dom.Todo{
		ID:       row.ID,
		Title:    row.Title,
		Status:   dom.Status(row.Status),
		Priority: dom.Priority(row.Priority),
	}
	if row.Description.Valid {
		d := row.Description.String
		t.Description = &d
	}
	if row.DueDate.Valid {
		due, err := parseTime(row.DueDate.String)
		if err != nil {
			return dom.Todo{}, fmt.Errorf("todo %s due_date: %w", row.ID, err)
		}
		t.DueDate = &due
	}
	if err := json.Unmarshal([]byte(row.Tags), &t.Tags); err != nil {
		return dom.Todo{}, fmt.Errorf("todo %s tags: %w", row.ID, err)
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	var err error
	if t.CreatedAt, err = parseTime(row.CreatedAt); err != nil {
		return dom.Todo{}, fmt.Errorf("todo %s created_at: %w", row.ID, err)
	}
	if t.UpdatedAt, err = parseTime(row.UpdatedAt); err != nil {
		return dom.Todo{}, fmt.Errorf("todo %s updated_at: %w", row.ID, err)
	}
	return t, nil
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// SQLiteTodoRepo implements TodoRepo on a local SQLite file.
type SQLiteTodoRepo struct {
	db *sqlx.DB
}

// NewSQLiteTodoRepo opens (or creates) the database at path, enables WAL
// and applies pending migrations.
func NewSQLiteTodoRepo(ctx context.Context, path string) (*SQLiteTodoRepo, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// One connection serializes writers; sqlite allows a single writer anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if err := Migrate(ctx, db.DB, goose.DialectSQLite3, "sqlite"); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &SQLiteTodoRepo{db: db}, nil
}

func (r *SQLiteTodoRepo) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *SQLiteTodoRepo) Create(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	list, err := r.CreateMany(ctx, []dom.Todo{t})
	if err != nil {
		return dom.Todo{}, err
	}
	return list[0], nil
}

func (r *SQLiteTodoRepo) CreateMany(ctx context.Context, list []dom.Todo) ([]dom.Todo, error) {
	timer := metrics.TrackStoreOperation("sqlite", "insert")
	defer timer.ObserveDuration()

	at := now()
	out := make([]dom.Todo, len(list))
	for i, t := range list {
		out[i] = prepareNew(t, at)
	}
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, t := range out {
			row, err := toSQLiteTodo(t)
			if err != nil {
				return err
			}
			_, err = tx.NamedExecContext(ctx, `
				INSERT INTO todos (`+sqliteTodoColumns+`)
				VALUES (:id, :title, :description, :status, :priority, :due_date, :tags, :created_at, :updated_at)`,
				row)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite insert todos: %w", err)
	}
	return out, nil
}

func (r *SQLiteTodoRepo) GetByID(ctx context.Context, id string) (dom.Todo, error) {
	timer := metrics.TrackStoreOperation("sqlite", "get")
	defer timer.ObserveDuration()

	var row sqliteTodo
	err := r.db.GetContext(ctx, &row, `SELECT `+sqliteTodoColumns+` FROM todos WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return dom.Todo{}, ErrNotFound
	}
	if err != nil {
		return dom.Todo{}, fmt.Errorf("sqlite get todo %s: %w", id, err)
	}
	return row.todo()
}

func (r *SQLiteTodoRepo) Update(ctx context.Context, id string, patch dom.TodoPatch) (dom.Todo, error) {
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

func (r *SQLiteTodoRepo) UpdateMany(ctx context.Context, patches map[string]dom.TodoPatch) ([]dom.Todo, error) {
	timer := metrics.TrackStoreOperation("sqlite", "update")
	defer timer.ObserveDuration()

	if len(patches) == 0 {
		return []dom.Todo{}, nil
	}
	ids := sortedIDs(patches)
	var out []dom.Todo
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		q, args, err := sqlx.In(`SELECT `+sqliteTodoColumns+` FROM todos WHERE id IN (?)`, ids)
		if err != nil {
			return err
		}
		var rows []sqliteTodo
		if err := tx.SelectContext(ctx, &rows, tx.Rebind(q), args...); err != nil {
			return err
		}
		found := make(map[string]dom.Todo, len(rows))
		for _, row := range rows {
			t, err := row.todo()
			if err != nil {
				return err
			}
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
			row, err := toSQLiteTodo(t)
			if err != nil {
				return err
			}
			_, err = tx.NamedExecContext(ctx, `
				UPDATE todos SET title = :title, description = :description, status = :status,
					priority = :priority, due_date = :due_date, tags = :tags, updated_at = :updated_at
				WHERE id = :id`, row)
			if err != nil {
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
		return nil, fmt.Errorf("sqlite update todos: %w", err)
	}
	return out, nil
}

func (r *SQLiteTodoRepo) Delete(ctx context.Context, id string) error {
	timer := metrics.TrackStoreOperation("sqlite", "delete")
	defer timer.ObserveDuration()

	result, err := r.db.ExecContext(ctx, "DELETE FROM todos WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("sqlite delete todo %s: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteTodoRepo) Scan(ctx context.Context, match query.Predicate, w query.Window) (query.Result, error) {
	timer := metrics.TrackStoreOperation("sqlite", "scan")
	defer timer.ObserveDuration()

	var rows []sqliteTodo
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+sqliteTodoColumns+` FROM todos ORDER BY seq`); err != nil {
		return query.Result{}, fmt.Errorf("sqlite scan todos: %w", err)
	}
	list := make([]dom.Todo, 0, len(rows))
	for _, row := range rows {
		t, err := row.todo()
		if err != nil {
			return query.Result{}, err
		}
		list = append(list, t)
	}
	return query.Apply(list, match, w), nil
}

func (r *SQLiteTodoRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteTodoRepo) Close() error {
	return r.db.Close()
}
