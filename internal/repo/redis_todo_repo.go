package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	dom "github.com/birlikkoshan/todo-api/internal/domain"
	"github.com/birlikkoshan/todo-api/internal/metrics"
	"github.com/birlikkoshan/todo-api/internal/query"

	"github.com/redis/go-redis/v9"
)

const redisMaxRetries = 10

// redisTodo is the JSON stored per record in the records hash.
type redisTodo struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description *string      `json:"description"`
	Status      dom.Status   `json:"status"`
	Priority    dom.Priority `json:"priority"`
	DueDate     *time.Time   `json:"due_date"`
	Tags        []string     `json:"tags"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func encodeRedisTodo(t dom.Todo) (string, error) {
	b, err := json.Marshal(redisTodo{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		Tags:        t.Tags,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeRedisTodo(s string) (dom.Todo, error) {
	var rec redisTodo
	if err := json.Unmarshal([]byte(s), &rec); err != nil {
		return dom.Todo{}, err
	}
	t := dom.Todo{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		Status:      rec.Status,
		Priority:    rec.Priority,
		Tags:        rec.Tags,
		CreatedAt:   rec.CreatedAt.UTC(),
		UpdatedAt:   rec.UpdatedAt.UTC(),
	}
	if rec.DueDate != nil {
		d := rec.DueDate.UTC()
		t.DueDate = &d
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return t, nil
}

// RedisTodoRepo keeps todos in three keys:
//
//	<prefix>:records  hash id -> JSON record
//	<prefix>:order    sorted set of ids scored by insertion sequence
//	<prefix>:seq      insertion counter
type RedisTodoRepo struct {
	rdb        *redis.Client
	recordsKey string
	orderKey   string
	seqKey     string
}

func NewRedisTodoRepo(rdb *redis.Client, prefix string) *RedisTodoRepo {
	return &RedisTodoRepo{
		rdb:        rdb,
		recordsKey: prefix + ":records",
		orderKey:   prefix + ":order",
		seqKey:     prefix + ":seq",
	}
}

func (r *RedisTodoRepo) Create(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	list, err := r.CreateMany(ctx, []dom.Todo{t})
	if err != nil {
		return dom.Todo{}, err
	}
	return list[0], nil
}

func (r *RedisTodoRepo) CreateMany(ctx context.Context, list []dom.Todo) ([]dom.Todo, error) {
	timer := metrics.TrackStoreOperation("redis", "insert")
	defer timer.ObserveDuration()

	if len(list) == 0 {
		return []dom.Todo{}, nil
	}
	at := now()
	out := make([]dom.Todo, len(list))
	fields := make([]interface{}, 0, 2*len(list))
	for i, t := range list {
		out[i] = prepareNew(t, at)
		enc, err := encodeRedisTodo(out[i])
		if err != nil {
			return nil, fmt.Errorf("redis encode todo: %w", err)
		}
		fields = append(fields, out[i].ID, enc)
	}

	last, err := r.rdb.IncrBy(ctx, r.seqKey, int64(len(list))).Result()
	if err != nil {
		return nil, fmt.Errorf("redis reserve seq: %w", err)
	}
	first := last - int64(len(list)) + 1
	members := make([]redis.Z, len(out))
	for i, t := range out {
		members[i] = redis.Z{Score: float64(first + int64(i)), Member: t.ID}
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.recordsKey, fields...)
		pipe.ZAdd(ctx, r.orderKey, members...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis insert todos: %w", err)
	}
	return out, nil
}

func (r *RedisTodoRepo) GetByID(ctx context.Context, id string) (dom.Todo, error) {
	timer := metrics.TrackStoreOperation("redis", "get")
	defer timer.ObserveDuration()

	s, err := r.rdb.HGet(ctx, r.recordsKey, id).Result()
	if err == redis.Nil {
		return dom.Todo{}, ErrNotFound
	}
	if err != nil {
		return dom.Todo{}, fmt.Errorf("redis get todo: %w", err)
	}
	return decodeRedisTodo(s)
}

func (r *RedisTodoRepo) Update(ctx context.Context, id string, patch dom.TodoPatch) (dom.Todo, error) {
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

// UpdateMany watches the records hash, resolves every id, and writes all
// patches in one MULTI/EXEC. A concurrent write to the hash restarts the attempt.
func (r *RedisTodoRepo) UpdateMany(ctx context.Context, patches map[string]dom.TodoPatch) ([]dom.Todo, error) {
	timer := metrics.TrackStoreOperation("redis", "update")
	defer timer.ObserveDuration()

	if len(patches) == 0 {
		return []dom.Todo{}, nil
	}
	ids := sortedIDs(patches)
	var out []dom.Todo

	txf := func(tx *redis.Tx) error {
		vals, err := tx.HMGet(ctx, r.recordsKey, ids...).Result()
		if err != nil {
			return err
		}
		found := make(map[string]dom.Todo, len(ids))
		for i, v := range vals {
			s, ok := v.(string)
			if !ok {
				continue
			}
			t, err := decodeRedisTodo(s)
			if err != nil {
				return fmt.Errorf("todo %s: %w", ids[i], err)
			}
			found[ids[i]] = t
		}
		if miss := missing(ids, found); len(miss) > 0 {
			return &NotFoundError{IDs: miss}
		}

		at := now()
		updated := make([]dom.Todo, 0, len(ids))
		fields := make([]interface{}, 0, 2*len(ids))
		for _, id := range ids {
			t := found[id]
			applyPatch(&t, patches[id], at)
			enc, err := encodeRedisTodo(t)
			if err != nil {
				return err
			}
			fields = append(fields, id, enc)
			updated = append(updated, t)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, r.recordsKey, fields...)
			return nil
		})
		if err != nil {
			return err
		}
		out = updated
		return nil
	}

	var err error
	for i := 0; i < redisMaxRetries; i++ {
		err = r.rdb.Watch(ctx, txf, r.recordsKey)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nil, nf
	}
	if err != nil {
		return nil, fmt.Errorf("redis update todos: %w", err)
	}
	return out, nil
}

func (r *RedisTodoRepo) Delete(ctx context.Context, id string) error {
	timer := metrics.TrackStoreOperation("redis", "delete")
	defer timer.ObserveDuration()

	var removed *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.HDel(ctx, r.recordsKey, id)
		pipe.ZRem(ctx, r.orderKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete todo: %w", err)
	}
	if removed.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

// Scan reads the insertion order and every record in one MULTI/EXEC so both views agree.
func (r *RedisTodoRepo) Scan(ctx context.Context, match query.Predicate, w query.Window) (query.Result, error) {
	timer := metrics.TrackStoreOperation("redis", "scan")
	defer timer.ObserveDuration()

	var (
		order   *redis.StringSliceCmd
		records *redis.MapStringStringCmd
	)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		order = pipe.ZRange(ctx, r.orderKey, 0, -1)
		records = pipe.HGetAll(ctx, r.recordsKey)
		return nil
	})
	if err != nil {
		return query.Result{}, fmt.Errorf("redis scan todos: %w", err)
	}

	byID := records.Val()
	list := make([]dom.Todo, 0, len(byID))
	for _, id := range order.Val() {
		s, ok := byID[id]
		if !ok {
			continue
		}
		t, err := decodeRedisTodo(s)
		if err != nil {
			return query.Result{}, fmt.Errorf("redis scan todo %s: %w", id, err)
		}
		list = append(list, t)
	}
	return query.Apply(list, match, w), nil
}

func (r *RedisTodoRepo) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *RedisTodoRepo) Close() error {
	return r.rdb.Close()
}
