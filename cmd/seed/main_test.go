package main

import (
	"context"
	"testing"
	"time"

	"github.com/birlikkoshan/todo-api/internal/query"
	"github.com/birlikkoshan/todo-api/internal/repo"
	"github.com/birlikkoshan/todo-api/internal/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSeed(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemTodoRepo()
	now := time.Now()

	n, err := seed(ctx, store, zap.NewNop(), false, now)
	require.NoError(t, err)
	assert.Equal(t, len(samples(now)), n)

	res, err := store.Scan(ctx, query.All, query.Window{})
	require.NoError(t, err)
	st := stats.Compute(res.Items, now)
	assert.Equal(t, 10, st.Total)
	assert.Equal(t, 2, st.Completed)
	assert.Equal(t, 0, st.Overdue, "past-due samples are completed")
	assert.Equal(t, 3, st.ByTag["learning"])

	n, err = seed(ctx, store, zap.NewNop(), false, now)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = seed(ctx, store, zap.NewNop(), true, now)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	res, err = store.Scan(ctx, query.All, query.Window{})
	require.NoError(t, err)
	assert.Equal(t, 10, res.Total)
}
