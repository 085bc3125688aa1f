package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/chess-vn/maia/internal/aws/storage"
	"github.com/chess-vn/maia/internal/cache"
	"github.com/chess-vn/maia/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore(t *testing.T) {
	ctx := context.Background()

	store, err := NewStore(ctx, config.Config{CacheBackend: config.CacheNone})
	require.NoError(t, err)
	assert.IsType(t, cache.Nop{}, store)

	store, err = NewStore(ctx, config.Config{CacheBackend: config.CacheBadger, CacheTTL: time.Hour})
	require.NoError(t, err)
	assert.IsType(t, &cache.BadgerStore{}, store)
	require.NoError(t, store.Close())

	t.Setenv("AWS_REGION", "ap-southeast-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	store, err = NewStore(ctx, config.Config{CacheBackend: config.CacheDynamoDB, EvaluationsTableName: "Evaluations"})
	require.NoError(t, err)
	assert.IsType(t, &storage.Client{}, store)
}

func TestNewFailsWithoutModel(t *testing.T) {
	_, err := New(context.Background(), config.Config{Workers: 1, ChunkSize: 1})
	assert.Error(t, err)
}
