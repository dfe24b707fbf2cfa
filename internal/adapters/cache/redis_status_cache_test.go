package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/domain"
)

func newTestCache(t *testing.T) (*RedisStatusCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStatusCache(client), mr
}

func TestStatusCachePutGetInvalidate(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)
	ctx := context.Background()

	canonicalID := "X"
	snapshot := domain.StatusSnapshot{
		LineItemID:      uuid.New(),
		Status:          domain.StatusMatched,
		RawName:         "rebar #4",
		CanonicalItemID: &canonicalID,
		CreatedAt:       time.Now().UTC().Truncate(time.Second),
	}

	require.NoError(t, c.Put(ctx, snapshot, 30*time.Second))

	got, err := c.Get(ctx, snapshot.LineItemID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, snapshot.Status, got.Status)
	require.Equal(t, snapshot.RawName, got.RawName)
	require.NotNil(t, got.CanonicalItemID)
	require.Equal(t, "X", *got.CanonicalItemID)

	require.NoError(t, c.Invalidate(ctx, snapshot.LineItemID))

	got, err = c.Get(ctx, snapshot.LineItemID)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestStatusCacheMissIsNotAnError(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)
	got, err := c.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestStatusCacheEntriesExpire(t *testing.T) {
	t.Parallel()

	c, mr := newTestCache(t)
	ctx := context.Background()

	snapshot := domain.StatusSnapshot{
		LineItemID: uuid.New(),
		Status:     domain.StatusNew,
		RawName:    "scaffold rental",
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, c.Put(ctx, snapshot, 10*time.Second))

	mr.FastForward(11 * time.Second)

	got, err := c.Get(ctx, snapshot.LineItemID)
	require.NoError(t, err)
	require.Nil(t, got)
}
