package application

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/domain"
)

func TestLockTokenCarriesOperationAndIsUnique(t *testing.T) {
	t.Parallel()

	at := time.Now().UTC()
	first := newLockToken("MATCHED", at)
	second := newLockToken("MATCHED", at)

	require.True(t, strings.HasPrefix(first, "MATCHED:"))
	require.NotEqual(t, first, second)
}

func TestLockAcquireAndRelease(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	item := f.seedItem(domain.StatusNew)

	token, err := f.service.locks.acquire(ctx, item.LineItemID, "VALIDATED")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Second acquisition is refused while the first holds the row.
	blocked, err := f.service.locks.acquire(ctx, item.LineItemID, "VALIDATED")
	require.NoError(t, err)
	require.Empty(t, blocked)

	f.service.locks.release(ctx, item.LineItemID, token)

	reacquired, err := f.service.locks.acquire(ctx, item.LineItemID, "VALIDATED")
	require.NoError(t, err)
	require.NotEmpty(t, reacquired)
}

func TestReleaseWithStaleTokenLeavesLockAlone(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	item := f.seedItem(domain.StatusNew)

	token, err := f.service.locks.acquire(ctx, item.LineItemID, "VALIDATED")
	require.NoError(t, err)

	// A caller whose lock was swept must not clear the new holder's token.
	f.service.locks.release(ctx, item.LineItemID, "VALIDATED:0:stale")

	stored, err := f.store.GetByID(ctx, item.LineItemID)
	require.NoError(t, err)
	require.True(t, stored.Locked())
	require.Equal(t, token, *stored.LockToken)
}
