package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnold-commerce/backend/models"
)

func TestMemoryCatalogAdjustStock(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryCatalogRepository()
	productID := uuid.New()
	require.NoError(t, repo.Save(ctx, &models.Product{ID: productID, Name: "widget", PriceCents: 500, Stock: 10, Version: 0}))

	t.Run("unknown product", func(t *testing.T) {
		_, err := repo.AdjustStock(ctx, uuid.New(), -1, 0)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("decrement bumps version", func(t *testing.T) {
		newVersion, err := repo.AdjustStock(ctx, productID, -4, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), newVersion)

		product, err := repo.Get(ctx, productID)
		require.NoError(t, err)
		assert.Equal(t, 6, product.Stock)
		assert.Equal(t, int64(1), product.Version)
	})

	t.Run("stale version rejected", func(t *testing.T) {
		_, err := repo.AdjustStock(ctx, productID, -1, 0)
		assert.ErrorIs(t, err, ErrVersionConflict)

		product, err := repo.Get(ctx, productID)
		require.NoError(t, err)
		assert.Equal(t, 6, product.Stock)
	})

	t.Run("never goes negative", func(t *testing.T) {
		_, err := repo.AdjustStock(ctx, productID, -7, 1)
		assert.ErrorIs(t, err, ErrStockExhausted)

		product, err := repo.Get(ctx, productID)
		require.NoError(t, err)
		assert.Equal(t, 6, product.Stock)
		assert.Equal(t, int64(1), product.Version)
	})

	t.Run("positive delta restores stock", func(t *testing.T) {
		newVersion, err := repo.AdjustStock(ctx, productID, 4, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), newVersion)

		product, err := repo.Get(ctx, productID)
		require.NoError(t, err)
		assert.Equal(t, 10, product.Stock)
	})
}

// Concurrent CAS loops against one product must account for every unit:
// exactly stock successes, everything else a conflict or exhaustion.
func TestMemoryCatalogConcurrentAdjust(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryCatalogRepository()
	productID := uuid.New()
	const stock = 8
	const workers = 30
	require.NoError(t, repo.Save(ctx, &models.Product{ID: productID, Name: "widget", PriceCents: 500, Stock: stock}))

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				product, err := repo.Get(ctx, productID)
				if err != nil {
					return
				}
				if product.Stock == 0 {
					return
				}
				_, err = repo.AdjustStock(ctx, productID, -1, product.Version)
				if err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
					return
				}
				if err == ErrStockExhausted {
					return
				}
				// version conflict: re-read and retry
			}
		}()
	}
	wg.Wait()

	product, err := repo.Get(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 0, product.Stock)
	assert.Equal(t, stock, succeeded)
}

func TestMemorySessionRepositoryIdempotentRevoke(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository()
	userID := uuid.New()

	revoked, err := repo.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, repo.Revoke(ctx, "jti-1", userID, time.Now().Add(time.Hour)))
	require.NoError(t, repo.Revoke(ctx, "jti-1", userID, time.Now().Add(time.Hour)))

	revoked, err = repo.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestMemoryUserRepositoryDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	first := &models.User{ID: uuid.New(), Email: "a@example.com"}
	require.NoError(t, repo.Create(ctx, first))

	dup := &models.User{ID: uuid.New(), Email: "A@Example.com"}
	assert.ErrorIs(t, repo.Create(ctx, dup), ErrDuplicate)

	found, err := repo.FindByEmail(ctx, "A@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}

func TestMemoryCartRepositoryCopiesItems(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryCartRepository()
	userID := uuid.New()
	productID := uuid.New()

	cart := &models.Cart{UserID: userID, Items: []models.CartItem{{ProductID: productID, Quantity: 2}}}
	require.NoError(t, repo.Save(ctx, cart))

	// mutating the returned cart must not leak back into the store
	loaded, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	loaded.Items[0].Quantity = 99

	reloaded, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Items[0].Quantity)
}
