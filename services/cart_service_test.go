package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnold-commerce/backend/apperrors"
	"github.com/arnold-commerce/backend/models"
	"github.com/arnold-commerce/backend/repository"
)

func newCartFixture(t *testing.T) (*CartService, *repository.MemoryCatalogRepository, uuid.UUID) {
	t.Helper()
	catalog := repository.NewMemoryCatalogRepository()
	carts := repository.NewMemoryCartRepository()
	return NewCartService(carts, catalog, 10), catalog, uuid.New()
}

func seedProduct(t *testing.T, catalog *repository.MemoryCatalogRepository, name string, priceCents int64, stock int) uuid.UUID {
	t.Helper()
	product := &models.Product{ID: uuid.New(), Name: name, PriceCents: priceCents, Stock: stock}
	require.NoError(t, catalog.Save(context.Background(), product))
	return product.ID
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid quantity", func(t *testing.T) {
		svc, catalog, userID := newCartFixture(t)
		productID := seedProduct(t, catalog, "widget", 500, 10)

		for _, qty := range []int{0, -3} {
			_, err := svc.AddItem(ctx, userID, productID, qty)
			assert.Equal(t, apperrors.CodeInvalidQuantity, apperrors.CodeOf(err))
		}
	})

	t.Run("unknown product", func(t *testing.T) {
		svc, _, userID := newCartFixture(t)

		_, err := svc.AddItem(ctx, userID, uuid.New(), 1)
		assert.Equal(t, apperrors.CodeProductNotFound, apperrors.CodeOf(err))
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})

	t.Run("soft-add allows quantity over stock", func(t *testing.T) {
		svc, catalog, userID := newCartFixture(t)
		productID := seedProduct(t, catalog, "widget", 500, 3)

		cart, err := svc.AddItem(ctx, userID, productID, 5)
		require.NoError(t, err)
		assert.Equal(t, 5, cart.Items[0].Quantity)
	})

	t.Run("merges and clamps at max per item", func(t *testing.T) {
		svc, catalog, userID := newCartFixture(t)
		productID := seedProduct(t, catalog, "widget", 500, 100)

		_, err := svc.AddItem(ctx, userID, productID, 7)
		require.NoError(t, err)
		cart, err := svc.AddItem(ctx, userID, productID, 7)
		require.NoError(t, err)

		require.Len(t, cart.Items, 1)
		assert.Equal(t, 10, cart.Items[0].Quantity)
	})
}

func TestUpdateAndRemoveItem(t *testing.T) {
	ctx := context.Background()
	svc, catalog, userID := newCartFixture(t)
	productID := seedProduct(t, catalog, "widget", 500, 10)

	_, err := svc.UpdateItem(ctx, userID, productID, 2)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	_, err = svc.AddItem(ctx, userID, productID, 1)
	require.NoError(t, err)

	cart, err := svc.UpdateItem(ctx, userID, productID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Items[0].Quantity)

	// removal is idempotent: absent items are a no-op, not an error
	cart, err = svc.RemoveItem(ctx, userID, uuid.New())
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)

	cart, err = svc.RemoveItem(ctx, userID, productID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	cart, err = svc.RemoveItem(ctx, userID, productID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestGetCartPricing(t *testing.T) {
	ctx := context.Background()
	svc, catalog, userID := newCartFixture(t)
	widgetID := seedProduct(t, catalog, "widget", 500, 10)
	gadgetID := seedProduct(t, catalog, "gadget", 1250, 10)

	_, err := svc.AddItem(ctx, userID, widgetID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, userID, gadgetID, 1)
	require.NoError(t, err)

	cart, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2*500+1250), cart.TotalCents)

	// totals follow current catalog prices
	require.NoError(t, catalog.Save(ctx, &models.Product{ID: widgetID, Name: "widget", PriceCents: 900, Stock: 10}))
	cart, err = svc.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2*900+1250), cart.TotalCents)
}

func TestGetCartEmptyAndIsolated(t *testing.T) {
	ctx := context.Background()
	svc, catalog, alice := newCartFixture(t)
	bob := uuid.New()
	productID := seedProduct(t, catalog, "widget", 500, 10)

	_, err := svc.AddItem(ctx, alice, productID, 3)
	require.NoError(t, err)

	// bob's cart is lazily created and empty; alice's items never leak
	bobCart, err := svc.GetCart(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, bobCart.Items)

	require.NoError(t, svc.Clear(ctx, bob)) // clearing an absent cart is a no-op

	aliceCart, err := svc.GetCart(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, aliceCart.Items, 1)
}
