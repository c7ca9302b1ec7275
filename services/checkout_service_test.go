package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnold-commerce/backend/apperrors"
	"github.com/arnold-commerce/backend/models"
	"github.com/arnold-commerce/backend/repository"
)

type checkoutFixture struct {
	catalog  *repository.MemoryCatalogRepository
	carts    *repository.MemoryCartRepository
	orders   *repository.MemoryOrderRepository
	cart     *CartService
	checkout *CheckoutService
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	f := &checkoutFixture{
		catalog: repository.NewMemoryCatalogRepository(),
		carts:   repository.NewMemoryCartRepository(),
		orders:  repository.NewMemoryOrderRepository(),
	}
	f.cart = NewCartService(f.carts, f.catalog, 100)
	f.checkout = NewCheckoutService(f.carts, f.catalog, f.orders, 3)
	return f
}

func (f *checkoutFixture) stockOf(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	product, err := f.catalog.Get(context.Background(), productID)
	require.NoError(t, err)
	return product.Stock
}

func TestCheckoutCommits(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	userID := uuid.New()
	widgetID := seedProduct(t, f.catalog, "widget", 500, 10)
	gadgetID := seedProduct(t, f.catalog, "gadget", 1250, 4)

	_, err := f.cart.AddItem(ctx, userID, widgetID, 3)
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, userID, gadgetID, 2)
	require.NoError(t, err)

	order, err := f.checkout.Checkout(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, models.OrderPlaced, order.Status)
	assert.Equal(t, int64(3*500+2*1250), order.TotalCents)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, 7, f.stockOf(t, widgetID))
	assert.Equal(t, 2, f.stockOf(t, gadgetID))

	// cart cleared only on success
	cart, err := f.cart.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.checkout.Checkout(context.Background(), uuid.New())
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestCheckoutInsufficientStockNamesProduct(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	userID := uuid.New()
	widgetID := seedProduct(t, f.catalog, "widget", 500, 3)
	gadgetID := seedProduct(t, f.catalog, "gadget", 1250, 4)

	// soft-add lets the quantity exceed stock; checkout must catch it
	_, err := f.cart.AddItem(ctx, userID, widgetID, 5)
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, userID, gadgetID, 2)
	require.NoError(t, err)

	_, err = f.checkout.Checkout(ctx, userID)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInsufficientStock, apperrors.CodeOf(err))
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	appErr := apperrors.From(err)
	require.NotNil(t, appErr.Details)
	assert.Contains(t, appErr.Details["product_ids"], widgetID.String())
	assert.NotContains(t, appErr.Details["product_ids"], gadgetID.String())

	// nothing proceeded partially: stock untouched, cart intact
	assert.Equal(t, 3, f.stockOf(t, widgetID))
	assert.Equal(t, 4, f.stockOf(t, gadgetID))
	cart, err := f.cart.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
}

func TestCheckoutVanishedProduct(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	userID := uuid.New()
	widgetID := seedProduct(t, f.catalog, "widget", 500, 3)

	_, err := f.cart.AddItem(ctx, userID, widgetID, 1)
	require.NoError(t, err)

	// product removed from the catalog after being carted
	fresh := repository.NewMemoryCatalogRepository()
	checkout := NewCheckoutService(f.carts, fresh, f.orders, 3)

	_, err = checkout.Checkout(ctx, userID)
	assert.Equal(t, apperrors.CodeInsufficientStock, apperrors.CodeOf(err))
}

func TestCheckoutPriceSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	userID := uuid.New()
	widgetID := seedProduct(t, f.catalog, "widget", 500, 10)

	_, err := f.cart.AddItem(ctx, userID, widgetID, 2)
	require.NoError(t, err)

	order, err := f.checkout.Checkout(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, int64(1000), order.TotalCents)

	// a later price change must not alter the committed order
	product, err := f.catalog.Get(ctx, widgetID)
	require.NoError(t, err)
	product.PriceCents = 9999
	require.NoError(t, f.catalog.Save(ctx, product))

	orders, _, err := f.orders.FindByUserID(ctx, userID, 1, 10)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(1000), orders[0].TotalCents)
	assert.Equal(t, int64(500), orders[0].Items[0].UnitPriceCents)
}

// inflatedReadCatalog reports more stock than the backing store holds for one
// product, so validation passes and the shortage only shows up during the
// reserve phase, the shape of a buyer racing in between the two steps.
type inflatedReadCatalog struct {
	repository.CatalogRepository
	inflate uuid.UUID
}

func (c *inflatedReadCatalog) Get(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := c.CatalogRepository.Get(ctx, productID)
	if err == nil && productID == c.inflate {
		product.Stock += 10
	}
	return product, err
}

func TestCheckoutRollbackOnPartialFailure(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)

	// alpha sorts before omega, so alpha is decremented first; omega's
	// shortage must roll alpha's decrement back
	alphaID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	omegaID := uuid.MustParse("99999999-9999-9999-9999-999999999999")
	require.NoError(t, f.catalog.Save(ctx, &models.Product{ID: alphaID, Name: "alpha", PriceCents: 100, Stock: 5}))
	require.NoError(t, f.catalog.Save(ctx, &models.Product{ID: omegaID, Name: "omega", PriceCents: 100, Stock: 1}))

	userID := uuid.New()
	_, err := f.cart.AddItem(ctx, userID, alphaID, 2)
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, userID, omegaID, 3)
	require.NoError(t, err)

	checkout := NewCheckoutService(f.carts, &inflatedReadCatalog{f.catalog, omegaID}, f.orders, 3)
	_, err = checkout.Checkout(ctx, userID)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInsufficientStock, apperrors.CodeOf(err))

	// no partial stock damage: alpha's decrement was compensated
	assert.Equal(t, 5, f.stockOf(t, alphaID))
	assert.Equal(t, 1, f.stockOf(t, omegaID))

	cart, err := f.cart.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
}

func TestCheckoutConcurrentSingleUnit(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	productID := seedProduct(t, f.catalog, "rare", 500, 1)

	users := []uuid.UUID{uuid.New(), uuid.New()}
	for _, u := range users {
		_, err := f.cart.AddItem(ctx, u, productID, 1)
		require.NoError(t, err)
	}

	results := make([]error, len(users))
	var wg sync.WaitGroup
	for i, u := range users {
		wg.Add(1)
		go func(i int, u uuid.UUID) {
			defer wg.Done()
			_, results[i] = f.checkout.Checkout(ctx, u)
		}(i, u)
	}
	wg.Wait()

	var committed, failed int
	for _, err := range results {
		if err == nil {
			committed++
			continue
		}
		failed++
		code := apperrors.CodeOf(err)
		assert.Contains(t, []apperrors.Code{apperrors.CodeInsufficientStock, apperrors.CodeContentionExceeded}, code)
	}
	assert.Equal(t, 1, committed)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 0, f.stockOf(t, productID))
}

func TestCheckoutNoOverselling(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	const stock = 5
	const buyers = 20
	productID := seedProduct(t, f.catalog, "popular", 500, stock)

	users := make([]uuid.UUID, buyers)
	for i := range users {
		users[i] = uuid.New()
		_, err := f.cart.AddItem(ctx, users[i], productID, 1)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	committed := 0
	for _, u := range users {
		wg.Add(1)
		go func(u uuid.UUID) {
			defer wg.Done()
			if _, err := f.checkout.Checkout(ctx, u); err == nil {
				mu.Lock()
				committed++
				mu.Unlock()
			}
		}(u)
	}
	wg.Wait()

	remaining := f.stockOf(t, productID)
	assert.LessOrEqual(t, committed, stock)
	// committed units + remaining stock account for every provisioned unit
	assert.Equal(t, stock, committed+remaining)
}

// conflictCatalog forces every adjustment into a version conflict.
type conflictCatalog struct {
	repository.CatalogRepository
}

func (c *conflictCatalog) AdjustStock(ctx context.Context, productID uuid.UUID, delta int, expectedVersion int64) (int64, error) {
	return 0, repository.ErrVersionConflict
}

func TestCheckoutContentionExceeded(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	userID := uuid.New()
	productID := seedProduct(t, f.catalog, "widget", 500, 10)

	_, err := f.cart.AddItem(ctx, userID, productID, 1)
	require.NoError(t, err)

	checkout := NewCheckoutService(f.carts, &conflictCatalog{f.catalog}, f.orders, 3)
	_, err = checkout.Checkout(ctx, userID)

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeContentionExceeded, apperrors.CodeOf(err))
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	// a FAILED order row records the outcome; the cart is untouched
	orders, _, err := f.orders.FindByUserID(ctx, userID, 1, 10)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, models.OrderFailed, orders[0].Status)
	assert.Equal(t, string(apperrors.CodeContentionExceeded), orders[0].FailureCode)

	cart, err := f.cart.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}
