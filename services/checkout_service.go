package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/arnold-commerce/backend/apperrors"
	"github.com/arnold-commerce/backend/logger"
	"github.com/arnold-commerce/backend/models"
	"github.com/arnold-commerce/backend/repository"
)

// checkoutLine is one cart line with the price and stock version captured
// during validation. The captured price is the one the order records.
type checkoutLine struct {
	ProductID  uuid.UUID
	Quantity   int
	PriceCents int64
	Version    int64
}

// CheckoutService turns a cart into a committed order. It is the only place
// that performs cross-entity mutation: stock decrements plus cart clearing.
//
// An attempt walks VALIDATING (snapshot cart, fetch price/stock/version per
// line) then RESERVING (versioned decrements in ascending product-id order).
// A version conflict restarts the whole attempt with fresh snapshots, bounded
// by maxRetries; stock shortage or retry exhaustion aborts with every
// already-applied decrement compensated, so a failed checkout never leaves
// partial stock damage.
type CheckoutService struct {
	carts      repository.CartRepository
	catalog    repository.CatalogRepository
	orders     repository.OrderRepository
	maxRetries uint64
}

func NewCheckoutService(carts repository.CartRepository, catalog repository.CatalogRepository, orders repository.OrderRepository, maxRetries int) *CheckoutService {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &CheckoutService{
		carts:      carts,
		catalog:    catalog,
		orders:     orders,
		maxRetries: uint64(maxRetries),
	}
}

// Checkout runs the state machine for the user's cart. On success the
// returned order is PLACED and the cart is cleared; on failure the cart and
// all stock counts are exactly as they were before the call.
func (s *CheckoutService) Checkout(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	var (
		placed    *models.Order
		lastLines []checkoutLine
	)

	backoff := retry.WithMaxRetries(s.maxRetries, retry.NewConstant(2*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		order, lines, err := s.attempt(ctx, userID)
		if len(lines) > 0 {
			lastLines = lines
		}
		if err != nil {
			if apperrors.CodeOf(err) == apperrors.CodeVersionConflict {
				return retry.RetryableError(err)
			}
			return err
		}
		placed = order
		return nil
	})
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeVersionConflict {
			err = apperrors.New(apperrors.KindConflict, apperrors.CodeContentionExceeded,
				"checkout retries exhausted under contention")
		}
		s.recordFailure(ctx, userID, lastLines, err)
		return nil, err
	}
	return placed, nil
}

func (s *CheckoutService) attempt(ctx context.Context, userID uuid.UUID) (*models.Order, []checkoutLine, error) {
	// VALIDATING: snapshot the cart and the catalog state per line.
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, nil, apperrors.New(apperrors.KindValidation, "", "cart is empty")
	}

	lines := make([]checkoutLine, 0, len(cart.Items))
	var offending []string
	for _, item := range cart.Items {
		product, err := s.catalog.Get(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				offending = append(offending, item.ProductID.String())
				continue
			}
			return nil, nil, apperrors.Internal(err)
		}
		if item.Quantity > product.Stock {
			offending = append(offending, item.ProductID.String())
			continue
		}
		lines = append(lines, checkoutLine{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			PriceCents: product.PriceCents,
			Version:    product.Version,
		})
	}
	if len(offending) > 0 {
		return nil, lines, insufficientStock(offending)
	}

	// RESERVING: decrement in ascending product-id order so overlapping
	// concurrent checkouts contend in the same sequence.
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].ProductID.String() < lines[j].ProductID.String()
	})

	applied := make([]checkoutLine, 0, len(lines))
	for _, line := range lines {
		_, err := s.catalog.AdjustStock(ctx, line.ProductID, -line.Quantity, line.Version)
		if err != nil {
			s.compensate(ctx, applied)
			switch {
			case errors.Is(err, repository.ErrVersionConflict):
				return nil, lines, apperrors.New(apperrors.KindConflict, apperrors.CodeVersionConflict, "stock version conflict")
			case errors.Is(err, repository.ErrStockExhausted), errors.Is(err, repository.ErrNotFound):
				return nil, lines, insufficientStock([]string{line.ProductID.String()})
			default:
				return nil, lines, apperrors.Internal(err)
			}
		}
		applied = append(applied, line)
	}

	// COMMITTED: persist the order before clearing the cart, so a crash in
	// between never loses the purchase record.
	order := s.buildOrder(userID, lines, models.OrderPlaced, "")
	if err := s.orders.Create(ctx, order); err != nil {
		s.compensate(ctx, applied)
		return nil, lines, apperrors.Internal(err)
	}

	if err := s.carts.Delete(ctx, userID); err != nil {
		// The order is committed and stock is decremented; a stale cart is
		// recoverable, losing the order is not.
		logger.Warn(ctx, "cart clear after checkout failed", zap.String("user_id", userID.String()), zap.Error(err))
	}

	logger.Info(ctx, "checkout committed",
		zap.String("user_id", userID.String()),
		zap.String("order_id", order.ID.String()),
		zap.Int64("total_cents", order.TotalCents),
	)
	return order, lines, nil
}

// compensate re-adds stock for every line already decremented in this
// attempt. Each compensation is its own CAS loop: a conflicting writer only
// means the version moved, the positive delta can always be applied.
func (s *CheckoutService) compensate(ctx context.Context, applied []checkoutLine) {
	for i := len(applied) - 1; i >= 0; i-- {
		line := applied[i]
		var err error
		for range [8]struct{}{} {
			var product *models.Product
			product, err = s.catalog.Get(ctx, line.ProductID)
			if err != nil {
				break
			}
			_, err = s.catalog.AdjustStock(ctx, line.ProductID, line.Quantity, product.Version)
			if err == nil || !errors.Is(err, repository.ErrVersionConflict) {
				break
			}
		}
		if err != nil {
			logger.Error(ctx, "stock compensation failed", err,
				zap.String("product_id", line.ProductID.String()),
				zap.Int("quantity", line.Quantity),
			)
		}
	}
}

func (s *CheckoutService) buildOrder(userID uuid.UUID, lines []checkoutLine, status, failureCode string) *models.Order {
	order := &models.Order{
		ID:          uuid.New(),
		UserID:      userID,
		Status:      status,
		FailureCode: failureCode,
		CreatedAt:   time.Now().UTC(),
	}
	for _, line := range lines {
		order.Items = append(order.Items, models.OrderItem{
			ID:             uuid.New(),
			OrderID:        order.ID,
			ProductID:      line.ProductID,
			Quantity:       line.Quantity,
			UnitPriceCents: line.PriceCents,
		})
		order.TotalCents += line.PriceCents * int64(line.Quantity)
	}
	return order
}

// recordFailure persists a FAILED order row for observability. Best-effort:
// the checkout outcome does not depend on it, and the cart stays untouched.
func (s *CheckoutService) recordFailure(ctx context.Context, userID uuid.UUID, lines []checkoutLine, cause error) {
	code := apperrors.CodeOf(cause)
	if code == "" || apperrors.KindOf(cause) == apperrors.KindValidation {
		return
	}
	order := s.buildOrder(userID, lines, models.OrderFailed, string(code))
	if err := s.orders.Create(ctx, order); err != nil {
		logger.Warn(ctx, "failed order record not persisted", zap.Error(err))
	}
}

func insufficientStock(productIDs []string) *apperrors.Error {
	return apperrors.New(apperrors.KindConflict, apperrors.CodeInsufficientStock, "insufficient stock").
		WithDetails(map[string]interface{}{"product_ids": productIDs})
}
