package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/arnold-commerce/backend/models"
)

// Sentinel errors raised by repositories. Services translate these into the
// client-facing taxonomy; they never cross the transport boundary raw.
var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("record already exists")
	ErrVersionConflict = errors.New("version conflict")
	ErrStockExhausted  = errors.New("stock would go negative")
)

// UserRepository owns identity records.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SessionRepository is the token revocation list. Revoke is idempotent.
// Revocations live in the backing store, so with the in-memory backend they
// do not survive a process restart.
type SessionRepository interface {
	Revoke(ctx context.Context, tokenID string, userID uuid.UUID, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// CatalogRepository owns product stock and price. AdjustStock is the single
// atomic primitive: the version check and the non-negative stock check happen
// as one indivisible step, whatever the backend.
type CatalogRepository interface {
	Get(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	// AdjustStock applies delta when version matches expectedVersion and
	// stock+delta >= 0, returning the new version. Fails with ErrNotFound,
	// ErrVersionConflict or ErrStockExhausted.
	AdjustStock(ctx context.Context, productID uuid.UUID, delta int, expectedVersion int64) (int64, error)
	// Save provisions or replaces a product record. Catalog management has no
	// HTTP surface here; this exists for seeding and stock provisioning.
	Save(ctx context.Context, product *models.Product) error
}

// CartRepository stores one cart per user. Get returns (nil, nil) when the
// user has no cart yet.
type CartRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

// OrderRepository stores immutable checkout outcomes.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error)
}
