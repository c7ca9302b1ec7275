package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arnold-commerce/backend/models"
)

// In-memory backends. Used for local development without external stores and
// by the test suite; they honor the same contracts as the Postgres, Redis and
// DynamoDB implementations.

// MemoryUserRepository implements UserRepository with a mutex-guarded map.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[uuid.UUID]models.User)}
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	user := u
	return &user, nil
}

func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicate
		}
	}
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return ErrNotFound
	}
	user.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

// MemorySessionRepository is the in-process revocation list. It starts empty
// and is cleared on restart; revocations do not survive the process.
type MemorySessionRepository struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{revoked: make(map[string]time.Time)}
}

func (r *MemorySessionRepository) Revoke(_ context.Context, tokenID string, _ uuid.UUID, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[tokenID] = expiresAt
	return nil
}

func (r *MemorySessionRepository) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.revoked[tokenID]
	return ok, nil
}

// MemoryCatalogRepository implements CatalogRepository with one mutex per
// product, so adjustments on different products never serialize against each
// other. The per-product lock makes the version check and the stock write a
// single indivisible step.
type MemoryCatalogRepository struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*catalogEntry
}

type catalogEntry struct {
	mu      sync.Mutex
	product models.Product
}

func NewMemoryCatalogRepository() *MemoryCatalogRepository {
	return &MemoryCatalogRepository{entries: make(map[uuid.UUID]*catalogEntry)}
}

func (r *MemoryCatalogRepository) entry(productID uuid.UUID) (*catalogEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[productID]
	return e, ok
}

func (r *MemoryCatalogRepository) Get(_ context.Context, productID uuid.UUID) (*models.Product, error) {
	e, ok := r.entry(productID)
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	product := e.product
	return &product, nil
}

func (r *MemoryCatalogRepository) List(_ context.Context) ([]models.Product, error) {
	r.mu.RLock()
	entries := make([]*catalogEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	products := make([]models.Product, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		products = append(products, e.product)
		e.mu.Unlock()
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func (r *MemoryCatalogRepository) AdjustStock(_ context.Context, productID uuid.UUID, delta int, expectedVersion int64) (int64, error) {
	e, ok := r.entry(productID)
	if !ok {
		return 0, ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.product.Version != expectedVersion {
		return 0, ErrVersionConflict
	}
	if e.product.Stock+delta < 0 {
		return 0, ErrStockExhausted
	}
	e.product.Stock += delta
	e.product.Version++
	e.product.UpdatedAt = time.Now().UTC()
	return e.product.Version, nil
}

func (r *MemoryCatalogRepository) Save(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[product.ID]; ok {
		e.mu.Lock()
		e.product = *product
		e.mu.Unlock()
		return nil
	}
	r.entries[product.ID] = &catalogEntry{product: *product}
	return nil
}

// MemoryCartRepository implements CartRepository with a mutex-guarded map.
// Carts are partitioned by user id, so there is no cross-user contention.
type MemoryCartRepository struct {
	mu    sync.RWMutex
	carts map[uuid.UUID]models.Cart
}

func NewMemoryCartRepository() *MemoryCartRepository {
	return &MemoryCartRepository{carts: make(map[uuid.UUID]models.Cart)}
}

func (r *MemoryCartRepository) Get(_ context.Context, userID uuid.UUID) (*models.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.carts[userID]
	if !ok {
		return nil, nil
	}
	cart := c
	cart.Items = append([]models.CartItem(nil), c.Items...)
	return &cart, nil
}

func (r *MemoryCartRepository) Save(_ context.Context, cart *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart.UpdatedAt = time.Now().UTC()
	stored := *cart
	stored.Items = append([]models.CartItem(nil), cart.Items...)
	r.carts[cart.UserID] = stored
	return nil
}

func (r *MemoryCartRepository) Delete(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, userID)
	return nil
}

// MemoryOrderRepository implements OrderRepository with a mutex-guarded slice.
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders []models.Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{}
}

func (r *MemoryOrderRepository) Create(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	stored := *order
	stored.Items = append([]models.OrderItem(nil), order.Items...)
	r.orders = append(r.orders, stored)
	return nil
}

func (r *MemoryOrderRepository) FindByUserID(_ context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var mine []models.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			mine = append(mine, o)
		}
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) })

	total := int64(len(mine))
	start := (page - 1) * limit
	if start >= len(mine) {
		return []models.Order{}, total, nil
	}
	end := start + limit
	if end > len(mine) {
		end = len(mine)
	}
	return mine[start:end], total, nil
}
