package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/arnold-commerce/backend/apperrors"
	"github.com/arnold-commerce/backend/models"
	"github.com/arnold-commerce/backend/repository"
)

// CartLine is one priced line of a cart view. Prices are the *current*
// catalog prices; checkout re-prices, so the displayed total may differ from
// the final order total.
type CartLine struct {
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name,omitempty"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	SubtotalCents  int64     `json:"subtotal_cents"`
	Unavailable    bool      `json:"unavailable,omitempty"`
}

// CartView is the priced cart returned to clients.
type CartView struct {
	UserID     uuid.UUID  `json:"user_id"`
	Items      []CartLine `json:"items"`
	TotalCents int64      `json:"total_cents"`
}

// CartService owns per-user cart state. The cart key is always the
// authenticated user id; no operation accepts a client-supplied owner, so one
// user can never reach another user's cart through this API.
type CartService struct {
	carts      repository.CartRepository
	catalog    repository.CatalogRepository
	maxPerItem int
}

func NewCartService(carts repository.CartRepository, catalog repository.CatalogRepository, maxPerItem int) *CartService {
	if maxPerItem <= 0 {
		maxPerItem = 25
	}
	return &CartService{carts: carts, catalog: catalog, maxPerItem: maxPerItem}
}

func (s *CartService) load(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if cart == nil {
		cart = &models.Cart{UserID: userID, Items: []models.CartItem{}}
	}
	return cart, nil
}

// AddItem puts quantity units of a product into the user's cart, merging with
// an existing line. Stock is not checked here (soft-add): reservation happens
// at checkout. Quantity is clamped to the configured per-item maximum.
func (s *CartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, apperrors.New(apperrors.KindValidation, apperrors.CodeInvalidQuantity, "quantity must be a positive integer")
	}
	if _, err := s.catalog.Get(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errProductNotFound
		}
		return nil, apperrors.Internal(err)
	}

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if i := cart.Item(productID); i >= 0 {
		cart.Items[i].Quantity += quantity
		if cart.Items[i].Quantity > s.maxPerItem {
			cart.Items[i].Quantity = s.maxPerItem
		}
	} else {
		if quantity > s.maxPerItem {
			quantity = s.maxPerItem
		}
		cart.Items = append(cart.Items, models.CartItem{ProductID: productID, Quantity: quantity})
	}

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, apperrors.Internal(err)
	}
	return s.price(ctx, cart)
}

// UpdateItem replaces the quantity of an existing cart line.
func (s *CartService) UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, apperrors.New(apperrors.KindValidation, apperrors.CodeInvalidQuantity, "quantity must be a positive integer")
	}

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	i := cart.Item(productID)
	if i < 0 {
		return nil, apperrors.New(apperrors.KindNotFound, "", "item not in cart")
	}
	if quantity > s.maxPerItem {
		quantity = s.maxPerItem
	}
	cart.Items[i].Quantity = quantity

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, apperrors.Internal(err)
	}
	return s.price(ctx, cart)
}

// RemoveItem drops a cart line. Removing an absent item is a no-op.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartView, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	i := cart.Item(productID)
	if i >= 0 {
		cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		if err := s.carts.Save(ctx, cart); err != nil {
			return nil, apperrors.Internal(err)
		}
	}
	return s.price(ctx, cart)
}

// Clear empties the user's cart. Idempotent.
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.carts.Delete(ctx, userID); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// GetCart returns the user's cart priced at current catalog prices.
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.price(ctx, cart)
}

func (s *CartService) price(ctx context.Context, cart *models.Cart) (*CartView, error) {
	view := &CartView{UserID: cart.UserID, Items: make([]CartLine, 0, len(cart.Items))}

	for _, item := range cart.Items {
		line := CartLine{ProductID: item.ProductID, Quantity: item.Quantity}
		product, err := s.catalog.Get(ctx, item.ProductID)
		switch {
		case err == nil:
			line.Name = product.Name
			line.UnitPriceCents = product.PriceCents
			line.SubtotalCents = product.PriceCents * int64(item.Quantity)
		case errors.Is(err, repository.ErrNotFound):
			// product removed from catalog while in a cart; keep the line
			// visible so checkout can report it
			line.Unavailable = true
		default:
			return nil, apperrors.Internal(err)
		}
		view.TotalCents += line.SubtotalCents
		view.Items = append(view.Items, line)
	}
	return view, nil
}
