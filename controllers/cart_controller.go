package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/arnold-commerce/backend/apperrors"
	"github.com/arnold-commerce/backend/middleware"
	"github.com/arnold-commerce/backend/services"
)

type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required"`
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// CartController translates HTTP requests into cart-engine and checkout
// calls. The cart owner is always the authenticated identity; client-supplied
// user ids are never accepted.
type CartController struct {
	carts    *services.CartService
	checkout *services.CheckoutService
}

func NewCartController(carts *services.CartService, checkout *services.CheckoutService) *CartController {
	return &CartController{carts: carts, checkout: checkout}
}

// GetCart returns the caller's cart priced at current catalog prices.
func (cc *CartController) GetCart(c *gin.Context) {
	identity, _ := middleware.IdentityFrom(c)

	cart, err := cc.carts.GetCart(c, identity.UserID)
	if err != nil {
		apperrors.Fail(c, err)
		return
	}
	apperrors.OK(c, http.StatusOK, cart)
}

// AddItem adds or merges a line into the caller's cart.
func (cc *CartController) AddItem(c *gin.Context) {
	var req AddItemRequest
	if !bindJSON(c, &req) {
		return
	}
	identity, _ := middleware.IdentityFrom(c)

	cart, err := cc.carts.AddItem(c, identity.UserID, req.ProductID, req.Quantity)
	if err != nil {
		apperrors.Fail(c, err)
		return
	}
	apperrors.OK(c, http.StatusOK, cart)
}

// UpdateItem replaces the quantity of an existing line.
func (cc *CartController) UpdateItem(c *gin.Context) {
	productID, ok := pathUUID(c, "productId")
	if !ok {
		return
	}
	var req UpdateItemRequest
	if !bindJSON(c, &req) {
		return
	}
	identity, _ := middleware.IdentityFrom(c)

	cart, err := cc.carts.UpdateItem(c, identity.UserID, productID, req.Quantity)
	if err != nil {
		apperrors.Fail(c, err)
		return
	}
	apperrors.OK(c, http.StatusOK, cart)
}

// RemoveItem drops a line from the caller's cart; absent lines are a no-op.
func (cc *CartController) RemoveItem(c *gin.Context) {
	productID, ok := pathUUID(c, "productId")
	if !ok {
		return
	}
	identity, _ := middleware.IdentityFrom(c)

	cart, err := cc.carts.RemoveItem(c, identity.UserID, productID)
	if err != nil {
		apperrors.Fail(c, err)
		return
	}
	apperrors.OK(c, http.StatusOK, cart)
}

// Clear empties the caller's cart.
func (cc *CartController) Clear(c *gin.Context) {
	identity, _ := middleware.IdentityFrom(c)

	if err := cc.carts.Clear(c, identity.UserID); err != nil {
		apperrors.Fail(c, err)
		return
	}
	apperrors.OK(c, http.StatusOK, gin.H{"message": "cart cleared"})
}

// Checkout commits the caller's cart into an order.
func (cc *CartController) Checkout(c *gin.Context) {
	identity, _ := middleware.IdentityFrom(c)

	order, err := cc.checkout.Checkout(c, identity.UserID)
	if err != nil {
		apperrors.Fail(c, err)
		return
	}
	apperrors.OK(c, http.StatusCreated, order)
}
