package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is a product reference with a requested quantity. Quantity is not
// validated against live stock on add (soft-add); checkout re-validates.
type CartItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// Cart is owned one-to-one by a user and stored as a JSON value in Redis.
// Carts persist independently of the session: logout or token expiry does not
// clear them, only checkout success, an explicit clear, or the store TTL.
type Cart struct {
	UserID    uuid.UUID  `json:"user_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Item returns the index of productID in Items, or -1.
func (c *Cart) Item(productID uuid.UUID) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}
