package models

import (
	"time"

	"github.com/google/uuid"
)

// Product holds the authoritative price and stock count for one item.
// Prices are integer minor-currency units. Version increments on every stock
// mutation and backs the optimistic-concurrency check in AdjustStock.
type Product struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	PriceCents int64     `gorm:"not null" json:"price_cents"`
	Stock      int       `gorm:"not null" json:"stock"`
	Version    int64     `gorm:"not null;default:0" json:"version"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Availability is the read snapshot checkout validates against.
type Availability struct {
	ProductID  uuid.UUID `json:"product_id"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price_cents"`
	Stock      int       `json:"stock"`
	Version    int64     `json:"version"`
}
