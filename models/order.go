package models

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses.
const (
	OrderPlaced = "PLACED"
	OrderFailed = "FAILED"
)

// Order is an immutable snapshot of a checkout outcome. Unit prices are the
// ones captured during checkout validation; later catalog price changes never
// touch historical orders.
type Order struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_id"`
	Status      string      `gorm:"type:varchar(20);not null" json:"status"`
	FailureCode string      `gorm:"type:varchar(40)" json:"failure_code,omitempty"`
	TotalCents  int64       `gorm:"not null" json:"total_cents"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`
	Items       []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

// OrderItem is one committed line of an order.
type OrderItem struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	OrderID        uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`
	Quantity       int       `gorm:"not null" json:"quantity"`
	UnitPriceCents int64     `gorm:"not null" json:"unit_price_cents"`
}
