package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles a user can hold.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User is an identity record. The password column holds a bcrypt hash,
// plaintext is never stored.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"unique;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Role      string    `gorm:"type:varchar(50);default:'customer'" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// RevokedSession records a revoked token by its jti claim. Rows past their
// expiry are dead weight only; validation checks the token expiry first.
type RevokedSession struct {
	TokenID   string    `gorm:"primaryKey" json:"token_id"`
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Migrate runs auto migration for all persistent models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &RevokedSession{}, &Product{}, &Order{}, &OrderItem{})
}
