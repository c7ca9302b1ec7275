package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/arnold-commerce/backend/apperrors"
	"github.com/arnold-commerce/backend/models"
	"github.com/arnold-commerce/backend/repository"
)

// OrderPage is a paginated slice of a user's order history.
type OrderPage struct {
	Orders []models.Order `json:"orders"`
	Meta   PageMeta       `json:"meta"`
}

type PageMeta struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalOrders int64 `json:"total_orders"`
	HasMore     bool  `json:"has_more"`
}

// OrderService is a read-only view over committed checkout outcomes.
type OrderService struct {
	orders repository.OrderRepository
}

func NewOrderService(orders repository.OrderRepository) *OrderService {
	return &OrderService{orders: orders}
}

// ListForUser returns the caller's orders, newest first.
func (s *OrderService) ListForUser(ctx context.Context, userID uuid.UUID, page, limit int) (*OrderPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	orders, total, err := s.orders.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &OrderPage{
		Orders: orders,
		Meta: PageMeta{
			Page:        page,
			Limit:       limit,
			TotalOrders: total,
			HasMore:     total > int64(page*limit),
		},
	}, nil
}
