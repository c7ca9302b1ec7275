package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arnold-commerce/backend/apperrors"
	"github.com/arnold-commerce/backend/middleware"
	"github.com/arnold-commerce/backend/services"
)

// OrderController exposes the caller's order history.
type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

// List returns the caller's orders, newest first.
func (oc *OrderController) List(c *gin.Context) {
	identity, _ := middleware.IdentityFrom(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := oc.orders.ListForUser(c, identity.UserID, page, limit)
	if err != nil {
		apperrors.Fail(c, err)
		return
	}
	apperrors.OK(c, http.StatusOK, result)
}
