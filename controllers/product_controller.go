package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnold-commerce/backend/apperrors"
	"github.com/arnold-commerce/backend/services"
)

// ProductController exposes read-only catalog views. Catalog mutation has no
// HTTP surface in this service.
type ProductController struct {
	catalog *services.CatalogService
}

func NewProductController(catalog *services.CatalogService) *ProductController {
	return &ProductController{catalog: catalog}
}

// List returns all products.
func (pc *ProductController) List(c *gin.Context) {
	products, err := pc.catalog.List(c)
	if err != nil {
		apperrors.Fail(c, err)
		return
	}
	apperrors.OK(c, http.StatusOK, products)
}

// Get returns one product's availability snapshot.
func (pc *ProductController) Get(c *gin.Context) {
	productID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	availability, err := pc.catalog.GetAvailable(c, productID)
	if err != nil {
		apperrors.Fail(c, err)
		return
	}
	apperrors.OK(c, http.StatusOK, availability)
}
