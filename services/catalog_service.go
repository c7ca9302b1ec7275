package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/arnold-commerce/backend/apperrors"
	"github.com/arnold-commerce/backend/models"
	"github.com/arnold-commerce/backend/repository"
)

var errProductNotFound = apperrors.New(apperrors.KindNotFound, apperrors.CodeProductNotFound, "product not found")

// CatalogService exposes read views and the atomic stock primitive, mapping
// repository sentinels into the client-facing taxonomy.
type CatalogService struct {
	repo repository.CatalogRepository
}

func NewCatalogService(repo repository.CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

// GetAvailable returns the (price, stock, version) snapshot for a product.
func (s *CatalogService) GetAvailable(ctx context.Context, productID uuid.UUID) (*models.Availability, error) {
	product, err := s.repo.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errProductNotFound
		}
		return nil, apperrors.Internal(err)
	}
	return &models.Availability{
		ProductID:  product.ID,
		Name:       product.Name,
		PriceCents: product.PriceCents,
		Stock:      product.Stock,
		Version:    product.Version,
	}, nil
}

// List returns all products.
func (s *CatalogService) List(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return products, nil
}

// AdjustStock applies a versioned stock delta. VERSION_CONFLICT and
// INSUFFICIENT_STOCK surface as CONFLICT so callers can re-read and retry.
func (s *CatalogService) AdjustStock(ctx context.Context, productID uuid.UUID, delta int, expectedVersion int64) (int64, error) {
	newVersion, err := s.repo.AdjustStock(ctx, productID, delta, expectedVersion)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return 0, errProductNotFound
		case errors.Is(err, repository.ErrVersionConflict):
			return 0, apperrors.New(apperrors.KindConflict, apperrors.CodeVersionConflict, "stock version conflict")
		case errors.Is(err, repository.ErrStockExhausted):
			return 0, apperrors.New(apperrors.KindConflict, apperrors.CodeInsufficientStock, "insufficient stock")
		default:
			return 0, apperrors.Internal(err)
		}
	}
	return newVersion, nil
}

// Provision seeds or replaces a product record. There is no HTTP surface for
// this; catalog management lives outside this core.
func (s *CatalogService) Provision(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if err := s.repo.Save(ctx, product); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}
