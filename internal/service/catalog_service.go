package service

import (
	"context"

	"github.com/markwave/liveservices/internal/domain"
)

// CatalogStore is the persistence contract required by the catalog service.
type CatalogStore interface {
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	UpsertProduct(ctx context.Context, product domain.Product) error
}

// CatalogService exposes the read-only product catalog plus the seeding
// entry point used by the seed tool.
type CatalogService struct {
	store CatalogStore
}

// NewCatalogService constructs a CatalogService backed by the supplied store.
func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{store: store}
}

// Get fetches a single product by id.
func (s *CatalogService) Get(ctx context.Context, id string) (domain.Product, error) {
	return s.store.GetProduct(ctx, id)
}

// List returns all catalog entries.
func (s *CatalogService) List(ctx context.Context) ([]domain.Product, error) {
	return s.store.ListProducts(ctx)
}

// Seed merges a single product into the catalog.
func (s *CatalogService) Seed(ctx context.Context, product domain.Product) error {
	return s.store.UpsertProduct(ctx, product)
}
