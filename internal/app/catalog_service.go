package app

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/romariomartinez/ApiEcommerce/internal/clock"
	"github.com/romariomartinez/ApiEcommerce/internal/domain"
)

type CatalogRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateProduct(ctx context.Context, product domain.Product) error
	CreateInventory(ctx context.Context, productID string, stock int) error
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// CatalogService owns product and inventory-record creation. Each product
// gets exactly one inventory row, created alongside it; stock mutations after
// that go through the order core only.
type CatalogService struct {
	repo  CatalogRepository
	clock clock.Clock
}

func NewCatalogService(repo CatalogRepository, clk clock.Clock) *CatalogService {
	return &CatalogService{
		repo:  repo,
		clock: clk,
	}
}

type CreateProductInput struct {
	Name  string
	Price decimal.Decimal
	Stock int
}

func (s *CatalogService) CreateProduct(ctx context.Context, caller domain.CallerContext, in CreateProductInput) (domain.Product, error) {
	if !caller.IsAdmin() {
		return domain.Product{}, domain.ErrAccessDenied
	}
	if in.Name == "" || in.Price.IsNegative() || in.Stock < 0 {
		return domain.Product{}, domain.ErrValidationFailed
	}

	product := domain.Product{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Price:     in.Price,
		Stock:     in.Stock,
		CreatedAt: s.clock.Now(),
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.CreateProduct(txCtx, product); err != nil {
			return err
		}
		return s.repo.CreateInventory(txCtx, product.ID, in.Stock)
	})
	if err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}
