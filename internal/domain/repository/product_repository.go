package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

// ProductRepository puerto de persistencia de productos (filtrado por empresa).
type ProductRepository interface {
	Create(ctx context.Context, p *entity.Product) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, companyID, sku string) (*entity.Product, error)
	ListByCompany(ctx context.Context, companyID string, page Page) ([]*entity.Product, error)
	Update(ctx context.Context, p *entity.Product) error
	UpdateCost(ctx context.Context, companyID, id string, cost decimal.Decimal) error
}
