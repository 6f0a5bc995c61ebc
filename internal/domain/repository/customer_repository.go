package repository

import (
	"context"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

// CustomerRepository puerto de persistencia de clientes.
type CustomerRepository interface {
	Create(ctx context.Context, c *entity.Customer) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Customer, error)
	ListByCompany(ctx context.Context, companyID string, page Page) ([]*entity.Customer, error)
}

// SupplierRepository puerto de persistencia de proveedores.
type SupplierRepository interface {
	Create(ctx context.Context, s *entity.Supplier) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Supplier, error)
	ListByCompany(ctx context.Context, companyID string, page Page) ([]*entity.Supplier, error)
}
