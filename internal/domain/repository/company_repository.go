package repository

import (
	"context"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

// CompanyRepository puerto de persistencia de empresas (tenants).
type CompanyRepository interface {
	Create(ctx context.Context, c *entity.Company) error
	GetByID(ctx context.Context, id string) (*entity.Company, error)
	ListIDs(ctx context.Context) ([]string, error)
}
