package repository

import (
	"context"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

// WarehouseRepository puerto de persistencia de bodegas. Toda lectura filtra por empresa;
// una bodega de otra empresa se comporta como inexistente (nil, nil).
type WarehouseRepository interface {
	Create(ctx context.Context, w *entity.Warehouse) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Warehouse, error)
	ListByCompany(ctx context.Context, companyID string, page Page) ([]*entity.Warehouse, error)
	Update(ctx context.Context, w *entity.Warehouse) error
}
