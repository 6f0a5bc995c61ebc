package repository

import (
	"context"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

// StockMovementRepository libro de movimientos: solo inserción y lectura.
type StockMovementRepository interface {
	Create(ctx context.Context, m *entity.StockMovement) error
	List(ctx context.Context, companyID string, f MovementFilter) ([]*entity.StockMovement, error)
	// ListAll devuelve el historial completo de la empresa (para plegarlo en niveles).
	ListAll(ctx context.Context, companyID string) ([]entity.StockMovement, error)
}

// StockLevelRepository niveles materializados por (bodega, producto).
type StockLevelRepository interface {
	// GetForUpdate devuelve el nivel bloqueando la fila; si no existe devuelve un nivel en cero.
	GetForUpdate(ctx context.Context, companyID, warehouseID, productID string) (*entity.StockLevel, error)
	Upsert(ctx context.Context, l *entity.StockLevel) error
	List(ctx context.Context, companyID string, f LevelFilter) ([]entity.StockLevel, error)
	// ReplaceAll reemplaza todos los niveles de la empresa y devuelve cuántos escribió.
	ReplaceAll(ctx context.Context, companyID string, levels []entity.StockLevel) (int, error)
}

// LedgerLocker serializa la reconstrucción de niveles frente a los escritores de movimientos
// de la misma empresa durante la transacción en curso.
type LedgerLocker interface {
	LockShared(ctx context.Context, companyID string) error
	LockExclusive(ctx context.Context, companyID string) error
}
