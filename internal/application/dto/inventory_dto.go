package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordMovementRequest entrada de POST /stock-movements.
// Para TRANSFER se usan from_warehouse_id y to_warehouse_id en lugar de warehouse_id.
// quantity es positiva; en ADJUSTMENT el signo indica la dirección.
type RecordMovementRequest struct {
	WarehouseID     string           `json:"warehouse_id" validate:"required_unless=MovementType TRANSFER,omitempty,uuid"`
	FromWarehouseID string           `json:"from_warehouse_id" validate:"required_if=MovementType TRANSFER,omitempty,uuid"`
	ToWarehouseID   string           `json:"to_warehouse_id" validate:"required_if=MovementType TRANSFER,omitempty,uuid"`
	ProductID       string           `json:"product_id" validate:"required,uuid"`
	MovementType    string           `json:"movement_type" validate:"required,oneof=IN OUT TRANSFER ADJUSTMENT RESERVED UNRESERVED"`
	Quantity        decimal.Decimal  `json:"quantity"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	ReferenceID     string           `json:"reference_id" validate:"omitempty,max=100"`
	ReferenceType   string           `json:"reference_type" validate:"omitempty,max=50"`
	Notes           string           `json:"notes" validate:"omitempty,max=500"`
}

// MovementResponse movimiento registrado.
type MovementResponse struct {
	ID            string           `json:"id"`
	CompanyID     string           `json:"company_id"`
	WarehouseID   string           `json:"warehouse_id"`
	ProductID     string           `json:"product_id"`
	MovementType  string           `json:"movement_type"`
	Quantity      decimal.Decimal  `json:"quantity"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"`
	ReferenceID   string           `json:"reference_id,omitempty"`
	ReferenceType string           `json:"reference_type,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	CreatedByID   string           `json:"created_by_id"`
	CreatedAt     time.Time        `json:"created_at"`
}

// TransferResponse par OUT/IN generado por un traslado.
type TransferResponse struct {
	ReferenceID string             `json:"reference_id"`
	Movements   []MovementResponse `json:"movements"`
}

// MovementListResponse historial paginado.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// StockLevelResponse nivel de existencias de (bodega, producto).
type StockLevelResponse struct {
	WarehouseID string          `json:"warehouse_id"`
	ProductID   string          `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Reserved    decimal.Decimal `json:"reserved"`
	Available   decimal.Decimal `json:"available"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// RecalculateResponse resultado de la reconstrucción de niveles.
type RecalculateResponse struct {
	RecalculatedCount int `json:"recalculated_count"`
}

// RecalculateQueuedResponse tarea de reconstrucción encolada.
type RecalculateQueuedResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// DriftResponse diferencia entre el nivel almacenado y el derivado del historial.
type DriftResponse struct {
	WarehouseID    string          `json:"warehouse_id"`
	ProductID      string          `json:"product_id"`
	StoredQuantity decimal.Decimal `json:"stored_quantity"`
	StoredReserved decimal.Decimal `json:"stored_reserved"`
	LedgerQuantity decimal.Decimal `json:"ledger_quantity"`
	LedgerReserved decimal.Decimal `json:"ledger_reserved"`
}
