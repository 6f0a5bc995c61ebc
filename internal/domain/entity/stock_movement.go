package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento del libro de existencias.
type MovementType string

const (
	MovementIn         MovementType = "IN"
	MovementOut        MovementType = "OUT"
	MovementTransfer   MovementType = "TRANSFER"
	MovementAdjustment MovementType = "ADJUSTMENT"
	MovementReserved   MovementType = "RESERVED"
	MovementUnreserved MovementType = "UNRESERVED"
)

// Valid indica si t es un tipo conocido.
func (t MovementType) Valid() bool {
	switch t {
	case MovementIn, MovementOut, MovementTransfer, MovementAdjustment, MovementReserved, MovementUnreserved:
		return true
	}
	return false
}

// Tipos de referencia usados por el sistema.
const (
	ReferenceTransfer = "TRANSFER"
	ReferenceOrder    = "ORDER"
	ReferenceManual   = "MANUAL"
)

// StockMovement registro inmutable del libro de existencias.
// Quantity es positiva salvo en ADJUSTMENT, donde el signo indica la dirección.
type StockMovement struct {
	ID            string
	CompanyID     string
	WarehouseID   string
	ProductID     string
	Type          MovementType
	Quantity      decimal.Decimal
	UnitCost      *decimal.Decimal
	ReferenceID   string
	ReferenceType string
	Notes         string
	CreatedByID   string
	CreatedAt     time.Time
}
