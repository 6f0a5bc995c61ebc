// Package ledger contiene las reglas puras del libro de existencias: validación de movimientos,
// efecto de cada tipo sobre (cantidad, reservado) y el plegado del historial en niveles.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

// QuantityScale decimales que admite una cantidad almacenada.
const QuantityScale = 4

// FitsScale indica que v no tiene más de scale decimales.
func FitsScale(v decimal.Decimal, scale int32) bool {
	return v.Equal(v.Truncate(scale))
}

// Delta cambio que un movimiento produce sobre un nivel.
type Delta struct {
	Quantity decimal.Decimal
	Reserved decimal.Decimal
}

// IsZero indica que el movimiento no altera el nivel.
func (d Delta) IsZero() bool { return d.Quantity.IsZero() && d.Reserved.IsZero() }

// ValidateMovement valida tipo y cantidad de un movimiento almacenable.
// ADJUSTMENT admite un delta con signo distinto de cero; el resto exige cantidad > 0.
// TRANSFER no se almacena: se descompone en OUT + IN.
func ValidateMovement(t entity.MovementType, qty decimal.Decimal) error {
	if !t.Valid() {
		return domain.NewValidationError("type", "tipo de movimiento desconocido")
	}
	if !FitsScale(qty, QuantityScale) {
		return domain.NewValidationError("quantity", "admite como máximo 4 decimales")
	}
	if t == entity.MovementAdjustment {
		if qty.IsZero() {
			return domain.NewValidationError("quantity", "el ajuste no puede ser cero")
		}
		return nil
	}
	if !qty.IsPositive() {
		return domain.NewValidationError("quantity", "debe ser mayor que cero")
	}
	return nil
}

// EffectOf devuelve el delta de un movimiento.
// Las filas TRANSFER heredadas no tienen efecto: cada traslado se registra como un par OUT/IN.
func EffectOf(t entity.MovementType, qty decimal.Decimal) Delta {
	switch t {
	case entity.MovementIn, entity.MovementAdjustment:
		return Delta{Quantity: qty, Reserved: decimal.Zero}
	case entity.MovementOut:
		return Delta{Quantity: qty.Neg(), Reserved: decimal.Zero}
	case entity.MovementReserved:
		return Delta{Quantity: decimal.Zero, Reserved: qty}
	case entity.MovementUnreserved:
		return Delta{Quantity: decimal.Zero, Reserved: qty.Neg()}
	}
	return Delta{Quantity: decimal.Zero, Reserved: decimal.Zero}
}

// Apply suma el delta al nivel y devuelve el resultado.
func Apply(level entity.StockLevel, d Delta) entity.StockLevel {
	level.Quantity = level.Quantity.Add(d.Quantity)
	level.Reserved = level.Reserved.Add(d.Reserved)
	return level
}

// CheckAvailability rechaza deltas que dejarían cantidad, reservado o disponible en negativo.
// Con allowNegative solo se impide que lo reservado caiga bajo cero.
func CheckAvailability(level entity.StockLevel, d Delta, allowNegative bool) error {
	next := Apply(level, d)
	if next.Reserved.IsNegative() {
		return domain.NewConflictError("no hay reservas suficientes para liberar: reservado %s, solicitado %s",
			level.Reserved.String(), d.Reserved.Neg().String())
	}
	if allowNegative {
		return nil
	}
	if next.Quantity.IsNegative() || next.Available().IsNegative() {
		requested := d.Quantity.Neg()
		if d.Reserved.IsPositive() {
			requested = d.Reserved
		}
		return &domain.InsufficientStockError{
			WarehouseID: level.WarehouseID,
			ProductID:   level.ProductID,
			Requested:   requested,
			Available:   level.Available(),
		}
	}
	return nil
}
