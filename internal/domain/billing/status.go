package billing

import (
	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

// DeriveInvoiceStatus estado que corresponde a los importes de la factura.
// DRAFT y CANCELLED no cambian por pagos; sin pagos se conserva el estado actual.
func DeriveInvoiceStatus(inv entity.Invoice) entity.InvoiceStatus {
	switch inv.Status {
	case entity.InvoiceDraft, entity.InvoiceCancelled:
		return inv.Status
	}
	switch {
	case inv.PaidAmount.GreaterThanOrEqual(inv.TotalAmount) && inv.PaidAmount.IsPositive():
		return entity.InvoicePaid
	case inv.PaidAmount.IsPositive():
		return entity.InvoicePartiallyPaid
	}
	return inv.Status
}

// ValidateStatusChange rechaza estados que contradicen los importes de la factura.
func ValidateStatusChange(inv entity.Invoice, next entity.InvoiceStatus) error {
	if !next.Valid() {
		return domain.NewValidationError("status", "estado de factura desconocido")
	}
	if inv.Status == entity.InvoiceCancelled && next != entity.InvoiceCancelled {
		return domain.NewConflictError("la factura %s está anulada", inv.Number)
	}
	paidInFull := inv.PaidAmount.GreaterThanOrEqual(inv.TotalAmount) && inv.PaidAmount.IsPositive()
	switch next {
	case entity.InvoicePaid:
		if !paidInFull {
			return domain.NewValidationError("status", "la factura no está pagada en su totalidad")
		}
	case entity.InvoicePartiallyPaid:
		if !inv.PaidAmount.IsPositive() || paidInFull {
			return domain.NewValidationError("status", "los pagos no corresponden a un pago parcial")
		}
	case entity.InvoiceDraft:
		if inv.PaidAmount.IsPositive() {
			return domain.NewValidationError("status", "una factura con pagos no puede volver a borrador")
		}
	case entity.InvoiceIssued:
		if inv.PaidAmount.IsPositive() {
			return domain.NewValidationError("status", "una factura con pagos no puede quedar emitida; su estado es PARTIALLY_PAID o PAID")
		}
	case entity.InvoiceOverdue:
		if paidInFull {
			return domain.NewValidationError("status", "la factura ya está pagada")
		}
	case entity.InvoiceCancelled:
		if inv.PaidAmount.IsPositive() {
			return domain.NewConflictError("la factura %s tiene pagos registrados", inv.Number)
		}
	}
	return nil
}

var orderTransitions = map[entity.OrderStatus][]entity.OrderStatus{
	entity.OrderDraft:      {entity.OrderPending, entity.OrderConfirmed, entity.OrderCancelled},
	entity.OrderPending:    {entity.OrderConfirmed, entity.OrderCancelled},
	entity.OrderConfirmed:  {entity.OrderInProgress, entity.OrderCompleted, entity.OrderCancelled},
	entity.OrderInProgress: {entity.OrderCompleted, entity.OrderCancelled},
}

// CanTransitionOrder indica si la orden puede pasar de from a to.
func CanTransitionOrder(from, to entity.OrderStatus) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminalOrder COMPLETED y CANCELLED no admiten más cambios.
func IsTerminalOrder(s entity.OrderStatus) bool {
	return s == entity.OrderCompleted || s == entity.OrderCancelled
}
