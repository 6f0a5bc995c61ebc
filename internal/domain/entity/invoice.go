package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus estado de una factura.
type InvoiceStatus string

const (
	InvoiceDraft         InvoiceStatus = "DRAFT"
	InvoiceIssued        InvoiceStatus = "ISSUED"
	InvoicePartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoicePaid          InvoiceStatus = "PAID"
	InvoiceOverdue       InvoiceStatus = "OVERDUE"
	InvoiceCancelled     InvoiceStatus = "CANCELLED"
)

// Valid indica si s es un estado conocido.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceDraft, InvoiceIssued, InvoicePartiallyPaid, InvoicePaid, InvoiceOverdue, InvoiceCancelled:
		return true
	}
	return false
}

// Invoice cabecera de factura. PaidAmount se deriva siempre de la suma de pagos.
type Invoice struct {
	ID          string
	CompanyID   string
	OrderID     string
	CustomerID  string
	Number      string
	Status      InvoiceStatus
	Currency    string
	TotalAmount decimal.Decimal
	TaxAmount   decimal.Decimal
	PaidAmount  decimal.Decimal
	IssuedDate  time.Time
	DueDate     *time.Time
	Notes       string
	CreatedByID string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
