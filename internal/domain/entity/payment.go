package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod medio de pago.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "CASH"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentCard         PaymentMethod = "CARD"
	PaymentElectronic   PaymentMethod = "ELECTRONIC"
	PaymentOther        PaymentMethod = "OTHER"
)

// Valid indica si m es un medio conocido.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentBankTransfer, PaymentCard, PaymentElectronic, PaymentOther:
		return true
	}
	return false
}

// Payment pago recibido; InvoiceID vacío = pago no aplicado a factura.
type Payment struct {
	ID          string
	CompanyID   string
	InvoiceID   string
	Amount      decimal.Decimal
	Currency    string
	Method      PaymentMethod
	PaymentDate time.Time
	Reference   string
	Notes       string
	CreatedByID string
	CreatedAt   time.Time
}
