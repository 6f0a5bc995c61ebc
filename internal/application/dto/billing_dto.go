package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordPaymentRequest entrada de POST /payments. invoice_id es opcional.
type RecordPaymentRequest struct {
	InvoiceID   string          `json:"invoice_id" validate:"omitempty,uuid"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency" validate:"required,len=3,uppercase"`
	Method      string          `json:"payment_method" validate:"required,oneof=CASH BANK_TRANSFER CARD ELECTRONIC OTHER"`
	PaymentDate *time.Time      `json:"payment_date"`
	Reference   string          `json:"reference" validate:"omitempty,max=100"`
	Notes       string          `json:"notes" validate:"omitempty,max=500"`
}

// PaymentResponse pago registrado.
type PaymentResponse struct {
	ID          string          `json:"id"`
	CompanyID   string          `json:"company_id"`
	InvoiceID   string          `json:"invoice_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Method      string          `json:"payment_method"`
	PaymentDate time.Time       `json:"payment_date"`
	Reference   string          `json:"reference,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PaymentListResponse lista de pagos.
type PaymentListResponse struct {
	Items []PaymentResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// InvoiceBalanceResponse saldo de una factura.
type InvoiceBalanceResponse struct {
	Total       decimal.Decimal `json:"total"`
	Paid        decimal.Decimal `json:"paid"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Overpaid    decimal.Decimal `json:"overpaid"`
}

// CreateInvoiceRequest entrada para crear una factura a partir de una orden o con importes explícitos.
type CreateInvoiceRequest struct {
	OrderID     string           `json:"order_id" validate:"omitempty,uuid"`
	CustomerID  string           `json:"customer_id" validate:"omitempty,uuid"`
	Number      string           `json:"number" validate:"omitempty,max=50"`
	Currency    string           `json:"currency" validate:"omitempty,len=3,uppercase"`
	TotalAmount *decimal.Decimal `json:"total_amount"`
	TaxAmount   *decimal.Decimal `json:"tax_amount"`
	Status      string           `json:"status" validate:"omitempty,oneof=DRAFT ISSUED"`
	IssuedDate  *time.Time       `json:"issued_date"`
	DueDate     *time.Time       `json:"due_date"`
	Notes       string           `json:"notes" validate:"omitempty,max=500"`
}

// UpdateInvoiceStatusRequest entrada para PATCH /invoices/:id/status.
type UpdateInvoiceStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=DRAFT ISSUED PARTIALLY_PAID PAID OVERDUE CANCELLED"`
}

// InvoiceResponse factura con los campos de saldo.
type InvoiceResponse struct {
	ID          string            `json:"id"`
	CompanyID   string            `json:"company_id"`
	OrderID     string            `json:"order_id,omitempty"`
	CustomerID  string            `json:"customer_id,omitempty"`
	Number      string            `json:"number"`
	Status      string            `json:"status"`
	Currency    string            `json:"currency"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	TaxAmount   decimal.Decimal   `json:"tax_amount"`
	PaidAmount  decimal.Decimal   `json:"paid_amount"`
	Outstanding decimal.Decimal   `json:"outstanding_amount"`
	Overpaid    decimal.Decimal   `json:"overpaid_amount"`
	IssuedDate  time.Time         `json:"issued_date"`
	DueDate     *time.Time        `json:"due_date,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	Payments    []PaymentResponse `json:"payments,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// InvoiceListResponse lista paginada de facturas.
type InvoiceListResponse struct {
	Items []InvoiceResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
