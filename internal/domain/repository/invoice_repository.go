package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

// OrderRepository puerto de persistencia de órdenes con sus líneas.
type OrderRepository interface {
	Create(ctx context.Context, o *entity.Order) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Order, error)
	GetForUpdate(ctx context.Context, companyID, id string) (*entity.Order, error)
	List(ctx context.Context, companyID string, f OrderFilter) ([]*entity.Order, error)
	UpdateStatus(ctx context.Context, companyID, id string, status entity.OrderStatus) error
}

// InvoiceRepository puerto de persistencia de facturas.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *entity.Invoice) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Invoice, error)
	GetForUpdate(ctx context.Context, companyID, id string) (*entity.Invoice, error)
	GetByOrderID(ctx context.Context, companyID, orderID string) (*entity.Invoice, error)
	List(ctx context.Context, companyID string, f InvoiceFilter) ([]*entity.Invoice, error)
	UpdateSettlement(ctx context.Context, inv *entity.Invoice) error
}

// PaymentRepository puerto de persistencia de pagos.
type PaymentRepository interface {
	Create(ctx context.Context, p *entity.Payment) error
	ListByInvoice(ctx context.Context, companyID, invoiceID string) ([]*entity.Payment, error)
	List(ctx context.Context, companyID string, page Page) ([]*entity.Payment, error)
	SumByInvoice(ctx context.Context, companyID, invoiceID string) (decimal.Decimal, error)
}
