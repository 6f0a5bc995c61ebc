package billing

import (
	"context"

	"github.com/jhoicas/erp-ledger/internal/domain/billing"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

// Statement datos del estado de cuenta de una factura.
type Statement struct {
	Company  *entity.Company
	Customer *entity.Customer
	Invoice  *entity.Invoice
	Balance  billing.Balance
	Payments []*entity.Payment
}

// StatementRenderer genera el PDF del estado de cuenta.
type StatementRenderer interface {
	RenderInvoiceStatement(ctx context.Context, st Statement) ([]byte, error)
}
