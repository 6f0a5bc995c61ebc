package repository

import "context"

// TxRepositories repositorios atados a una misma transacción.
type TxRepositories struct {
	Lock      LedgerLocker
	Movements StockMovementRepository
	Levels    StockLevelRepository
	Products  ProductRepository
	Orders    OrderRepository
	Invoices  InvoiceRepository
	Payments  PaymentRepository
	Audit     AuditRepository
}

// TxRunner ejecuta fn dentro de una transacción: Commit si fn devuelve nil, Rollback en otro caso.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, tx TxRepositories) error) error
}
