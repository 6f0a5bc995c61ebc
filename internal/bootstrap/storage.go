// Package bootstrap arma repositorios y servicios a partir de la configuración.
// Lo comparten cmd/api y cmd/worker.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jhoicas/erp-ledger/internal/domain/repository"
	"github.com/jhoicas/erp-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/erp-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/erp-ledger/pkg/config"
)

// Pinger comprobación de disponibilidad del almacenamiento.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Storage repositorios de un backend concreto.
type Storage struct {
	Driver     string
	Tx         repository.TxRunner
	Companies  repository.CompanyRepository
	Users      repository.UserRepository
	Warehouses repository.WarehouseRepository
	Products   repository.ProductRepository
	Customers  repository.CustomerRepository
	Suppliers  repository.SupplierRepository
	Movements  repository.StockMovementRepository
	Levels     repository.StockLevelRepository
	Orders     repository.OrderRepository
	Invoices   repository.InvoiceRepository
	Payments   repository.PaymentRepository
	Audit      repository.AuditRepository
	DB         Pinger

	close func()
}

// Close libera las conexiones del backend.
func (s *Storage) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStorage abre el backend según STORAGE_DRIVER. Con postgres aplica el esquema si DB_AUTO_MIGRATE.
func OpenStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg.App.IsMemoryStorage() {
		return MemoryStorage(memory.NewStore()), nil
	}
	return PostgresStorage(ctx, cfg.DB)
}

// MemoryStorage repositorios sobre el almacén en memoria.
func MemoryStorage(store *memory.Store) *Storage {
	return &Storage{
		Driver:     "memory",
		Tx:         store,
		Companies:  store.Companies(),
		Users:      store.Users(),
		Warehouses: store.Warehouses(),
		Products:   store.Products(),
		Customers:  store.Customers(),
		Suppliers:  store.Suppliers(),
		Movements:  store.Movements(),
		Levels:     store.Levels(),
		Orders:     store.Orders(),
		Invoices:   store.Invoices(),
		Payments:   store.Payments(),
		Audit:      store.Audit(),
		DB:         store,
	}
}

// PostgresStorage repositorios sobre un pool pgx.
func PostgresStorage(ctx context.Context, cfg config.DBConfig) (*Storage, error) {
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	if cfg.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &Storage{
		Driver:     "postgres",
		Tx:         postgres.NewTxRunner(pool),
		Companies:  postgres.NewCompanyRepository(pool),
		Users:      postgres.NewUserRepository(pool),
		Warehouses: postgres.NewWarehouseRepository(pool),
		Products:   postgres.NewProductRepository(pool),
		Customers:  postgres.NewCustomerRepository(pool),
		Suppliers:  postgres.NewSupplierRepository(pool),
		Movements:  postgres.NewStockMovementRepository(pool),
		Levels:     postgres.NewStockLevelRepository(pool),
		Orders:     postgres.NewOrderRepository(pool),
		Invoices:   postgres.NewInvoiceRepository(pool),
		Payments:   postgres.NewPaymentRepository(pool),
		Audit:      postgres.NewAuditRepository(pool),
		DB:         pool,
		close:      pool.Close,
	}, nil
}
