package bootstrap

import (
	"fmt"

	"github.com/jhoicas/erp-ledger/internal/application/audit"
	"github.com/jhoicas/erp-ledger/internal/application/auth"
	"github.com/jhoicas/erp-ledger/internal/application/billing"
	"github.com/jhoicas/erp-ledger/internal/application/inventory"
	"github.com/jhoicas/erp-ledger/internal/application/orders"
	"github.com/jhoicas/erp-ledger/internal/application/usecase"
	"github.com/jhoicas/erp-ledger/pkg/config"
)

// Options colaboradores opcionales de infraestructura.
type Options struct {
	Cache    inventory.LevelCache
	Enqueuer inventory.RecalcEnqueuer
	Renderer billing.StatementRenderer
}

// Services casos de uso listos para los adaptadores (HTTP, worker).
type Services struct {
	Auth       *auth.AuthUseCase
	Companies  *usecase.CompanyUseCase
	Warehouses *usecase.WarehouseUseCase
	Products   *usecase.ProductUseCase
	Partners   *usecase.PartnerUseCase
	Ledger     *inventory.LedgerService
	Billing    *billing.Service
	Orders     *orders.Service
	Audit      *audit.Service
}

// NewServices construye los servicios sobre los repositorios de s.
func NewServices(cfg *config.Config, s *Storage, opt Options) (*Services, error) {
	rec, err := audit.NewRecorder(cfg.Audit.CompressThreshold)
	if err != nil {
		return nil, fmt.Errorf("bitácora: %w", err)
	}
	ledger := inventory.NewLedgerService(inventory.Deps{
		Tx:         s.Tx,
		Warehouses: s.Warehouses,
		Products:   s.Products,
		Movements:  s.Movements,
		Levels:     s.Levels,
		Audit:      rec,
		Cache:      opt.Cache,
		Enqueuer:   opt.Enqueuer,
	}, inventory.Config{AllowNegative: cfg.Stock.AllowNegative})

	return &Services{
		Auth: auth.NewAuthUseCase(s.Users, s.Companies, auth.JWTConfig{
			Secret:     cfg.JWT.Secret,
			ExpMinutes: cfg.JWT.Expiration,
			Issuer:     cfg.JWT.Issuer,
		}),
		Companies:  usecase.NewCompanyUseCase(s.Companies),
		Warehouses: usecase.NewWarehouseUseCase(s.Warehouses),
		Products:   usecase.NewProductUseCase(s.Products),
		Partners:   usecase.NewPartnerUseCase(s.Customers, s.Suppliers),
		Ledger:     ledger,
		Billing: billing.NewService(billing.Deps{
			Tx:        s.Tx,
			Invoices:  s.Invoices,
			Payments:  s.Payments,
			Orders:    s.Orders,
			Customers: s.Customers,
			Companies: s.Companies,
			Audit:     rec,
			Renderer:  opt.Renderer,
		}),
		Orders: orders.NewService(orders.Deps{
			Tx:        s.Tx,
			Orders:    s.Orders,
			Products:  s.Products,
			Customers: s.Customers,
			Suppliers: s.Suppliers,
			Ledger:    ledger,
			Audit:     rec,
		}),
		Audit: audit.NewService(s.Audit, rec),
	}, nil
}
