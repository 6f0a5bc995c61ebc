package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/erp-ledger/internal/application/audit"
	"github.com/jhoicas/erp-ledger/internal/application/auth"
	"github.com/jhoicas/erp-ledger/internal/application/billing"
	"github.com/jhoicas/erp-ledger/internal/application/inventory"
	"github.com/jhoicas/erp-ledger/internal/application/orders"
	"github.com/jhoicas/erp-ledger/internal/application/rbac"
	"github.com/jhoicas/erp-ledger/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	CompanyUC   *usecase.CompanyUseCase
	WarehouseUC *usecase.WarehouseUseCase
	ProductUC   *usecase.ProductUseCase
	PartnerUC   *usecase.PartnerUseCase
	Ledger      *inventory.LedgerService
	Billing     *billing.Service
	Orders      *orders.Service
	Audit       *audit.Service
	Companies   companyGetter
	Policy      *rbac.Policy
	DB          Pinger
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	policy := deps.Policy
	if policy == nil {
		policy = rbac.DefaultPolicy()
	}
	can := func(perms ...rbac.Permission) fiber.Handler { return RequirePermission(policy, perms...) }

	app.Get("/health", Health(deps.DB))

	api := app.Group("/api")

	// Auth y alta de empresa (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	companyHandler := NewCompanyHandler(deps.CompanyUC)
	api.Post("/auth/register", authHandler.Bootstrap)
	api.Post("/auth/login", authHandler.Login)
	api.Post("/companies", companyHandler.Create)

	// Rutas protegidas (Bearer Token + empresa activa)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret), RequireActiveCompany(deps.Companies))

	protected.Get("/auth/me", authHandler.Me)
	protected.Post("/users", can(rbac.CompanyManage), authHandler.Register)
	protected.Get("/companies/:id", companyHandler.GetByID)

	warehouses := protected.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Post("/", can(rbac.CatalogWrite), warehouseHandler.Create)
	warehouses.Get("/", can(rbac.CatalogRead), warehouseHandler.List)
	warehouses.Get("/:id", can(rbac.CatalogRead), warehouseHandler.GetByID)
	warehouses.Put("/:id", can(rbac.CatalogWrite), warehouseHandler.Update)

	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", can(rbac.CatalogWrite), productHandler.Create)
	products.Get("/", can(rbac.CatalogRead), productHandler.List)
	products.Get("/:id", can(rbac.CatalogRead), productHandler.GetByID)
	products.Put("/:id", can(rbac.CatalogWrite), productHandler.Update)

	partnerHandler := NewPartnerHandler(deps.PartnerUC)
	customers := protected.Group("/customers")
	customers.Post("/", can(rbac.CatalogWrite), partnerHandler.CreateCustomer)
	customers.Get("/", can(rbac.CatalogRead), partnerHandler.ListCustomers)
	customers.Get("/:id", can(rbac.CatalogRead), partnerHandler.GetCustomer)
	suppliers := protected.Group("/suppliers")
	suppliers.Post("/", can(rbac.CatalogWrite), partnerHandler.CreateSupplier)
	suppliers.Get("/", can(rbac.CatalogRead), partnerHandler.ListSuppliers)

	// Kardex
	stockHandler := NewStockHandler(deps.Ledger)
	protected.Post("/stock-movements", can(rbac.StockWrite), stockHandler.RecordMovement)
	protected.Get("/stock-movements", can(rbac.StockRead), stockHandler.ListMovements)
	protected.Get("/stock", can(rbac.StockRead), stockHandler.Levels)
	protected.Post("/stock/recalculate", can(rbac.StockRecalculate), stockHandler.Recalculate)
	protected.Get("/stock/drift", can(rbac.StockRead), stockHandler.Drift)

	orderHandler := NewOrderHandler(deps.Orders)
	ordersGroup := protected.Group("/orders")
	ordersGroup.Post("/", can(rbac.OrderWrite), orderHandler.Create)
	ordersGroup.Get("/", can(rbac.OrderRead), orderHandler.List)
	ordersGroup.Get("/:id", can(rbac.OrderRead), orderHandler.Get)
	ordersGroup.Patch("/:id/status", can(rbac.OrderWrite), orderHandler.UpdateStatus)
	ordersGroup.Post("/:id/reserve", can(rbac.OrderWrite, rbac.StockWrite), orderHandler.Reserve)
	ordersGroup.Post("/:id/fulfill", can(rbac.OrderWrite, rbac.StockWrite), orderHandler.Fulfill)

	billingHandler := NewBillingHandler(deps.Billing)
	invoices := protected.Group("/invoices")
	invoices.Post("/", can(rbac.InvoiceWrite), billingHandler.CreateInvoice)
	invoices.Get("/", can(rbac.InvoiceRead), billingHandler.ListInvoices)
	invoices.Get("/:id", can(rbac.InvoiceRead), billingHandler.GetInvoice)
	invoices.Get("/:id/balance", can(rbac.InvoiceRead), billingHandler.GetBalance)
	invoices.Get("/:id/pdf", can(rbac.InvoiceRead), billingHandler.StatementPDF)
	invoices.Patch("/:id/status", can(rbac.InvoiceWrite), billingHandler.UpdateInvoiceStatus)
	payments := protected.Group("/payments")
	payments.Post("/", can(rbac.PaymentWrite), billingHandler.RecordPayment)
	payments.Get("/", can(rbac.PaymentRead), billingHandler.ListPayments)

	auditHandler := NewAuditHandler(deps.Audit)
	protected.Get("/audit-logs", can(rbac.AuditRead), auditHandler.List)
}
