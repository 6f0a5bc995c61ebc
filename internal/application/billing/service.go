package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/application/audit"
	"github.com/jhoicas/erp-ledger/internal/application/dto"
	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/billing"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

// Deps dependencias del servicio de facturación.
type Deps struct {
	Tx        repository.TxRunner
	Invoices  repository.InvoiceRepository
	Payments  repository.PaymentRepository
	Orders    repository.OrderRepository
	Customers repository.CustomerRepository
	Companies repository.CompanyRepository
	Audit     *audit.Recorder
	Renderer  StatementRenderer // opcional
}

// Service concilia pagos con facturas y facturas con órdenes.
// paid_amount de una factura es siempre la suma de sus pagos, recalculada en la transacción del pago.
type Service struct {
	tx        repository.TxRunner
	invoices  repository.InvoiceRepository
	payments  repository.PaymentRepository
	orders    repository.OrderRepository
	customers repository.CustomerRepository
	companies repository.CompanyRepository
	audit     *audit.Recorder
	renderer  StatementRenderer
	now       func() time.Time
}

// NewService construye el servicio.
func NewService(deps Deps) *Service {
	return &Service{
		tx:        deps.Tx,
		invoices:  deps.Invoices,
		payments:  deps.Payments,
		orders:    deps.Orders,
		customers: deps.Customers,
		companies: deps.Companies,
		audit:     deps.Audit,
		renderer:  deps.Renderer,
		now:       time.Now,
	}
}

// RecordPayment registra un pago y, si referencia una factura, recalcula su paid_amount
// como la suma de todos sus pagos y deriva el estado. Todo en una transacción con la factura bloqueada.
func (s *Service) RecordPayment(ctx context.Context, companyID, userID string, in dto.RecordPaymentRequest) (*dto.PaymentResponse, error) {
	if err := billing.ValidateAmount("amount", in.Amount); err != nil {
		return nil, err
	}
	method := entity.PaymentMethod(in.Method)
	if !method.Valid() {
		return nil, domain.NewValidationError("payment_method", "medio de pago desconocido")
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		return nil, domain.NewValidationError("currency", "es requerida")
	}

	now := s.now().UTC()
	payDate := now
	if in.PaymentDate != nil {
		payDate = in.PaymentDate.UTC()
	}
	payment := &entity.Payment{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		InvoiceID:   in.InvoiceID,
		Amount:      in.Amount,
		Currency:    currency,
		Method:      method,
		PaymentDate: payDate,
		Reference:   in.Reference,
		Notes:       in.Notes,
		CreatedByID: userID,
		CreatedAt:   now,
	}

	err := s.tx.Run(ctx, func(ctx context.Context, tx repository.TxRepositories) error {
		var inv *entity.Invoice
		if in.InvoiceID != "" {
			var err error
			inv, err = tx.Invoices.GetForUpdate(ctx, companyID, in.InvoiceID)
			if err != nil {
				return err
			}
			if inv == nil {
				return domain.NewNotFoundError("factura", in.InvoiceID)
			}
			switch inv.Status {
			case entity.InvoiceCancelled:
				return domain.NewConflictError("la factura %s está anulada", inv.Number)
			case entity.InvoiceDraft:
				return domain.NewConflictError("la factura %s está en borrador; emítala antes de registrar pagos", inv.Number)
			}
			if inv.Currency != currency {
				return domain.NewValidationError("currency", fmt.Sprintf("la factura está en %s", inv.Currency))
			}
		}

		if err := tx.Payments.Create(ctx, payment); err != nil {
			return err
		}
		if err := s.audit.Record(ctx, tx.Audit, audit.Entry{
			CompanyID: companyID, ActorID: userID, Action: entity.AuditCreate,
			EntityType: "payment", EntityID: payment.ID, New: toPaymentResponse(payment),
		}); err != nil {
			return err
		}
		if inv == nil {
			return nil
		}
		return s.settle(ctx, tx, inv, userID)
	})
	if err != nil {
		return nil, err
	}
	out := toPaymentResponse(payment)
	return &out, nil
}

// settle recalcula paid_amount desde los pagos y deriva el estado de la factura bloqueada.
func (s *Service) settle(ctx context.Context, tx repository.TxRepositories, inv *entity.Invoice, userID string) error {
	before := toInvoiceResponse(inv, nil)
	paid, err := tx.Payments.SumByInvoice(ctx, inv.CompanyID, inv.ID)
	if err != nil {
		return err
	}
	inv.PaidAmount = paid
	inv.Status = billing.DeriveInvoiceStatus(*inv)
	inv.UpdatedAt = s.now().UTC()
	if err := tx.Invoices.UpdateSettlement(ctx, inv); err != nil {
		return err
	}
	return s.audit.Record(ctx, tx.Audit, audit.Entry{
		CompanyID: inv.CompanyID, ActorID: userID, Action: entity.AuditUpdate,
		EntityType: "invoice", EntityID: inv.ID, Old: before, New: toInvoiceResponse(inv, nil),
	})
}

// GetInvoiceBalance total, pagado y pendiente de la factura.
func (s *Service) GetInvoiceBalance(ctx context.Context, companyID, invoiceID string) (*dto.InvoiceBalanceResponse, error) {
	inv, err := s.getInvoice(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	b := billing.BalanceOf(*inv)
	return &dto.InvoiceBalanceResponse{Total: b.Total, Paid: b.Paid, Outstanding: b.Outstanding, Overpaid: b.Overpaid}, nil
}

// GetInvoice factura con campos de saldo y sus pagos.
func (s *Service) GetInvoice(ctx context.Context, companyID, invoiceID string) (*dto.InvoiceResponse, error) {
	inv, err := s.getInvoice(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.ListByInvoice(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	out := toInvoiceResponse(inv, payments)
	return &out, nil
}

// ListInvoices facturas de la empresa.
func (s *Service) ListInvoices(ctx context.Context, companyID string, f repository.InvoiceFilter) (*dto.InvoiceListResponse, error) {
	list, err := s.invoices.List(ctx, companyID, f)
	if err != nil {
		return nil, err
	}
	items := make([]dto.InvoiceResponse, 0, len(list))
	for _, inv := range list {
		items = append(items, toInvoiceResponse(inv, nil))
	}
	return &dto.InvoiceListResponse{Items: items, Page: dto.PageResponse{Limit: f.Page.Limit, Offset: f.Page.Offset}}, nil
}

// ListPayments pagos de la empresa, o de una factura si invoiceID no está vacío.
func (s *Service) ListPayments(ctx context.Context, companyID, invoiceID string, page repository.Page) (*dto.PaymentListResponse, error) {
	var (
		list []*entity.Payment
		err  error
	)
	if invoiceID != "" {
		if _, err := s.getInvoice(ctx, companyID, invoiceID); err != nil {
			return nil, err
		}
		list, err = s.payments.ListByInvoice(ctx, companyID, invoiceID)
	} else {
		list, err = s.payments.List(ctx, companyID, page)
	}
	if err != nil {
		return nil, err
	}
	items := make([]dto.PaymentResponse, 0, len(list))
	for _, p := range list {
		items = append(items, toPaymentResponse(p))
	}
	return &dto.PaymentListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}, nil
}

// CreateInvoice crea una factura desde una orden (importes calculados de sus líneas, una factura por orden)
// o con importes explícitos.
func (s *Service) CreateInvoice(ctx context.Context, companyID, userID string, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	now := s.now().UTC()
	inv := &entity.Invoice{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		Number:      strings.TrimSpace(in.Number),
		Status:      entity.InvoiceIssued,
		CustomerID:  in.CustomerID,
		Currency:    strings.ToUpper(in.Currency),
		PaidAmount:  decimal.Zero,
		IssuedDate:  now,
		DueDate:     in.DueDate,
		Notes:       in.Notes,
		CreatedByID: userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Status != "" {
		inv.Status = entity.InvoiceStatus(in.Status)
		if inv.Status != entity.InvoiceDraft && inv.Status != entity.InvoiceIssued {
			return nil, domain.NewValidationError("status", "una factura nueva debe ser DRAFT o ISSUED")
		}
	}
	if in.IssuedDate != nil {
		inv.IssuedDate = in.IssuedDate.UTC()
	}
	if inv.Number == "" {
		inv.Number = fmt.Sprintf("FAC-%s-%s", now.Format("20060102"), strings.ToUpper(inv.ID[:8]))
	}

	if in.OrderID != "" {
		order, err := s.orders.GetByID(ctx, companyID, in.OrderID)
		if err != nil {
			return nil, err
		}
		if order == nil {
			return nil, domain.NewNotFoundError("orden", in.OrderID)
		}
		if order.Status == entity.OrderCancelled {
			return nil, domain.NewConflictError("la orden %s está anulada", order.Number)
		}
		existing, err := s.invoices.GetByOrderID(ctx, companyID, order.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, domain.NewConflictError("la orden %s ya tiene la factura %s", order.Number, existing.Number)
		}
		inv.OrderID = order.ID
		inv.CustomerID = order.CustomerID
		inv.Currency = order.Currency
		inv.TotalAmount = billing.OrderTotal(order.Items)
		inv.TaxAmount = billing.OrderTax(order.Items)
	} else {
		if in.TotalAmount == nil {
			return nil, domain.NewValidationError("total_amount", "es requerido sin order_id")
		}
		if inv.Currency == "" {
			return nil, domain.NewValidationError("currency", "es requerida sin order_id")
		}
		inv.TotalAmount = billing.RoundMoney(*in.TotalAmount)
		inv.TaxAmount = decimal.Zero
		if in.TaxAmount != nil {
			inv.TaxAmount = billing.RoundMoney(*in.TaxAmount)
		}
	}
	if !inv.TotalAmount.IsPositive() {
		return nil, domain.NewValidationError("total_amount", "debe ser mayor que cero")
	}
	if inv.TaxAmount.IsNegative() || inv.TaxAmount.GreaterThan(inv.TotalAmount) {
		return nil, domain.NewValidationError("tax_amount", "debe estar entre cero y el total")
	}
	if inv.DueDate != nil && inv.DueDate.Before(inv.IssuedDate) {
		return nil, domain.NewValidationError("due_date", "no puede ser anterior a la fecha de emisión")
	}
	if inv.CustomerID != "" {
		c, err := s.customers.GetByID(ctx, companyID, inv.CustomerID)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, domain.NewNotFoundError("cliente", inv.CustomerID)
		}
	}

	err := s.tx.Run(ctx, func(ctx context.Context, tx repository.TxRepositories) error {
		if err := tx.Invoices.Create(ctx, inv); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx.Audit, audit.Entry{
			CompanyID: companyID, ActorID: userID, Action: entity.AuditCreate,
			EntityType: "invoice", EntityID: inv.ID, New: toInvoiceResponse(inv, nil),
		})
	})
	if err != nil {
		return nil, err
	}
	out := toInvoiceResponse(inv, nil)
	return &out, nil
}

// UpdateInvoiceStatus cambia el estado validándolo contra los importes pagados.
func (s *Service) UpdateInvoiceStatus(ctx context.Context, companyID, userID, invoiceID string, in dto.UpdateInvoiceStatusRequest) (*dto.InvoiceResponse, error) {
	next := entity.InvoiceStatus(in.Status)
	var inv *entity.Invoice
	err := s.tx.Run(ctx, func(ctx context.Context, tx repository.TxRepositories) error {
		var err error
		inv, err = tx.Invoices.GetForUpdate(ctx, companyID, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.NewNotFoundError("factura", invoiceID)
		}
		// paid_amount se toma de los pagos, no del valor almacenado
		if inv.PaidAmount, err = tx.Payments.SumByInvoice(ctx, companyID, invoiceID); err != nil {
			return err
		}
		if err := billing.ValidateStatusChange(*inv, next); err != nil {
			return err
		}
		before := toInvoiceResponse(inv, nil)
		inv.Status = next
		inv.UpdatedAt = s.now().UTC()
		if err := tx.Invoices.UpdateSettlement(ctx, inv); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx.Audit, audit.Entry{
			CompanyID: companyID, ActorID: userID, Action: entity.AuditUpdate,
			EntityType: "invoice", EntityID: inv.ID, Old: before, New: toInvoiceResponse(inv, nil),
		})
	})
	if err != nil {
		return nil, err
	}
	out := toInvoiceResponse(inv, nil)
	return &out, nil
}

// ComputeOrderTotal total de la orden desde sus líneas.
func (s *Service) ComputeOrderTotal(order *entity.Order) decimal.Decimal {
	return billing.OrderTotal(order.Items)
}

// RenderStatement PDF del estado de cuenta de la factura.
func (s *Service) RenderStatement(ctx context.Context, companyID, invoiceID string) ([]byte, string, error) {
	if s.renderer == nil {
		return nil, "", domain.NewConflictError("la generación de PDF no está habilitada")
	}
	inv, err := s.getInvoice(ctx, companyID, invoiceID)
	if err != nil {
		return nil, "", err
	}
	company, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, "", err
	}
	if company == nil {
		return nil, "", domain.NewNotFoundError("empresa", companyID)
	}
	var customer *entity.Customer
	if inv.CustomerID != "" {
		if customer, err = s.customers.GetByID(ctx, companyID, inv.CustomerID); err != nil {
			return nil, "", err
		}
	}
	payments, err := s.payments.ListByInvoice(ctx, companyID, invoiceID)
	if err != nil {
		return nil, "", err
	}
	pdf, err := s.renderer.RenderInvoiceStatement(ctx, Statement{
		Company:  company,
		Customer: customer,
		Invoice:  inv,
		Balance:  billing.BalanceOf(*inv),
		Payments: payments,
	})
	if err != nil {
		return nil, "", err
	}
	return pdf, inv.Number + ".pdf", nil
}

func (s *Service) getInvoice(ctx context.Context, companyID, invoiceID string) (*entity.Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.NewNotFoundError("factura", invoiceID)
	}
	return inv, nil
}

func toPaymentResponse(p *entity.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:          p.ID,
		CompanyID:   p.CompanyID,
		InvoiceID:   p.InvoiceID,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Method:      string(p.Method),
		PaymentDate: p.PaymentDate,
		Reference:   p.Reference,
		Notes:       p.Notes,
		CreatedAt:   p.CreatedAt,
	}
}

func toInvoiceResponse(inv *entity.Invoice, payments []*entity.Payment) dto.InvoiceResponse {
	b := billing.BalanceOf(*inv)
	out := dto.InvoiceResponse{
		ID:          inv.ID,
		CompanyID:   inv.CompanyID,
		OrderID:     inv.OrderID,
		CustomerID:  inv.CustomerID,
		Number:      inv.Number,
		Status:      string(inv.Status),
		Currency:    inv.Currency,
		TotalAmount: b.Total,
		TaxAmount:   billing.RoundMoney(inv.TaxAmount),
		PaidAmount:  b.Paid,
		Outstanding: b.Outstanding,
		Overpaid:    b.Overpaid,
		IssuedDate:  inv.IssuedDate,
		DueDate:     inv.DueDate,
		Notes:       inv.Notes,
		CreatedAt:   inv.CreatedAt,
		UpdatedAt:   inv.UpdatedAt,
	}
	for _, p := range payments {
		out.Payments = append(out.Payments, toPaymentResponse(p))
	}
	return out
}
