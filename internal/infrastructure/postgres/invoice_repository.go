package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

var (
	_ repository.InvoiceRepository = (*InvoiceRepo)(nil)
	_ repository.PaymentRepository = (*PaymentRepo)(nil)
)

// InvoiceRepo facturas sobre PostgreSQL.
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador.
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `id, company_id, COALESCE(order_id::text, '') AS order_id, COALESCE(customer_id::text, '') AS customer_id,
	number, status, currency, total_amount, tax_amount, paid_amount, issued_date, due_date, notes,
	COALESCE(created_by::text, '') AS created_by, created_at, updated_at`

type invoiceRow struct {
	ID          string
	CompanyID   string
	OrderID     string
	CustomerID  string
	Number      string
	Status      string
	Currency    string
	TotalAmount decimal.Decimal
	TaxAmount   decimal.Decimal
	PaidAmount  decimal.Decimal
	IssuedDate  time.Time
	DueDate     *time.Time
	Notes       string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r invoiceRow) toEntity() *entity.Invoice {
	return &entity.Invoice{
		ID:          r.ID,
		CompanyID:   r.CompanyID,
		OrderID:     r.OrderID,
		CustomerID:  r.CustomerID,
		Number:      r.Number,
		Status:      entity.InvoiceStatus(r.Status),
		Currency:    r.Currency,
		TotalAmount: r.TotalAmount,
		TaxAmount:   r.TaxAmount,
		PaidAmount:  r.PaidAmount,
		IssuedDate:  r.IssuedDate,
		DueDate:     r.DueDate,
		Notes:       r.Notes,
		CreatedByID: r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// Create inserta la cabecera. Número y orden duplicados devuelven domain.ErrDuplicate.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO invoices (id, company_id, order_id, customer_id, number, status, currency, total_amount,
			tax_amount, paid_amount, issued_date, due_date, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		inv.ID, inv.CompanyID, nullIfEmpty(inv.OrderID), nullIfEmpty(inv.CustomerID), inv.Number, string(inv.Status),
		inv.Currency, inv.TotalAmount, inv.TaxAmount, inv.PaidAmount, inv.IssuedDate, inv.DueDate, inv.Notes,
		nullIfEmpty(inv.CreatedByID), inv.CreatedAt, inv.UpdatedAt,
	)
	return wrapWrite("insert invoice", err)
}

func (r *InvoiceRepo) getOne(ctx context.Context, where string, args ...any) (*entity.Invoice, error) {
	var row invoiceRow
	err := pgxscan.Get(ctx, r.q, &row, `SELECT `+invoiceColumns+` FROM invoices WHERE `+where, args...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return row.toEntity(), nil
}

// GetByID factura de la empresa; nil si no existe.
func (r *InvoiceRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Invoice, error) {
	return r.getOne(ctx, `id = $1 AND company_id = $2`, id, companyID)
}

// GetForUpdate bloquea la fila hasta el fin de la transacción; serializa los pagos concurrentes.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.Invoice, error) {
	return r.getOne(ctx, `id = $1 AND company_id = $2 FOR UPDATE`, id, companyID)
}

func (r *InvoiceRepo) GetByOrderID(ctx context.Context, companyID, orderID string) (*entity.Invoice, error) {
	return r.getOne(ctx, `order_id = $1 AND company_id = $2`, orderID, companyID)
}

// List facturas de la empresa, más recientes primero.
func (r *InvoiceRepo) List(ctx context.Context, companyID string, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	q := builder().Select(invoiceColumns).From("invoices").Where(squirrel.Eq{"company_id": companyID})
	if f.Status != "" {
		q = q.Where(squirrel.Eq{"status": f.Status})
	}
	sql, args, err := paginate(q.OrderBy("issued_date DESC", "created_at DESC"), f.Page).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var rows []invoiceRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	out := make([]*entity.Invoice, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

// UpdateSettlement persiste solo paid_amount y status.
func (r *InvoiceRepo) UpdateSettlement(ctx context.Context, inv *entity.Invoice) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE invoices SET paid_amount = $3, status = $4, updated_at = $5
		WHERE id = $1 AND company_id = $2`,
		inv.ID, inv.CompanyID, inv.PaidAmount, string(inv.Status), inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update invoice settlement: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// PaymentRepo pagos sobre PostgreSQL.
type PaymentRepo struct {
	q Querier
}

// NewPaymentRepository construye el adaptador.
func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

const paymentColumns = `id, company_id, COALESCE(invoice_id::text, '') AS invoice_id, amount, currency, payment_method,
	payment_date, reference, notes, COALESCE(created_by::text, '') AS created_by, created_at`

type paymentRow struct {
	ID            string
	CompanyID     string
	InvoiceID     string
	Amount        decimal.Decimal
	Currency      string
	PaymentMethod string
	PaymentDate   time.Time
	Reference     string
	Notes         string
	CreatedBy     string
	CreatedAt     time.Time
}

func (r paymentRow) toEntity() *entity.Payment {
	return &entity.Payment{
		ID:          r.ID,
		CompanyID:   r.CompanyID,
		InvoiceID:   r.InvoiceID,
		Amount:      r.Amount,
		Currency:    r.Currency,
		Method:      entity.PaymentMethod(r.PaymentMethod),
		PaymentDate: r.PaymentDate,
		Reference:   r.Reference,
		Notes:       r.Notes,
		CreatedByID: r.CreatedBy,
		CreatedAt:   r.CreatedAt,
	}
}

func (r *PaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO payments (id, company_id, invoice_id, amount, currency, payment_method, payment_date,
			reference, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.CompanyID, nullIfEmpty(p.InvoiceID), p.Amount, p.Currency, string(p.Method), p.PaymentDate,
		p.Reference, p.Notes, nullIfEmpty(p.CreatedByID), p.CreatedAt,
	)
	return wrapWrite("insert payment", err)
}

// ListByInvoice pagos de una factura en orden cronológico.
func (r *PaymentRepo) ListByInvoice(ctx context.Context, companyID, invoiceID string) ([]*entity.Payment, error) {
	sql, args, err := builder().Select(paymentColumns).From("payments").
		Where(squirrel.Eq{"company_id": companyID, "invoice_id": invoiceID}).
		OrderBy("payment_date", "created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return r.selectRows(ctx, sql, args...)
}

// List pagos de la empresa, más recientes primero.
func (r *PaymentRepo) List(ctx context.Context, companyID string, page repository.Page) ([]*entity.Payment, error) {
	q := builder().Select(paymentColumns).From("payments").
		Where(squirrel.Eq{"company_id": companyID}).
		OrderBy("payment_date DESC", "created_at DESC")
	sql, args, err := paginate(q, page).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return r.selectRows(ctx, sql, args...)
}

func (r *PaymentRepo) selectRows(ctx context.Context, sql string, args ...any) ([]*entity.Payment, error) {
	var rows []paymentRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	out := make([]*entity.Payment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

// SumByInvoice total pagado de una factura; cero si no tiene pagos.
func (r *PaymentRepo) SumByInvoice(ctx context.Context, companyID, invoiceID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE company_id = $1 AND invoice_id = $2`,
		companyID, invoiceID,
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum payments: %w", err)
	}
	return sum, nil
}
