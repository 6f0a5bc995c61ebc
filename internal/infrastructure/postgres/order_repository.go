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

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo órdenes y sus líneas sobre PostgreSQL.
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Create debe correr dentro de una transacción.
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

const orderColumns = `id, company_id, number, order_type, COALESCE(customer_id::text, '') AS customer_id,
	COALESCE(supplier_id::text, '') AS supplier_id, status, currency, total_amount, notes,
	COALESCE(created_by::text, '') AS created_by, created_at, updated_at`

type orderRow struct {
	ID          string
	CompanyID   string
	Number      string
	OrderType   string
	CustomerID  string
	SupplierID  string
	Status      string
	Currency    string
	TotalAmount decimal.Decimal
	Notes       string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r orderRow) toEntity() *entity.Order {
	return &entity.Order{
		ID:          r.ID,
		CompanyID:   r.CompanyID,
		Number:      r.Number,
		Type:        entity.OrderType(r.OrderType),
		CustomerID:  r.CustomerID,
		SupplierID:  r.SupplierID,
		Status:      entity.OrderStatus(r.Status),
		Currency:    r.Currency,
		TotalAmount: r.TotalAmount,
		Notes:       r.Notes,
		CreatedByID: r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// Create inserta la cabecera y las líneas.
func (r *OrderRepo) Create(ctx context.Context, o *entity.Order) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO orders (id, company_id, number, order_type, customer_id, supplier_id, status, currency,
			total_amount, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		o.ID, o.CompanyID, o.Number, string(o.Type), nullIfEmpty(o.CustomerID), nullIfEmpty(o.SupplierID),
		string(o.Status), o.Currency, o.TotalAmount, o.Notes, nullIfEmpty(o.CreatedByID), o.CreatedAt, o.UpdatedAt,
	)
	if err := wrapWrite("insert order", err); err != nil {
		return err
	}
	for i, it := range o.Items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, price, tax_rate, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			it.ID, o.ID, it.ProductID, it.Quantity, it.Price, it.TaxRate, i)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

// GetByID orden con sus líneas.
func (r *OrderRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Order, error) {
	return r.get(ctx, companyID, id, "")
}

// GetForUpdate igual que GetByID bloqueando la cabecera.
func (r *OrderRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.Order, error) {
	return r.get(ctx, companyID, id, " FOR UPDATE")
}

func (r *OrderRepo) get(ctx context.Context, companyID, id, lock string) (*entity.Order, error) {
	var row orderRow
	err := pgxscan.Get(ctx, r.q, &row, `SELECT `+orderColumns+` FROM orders WHERE id = $1 AND company_id = $2`+lock, id, companyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	o := row.toEntity()
	if err := r.loadItems(ctx, []*entity.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// List órdenes filtradas, más recientes primero.
func (r *OrderRepo) List(ctx context.Context, companyID string, f repository.OrderFilter) ([]*entity.Order, error) {
	q := builder().Select(orderColumns).From("orders").Where(squirrel.Eq{"company_id": companyID})
	if f.Status != "" {
		q = q.Where(squirrel.Eq{"status": f.Status})
	}
	if f.Type != "" {
		q = q.Where(squirrel.Eq{"order_type": f.Type})
	}
	sql, args, err := paginate(q.OrderBy("created_at DESC"), f.Page).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var rows []orderRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	out := make([]*entity.Order, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	if err := r.loadItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *OrderRepo) loadItems(ctx context.Context, orders []*entity.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*entity.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}
	sql, args, err := builder().
		Select("id", "order_id", "product_id", "quantity", "price", "tax_rate").
		From("order_items").
		Where(squirrel.Eq{"order_id": ids}).
		OrderBy("order_id", "position").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	var items []entity.OrderItem
	if err := pgxscan.Select(ctx, r.q, &items, sql, args...); err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	for _, it := range items {
		if o := byID[it.OrderID]; o != nil {
			o.Items = append(o.Items, it)
		}
	}
	return nil
}

// UpdateStatus cambia el estado de la orden.
func (r *OrderRepo) UpdateStatus(ctx context.Context, companyID, id string, status entity.OrderStatus) error {
	cmd, err := r.q.Exec(ctx, `UPDATE orders SET status = $3, updated_at = now() WHERE id = $1 AND company_id = $2`,
		id, companyID, string(status))
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
