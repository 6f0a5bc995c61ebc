package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador; q puede ser el pool o una transacción.
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, company_id, sku, name, price, cost, tax_rate, unit, is_active, created_at, updated_at`

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.CompanyID, p.SKU, p.Name, p.Price, p.Cost, p.TaxRate, p.Unit, p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	return wrapWrite("insert product", err)
}

// GetByID obtiene un producto de la empresa.
func (r *ProductRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Product, error) {
	return r.findOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 AND company_id = $2`, id, companyID)
}

// GetBySKU obtiene un producto por SKU dentro de la empresa.
func (r *ProductRepo) GetBySKU(ctx context.Context, companyID, sku string) (*entity.Product, error) {
	return r.findOne(ctx, `SELECT `+productColumns+` FROM products WHERE sku = $1 AND company_id = $2`, sku, companyID)
}

func (r *ProductRepo) findOne(ctx context.Context, query string, args ...any) (*entity.Product, error) {
	var p entity.Product
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.CompanyID, &p.SKU, &p.Name, &p.Price, &p.Cost, &p.TaxRate, &p.Unit, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// ListByCompany lista productos por empresa con paginación.
func (r *ProductRepo) ListByCompany(ctx context.Context, companyID string, page repository.Page) ([]*entity.Product, error) {
	q := builder().Select(productColumns).From("products").
		Where(squirrel.Eq{"company_id": companyID}).
		OrderBy("created_at DESC")
	sql, args, err := paginate(q, page).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []*entity.Product
	if err := pgxscan.Select(ctx, r.q, &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

// Update actualiza datos de catálogo. Cost no se toca: lo mantiene UpdateCost.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE products SET name = $3, price = $4, tax_rate = $5, unit = $6, is_active = $7, updated_at = $8
		WHERE id = $1 AND company_id = $2`,
		p.ID, p.CompanyID, p.Name, p.Price, p.TaxRate, p.Unit, p.IsActive, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateCost fija el costo promedio del producto.
func (r *ProductRepo) UpdateCost(ctx context.Context, companyID, id string, cost decimal.Decimal) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE products SET cost = $3, updated_at = now()
		WHERE id = $1 AND company_id = $2`, id, companyID, cost)
	if err != nil {
		return fmt.Errorf("update product cost: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
