package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

var (
	_ repository.CustomerRepository = (*CustomerRepo)(nil)
	_ repository.SupplierRepository = (*SupplierRepo)(nil)
)

const partnerColumns = `id, company_id, name, tax_id, email, phone, created_at, updated_at`

// CustomerRepo clientes sobre PostgreSQL.
type CustomerRepo struct {
	q Querier
}

// NewCustomerRepository construye el adaptador.
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

func (r *CustomerRepo) Create(ctx context.Context, c *entity.Customer) error {
	_, err := r.q.Exec(ctx, `INSERT INTO customers (`+partnerColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.CompanyID, c.Name, c.TaxID, c.Email, c.Phone, c.CreatedAt, c.UpdatedAt)
	return wrapWrite("insert customer", err)
}

func (r *CustomerRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Customer, error) {
	var c entity.Customer
	err := r.q.QueryRow(ctx, `SELECT `+partnerColumns+` FROM customers WHERE id = $1 AND company_id = $2`, id, companyID).Scan(
		&c.ID, &c.CompanyID, &c.Name, &c.TaxID, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

func (r *CustomerRepo) ListByCompany(ctx context.Context, companyID string, page repository.Page) ([]*entity.Customer, error) {
	var out []*entity.Customer
	if err := listPartners(ctx, r.q, "customers", companyID, page, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SupplierRepo proveedores sobre PostgreSQL.
type SupplierRepo struct {
	q Querier
}

// NewSupplierRepository construye el adaptador.
func NewSupplierRepository(q Querier) *SupplierRepo {
	return &SupplierRepo{q: q}
}

func (r *SupplierRepo) Create(ctx context.Context, s *entity.Supplier) error {
	_, err := r.q.Exec(ctx, `INSERT INTO suppliers (`+partnerColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.CompanyID, s.Name, s.TaxID, s.Email, s.Phone, s.CreatedAt, s.UpdatedAt)
	return wrapWrite("insert supplier", err)
}

func (r *SupplierRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Supplier, error) {
	var s entity.Supplier
	err := r.q.QueryRow(ctx, `SELECT `+partnerColumns+` FROM suppliers WHERE id = $1 AND company_id = $2`, id, companyID).Scan(
		&s.ID, &s.CompanyID, &s.Name, &s.TaxID, &s.Email, &s.Phone, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get supplier: %w", err)
	}
	return &s, nil
}

func (r *SupplierRepo) ListByCompany(ctx context.Context, companyID string, page repository.Page) ([]*entity.Supplier, error) {
	var out []*entity.Supplier
	if err := listPartners(ctx, r.q, "suppliers", companyID, page, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func listPartners(ctx context.Context, q Querier, table, companyID string, page repository.Page, dst any) error {
	sel := builder().Select(partnerColumns).From(table).
		Where(squirrel.Eq{"company_id": companyID}).
		OrderBy("name")
	sql, args, err := paginate(sel, page).ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, q, dst, sql, args...); err != nil {
		return fmt.Errorf("list %s: %w", table, err)
	}
	return nil
}
