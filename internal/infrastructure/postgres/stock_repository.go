package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

var (
	_ repository.StockMovementRepository = (*StockMovementRepo)(nil)
	_ repository.StockLevelRepository    = (*StockLevelRepo)(nil)
)

// StockMovementRepo libro de movimientos (solo INSERT) sobre PostgreSQL.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador.
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, company_id, warehouse_id, product_id, movement_type, quantity, unit_cost,
	reference_id, reference_type, notes, COALESCE(created_by::text, '') AS created_by, created_at`

type movementRow struct {
	ID            string
	CompanyID     string
	WarehouseID   string
	ProductID     string
	MovementType  string
	Quantity      decimal.Decimal
	UnitCost      decimal.NullDecimal
	ReferenceID   string
	ReferenceType string
	Notes         string
	CreatedBy     string
	CreatedAt     time.Time
}

func (r movementRow) toEntity() entity.StockMovement {
	m := entity.StockMovement{
		ID:            r.ID,
		CompanyID:     r.CompanyID,
		WarehouseID:   r.WarehouseID,
		ProductID:     r.ProductID,
		Type:          entity.MovementType(r.MovementType),
		Quantity:      r.Quantity,
		ReferenceID:   r.ReferenceID,
		ReferenceType: r.ReferenceType,
		Notes:         r.Notes,
		CreatedByID:   r.CreatedBy,
		CreatedAt:     r.CreatedAt,
	}
	if r.UnitCost.Valid {
		c := r.UnitCost.Decimal
		m.UnitCost = &c
	}
	return m
}

// Create inserta un movimiento.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_movements (id, company_id, warehouse_id, product_id, movement_type, quantity, unit_cost,
			reference_id, reference_type, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		m.ID, m.CompanyID, m.WarehouseID, m.ProductID, string(m.Type), m.Quantity, m.UnitCost,
		m.ReferenceID, m.ReferenceType, m.Notes, nullIfEmpty(m.CreatedByID), m.CreatedAt,
	)
	return wrapWrite("insert stock movement", err)
}

// List historial filtrado, más recientes primero.
func (r *StockMovementRepo) List(ctx context.Context, companyID string, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	q := builder().Select(movementColumns).From("stock_movements").
		Where(squirrel.Eq{"company_id": companyID})
	if f.WarehouseID != "" {
		q = q.Where(squirrel.Eq{"warehouse_id": f.WarehouseID})
	}
	if f.ProductID != "" {
		q = q.Where(squirrel.Eq{"product_id": f.ProductID})
	}
	if f.ReferenceType != "" {
		q = q.Where(squirrel.Eq{"reference_type": f.ReferenceType})
	}
	if f.ReferenceID != "" {
		q = q.Where(squirrel.Eq{"reference_id": f.ReferenceID})
	}
	if f.Since != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *f.Since})
	}
	sql, args, err := paginate(q.OrderBy("created_at DESC", "id DESC"), f.Page).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var rows []movementRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	out := make([]*entity.StockMovement, 0, len(rows))
	for _, row := range rows {
		m := row.toEntity()
		out = append(out, &m)
	}
	return out, nil
}

// ListAll historial completo de la empresa para plegarlo.
func (r *StockMovementRepo) ListAll(ctx context.Context, companyID string) ([]entity.StockMovement, error) {
	var rows []movementRow
	err := pgxscan.Select(ctx, r.q, &rows,
		`SELECT `+movementColumns+` FROM stock_movements WHERE company_id = $1 ORDER BY created_at, id`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list all stock movements: %w", err)
	}
	out := make([]entity.StockMovement, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

// StockLevelRepo niveles materializados sobre PostgreSQL.
type StockLevelRepo struct {
	q Querier
}

// NewStockLevelRepository construye el adaptador.
func NewStockLevelRepository(q Querier) *StockLevelRepo {
	return &StockLevelRepo{q: q}
}

// GetForUpdate bloquea la fila del nivel; si no existe la crea en cero para poder bloquearla.
// La fila creada vive en la misma transacción: si esta se revierte, desaparece.
func (r *StockLevelRepo) GetForUpdate(ctx context.Context, companyID, warehouseID, productID string) (*entity.StockLevel, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_levels (company_id, warehouse_id, product_id, quantity, reserved, updated_at)
		VALUES ($1, $2, $3, 0, 0, now())
		ON CONFLICT (company_id, warehouse_id, product_id) DO NOTHING`,
		companyID, warehouseID, productID)
	if err != nil {
		return nil, fmt.Errorf("ensure stock level: %w", err)
	}
	l := entity.StockLevel{CompanyID: companyID, WarehouseID: warehouseID, ProductID: productID}
	err = r.q.QueryRow(ctx, `
		SELECT quantity, reserved, updated_at FROM stock_levels
		WHERE company_id = $1 AND warehouse_id = $2 AND product_id = $3
		FOR UPDATE`, companyID, warehouseID, productID).Scan(&l.Quantity, &l.Reserved, &l.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("lock stock level: %w", err)
	}
	return &l, nil
}

// Upsert guarda el nivel.
func (r *StockLevelRepo) Upsert(ctx context.Context, l *entity.StockLevel) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_levels (company_id, warehouse_id, product_id, quantity, reserved, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (company_id, warehouse_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, reserved = EXCLUDED.reserved, updated_at = EXCLUDED.updated_at`,
		l.CompanyID, l.WarehouseID, l.ProductID, l.Quantity, l.Reserved, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert stock level: %w", err)
	}
	return nil
}

// List niveles de la empresa ordenados por bodega y producto.
func (r *StockLevelRepo) List(ctx context.Context, companyID string, f repository.LevelFilter) ([]entity.StockLevel, error) {
	q := builder().
		Select("company_id", "warehouse_id", "product_id", "quantity", "reserved", "updated_at").
		From("stock_levels").
		Where(squirrel.Eq{"company_id": companyID})
	if f.WarehouseID != "" {
		q = q.Where(squirrel.Eq{"warehouse_id": f.WarehouseID})
	}
	if f.ProductID != "" {
		q = q.Where(squirrel.Eq{"product_id": f.ProductID})
	}
	sql, args, err := q.OrderBy("warehouse_id", "product_id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []entity.StockLevel
	if err := pgxscan.Select(ctx, r.q, &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list stock levels: %w", err)
	}
	return out, nil
}

// ReplaceAll reemplaza todos los niveles de la empresa con COPY.
func (r *StockLevelRepo) ReplaceAll(ctx context.Context, companyID string, levels []entity.StockLevel) (int, error) {
	if _, err := r.q.Exec(ctx, `DELETE FROM stock_levels WHERE company_id = $1`, companyID); err != nil {
		return 0, fmt.Errorf("clear stock levels: %w", err)
	}
	if len(levels) == 0 {
		return 0, nil
	}
	rows := make([][]any, 0, len(levels))
	for _, l := range levels {
		rows = append(rows, []any{companyID, l.WarehouseID, l.ProductID, l.Quantity, l.Reserved, l.UpdatedAt})
	}
	n, err := r.q.CopyFrom(ctx, pgx.Identifier{"stock_levels"},
		[]string{"company_id", "warehouse_id", "product_id", "quantity", "reserved", "updated_at"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy stock levels: %w", err)
	}
	return int(n), nil
}
