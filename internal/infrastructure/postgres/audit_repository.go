package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo bitácora sobre PostgreSQL (solo INSERT).
type AuditRepo struct {
	q Querier
}

func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

func (r *AuditRepo) Create(ctx context.Context, l *entity.AuditLog) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO audit_logs (id, company_id, action, entity_type, entity_id, old_values, new_values,
			compression, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		l.ID, l.CompanyID, l.Action, l.EntityType, l.EntityID, l.OldValues, l.NewValues,
		l.Compression, l.ActorID, l.CreatedAt,
	)
	return wrapWrite("insert audit log", err)
}

// List entradas de la empresa, más recientes primero.
func (r *AuditRepo) List(ctx context.Context, companyID string, f repository.AuditFilter) ([]*entity.AuditLog, error) {
	q := builder().
		Select("id", "company_id", "action", "entity_type", "entity_id", "old_values", "new_values",
			"compression", "actor_id", "created_at").
		From("audit_logs").
		Where(squirrel.Eq{"company_id": companyID})
	if f.EntityType != "" {
		q = q.Where(squirrel.Eq{"entity_type": f.EntityType})
	}
	if f.EntityID != "" {
		q = q.Where(squirrel.Eq{"entity_id": f.EntityID})
	}
	sql, args, err := paginate(q.OrderBy("created_at DESC"), f.Page).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []*entity.AuditLog
	if err := pgxscan.Select(ctx, r.q, &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return out, nil
}
