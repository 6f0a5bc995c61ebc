package repository

import (
	"context"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

// AuditRepository bitácora de solo escritura.
type AuditRepository interface {
	Create(ctx context.Context, l *entity.AuditLog) error
	List(ctx context.Context, companyID string, f AuditFilter) ([]*entity.AuditLog, error)
}
