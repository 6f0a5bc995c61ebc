package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

var _ repository.LedgerLocker = (*LedgerLocker)(nil)

// LedgerLocker bloqueos consultivos por empresa, liberados al terminar la transacción.
// Los movimientos toman el compartido; la reconstrucción de niveles el exclusivo.
type LedgerLocker struct {
	q Querier
}

// NewLedgerLocker debe recibir una pgx.Tx: fuera de transacción el bloqueo se liberaría de inmediato.
func NewLedgerLocker(q Querier) *LedgerLocker {
	return &LedgerLocker{q: q}
}

func (l *LedgerLocker) LockShared(ctx context.Context, companyID string) error {
	if _, err := l.q.Exec(ctx, `SELECT pg_advisory_xact_lock_shared(hashtext($1))`, companyID); err != nil {
		return fmt.Errorf("lock shared ledger: %w", err)
	}
	return nil
}

func (l *LedgerLocker) LockExclusive(ctx context.Context, companyID string) error {
	if _, err := l.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, companyID); err != nil {
		return fmt.Errorf("lock exclusive ledger: %w", err)
	}
	return nil
}
