package memory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/ledger"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

// Movements repositorio del libro de movimientos.
func (s *Store) Movements() repository.StockMovementRepository { return movementRepo{s.view()} }

// Levels repositorio de niveles materializados.
func (s *Store) Levels() repository.StockLevelRepository { return levelRepo{s.view()} }

// Audit repositorio de bitácora.
func (s *Store) Audit() repository.AuditRepository { return auditRepo{s.view()} }

// Locker no-op: las transacciones en memoria ya están serializadas.
func (s *Store) Locker() repository.LedgerLocker { return noopLocker{} }

type movementRepo struct{ view }

func (r movementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	return r.write(func(st *state) error {
		st.movements = append(st.movements, *m)
		return nil
	})
}

func (r movementRepo) List(_ context.Context, companyID string, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	var matched []entity.StockMovement
	r.read(func(st *state) {
		for _, m := range st.movements {
			if m.CompanyID != companyID ||
				(f.WarehouseID != "" && m.WarehouseID != f.WarehouseID) ||
				(f.ProductID != "" && m.ProductID != f.ProductID) ||
				(f.ReferenceType != "" && m.ReferenceType != f.ReferenceType) ||
				(f.ReferenceID != "" && m.ReferenceID != f.ReferenceID) ||
				(f.Since != nil && m.CreatedAt.Before(*f.Since)) {
				continue
			}
			matched = append(matched, m)
		}
	})
	newestFirst(matched, func(m entity.StockMovement) int64 { return m.CreatedAt.UnixNano() })
	lo, hi := paginate(len(matched), f.Page)
	out := make([]*entity.StockMovement, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, &matched[i])
	}
	return out, nil
}

func (r movementRepo) ListAll(_ context.Context, companyID string) ([]entity.StockMovement, error) {
	var out []entity.StockMovement
	r.read(func(st *state) {
		for _, m := range st.movements {
			if m.CompanyID == companyID {
				out = append(out, m)
			}
		}
	})
	return out, nil
}

type levelRepo struct{ view }

func (r levelRepo) GetForUpdate(_ context.Context, companyID, warehouseID, productID string) (*entity.StockLevel, error) {
	out := &entity.StockLevel{
		CompanyID:   companyID,
		WarehouseID: warehouseID,
		ProductID:   productID,
		Quantity:    decimal.Zero,
		Reserved:    decimal.Zero,
	}
	r.read(func(st *state) {
		if l, ok := st.levels[levelKey{companyID, warehouseID, productID}]; ok {
			*out = l
		}
	})
	return out, nil
}

func (r levelRepo) Upsert(_ context.Context, l *entity.StockLevel) error {
	return r.write(func(st *state) error {
		st.levels[levelKey{l.CompanyID, l.WarehouseID, l.ProductID}] = *l
		return nil
	})
}

func (r levelRepo) List(_ context.Context, companyID string, f repository.LevelFilter) ([]entity.StockLevel, error) {
	var out []entity.StockLevel
	r.read(func(st *state) {
		for k, l := range st.levels {
			if k.companyID == companyID && f.Matches(k.warehouseID, k.productID) {
				out = append(out, l)
			}
		}
	})
	ledger.SortLevels(out)
	return out, nil
}

func (r levelRepo) ReplaceAll(_ context.Context, companyID string, levels []entity.StockLevel) (int, error) {
	err := r.write(func(st *state) error {
		for k := range st.levels {
			if k.companyID == companyID {
				delete(st.levels, k)
			}
		}
		for _, l := range levels {
			l.CompanyID = companyID
			st.levels[levelKey{companyID, l.WarehouseID, l.ProductID}] = l
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(levels), nil
}

type auditRepo struct{ view }

func (r auditRepo) Create(_ context.Context, l *entity.AuditLog) error {
	return r.write(func(st *state) error {
		st.audit = append(st.audit, *l)
		return nil
	})
}

func (r auditRepo) List(_ context.Context, companyID string, f repository.AuditFilter) ([]*entity.AuditLog, error) {
	var matched []entity.AuditLog
	r.read(func(st *state) {
		for _, l := range st.audit {
			if l.CompanyID != companyID ||
				(f.EntityType != "" && l.EntityType != f.EntityType) ||
				(f.EntityID != "" && l.EntityID != f.EntityID) {
				continue
			}
			matched = append(matched, l)
		}
	})
	newestFirst(matched, func(l entity.AuditLog) int64 { return l.CreatedAt.UnixNano() })
	lo, hi := paginate(len(matched), f.Page)
	out := make([]*entity.AuditLog, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, &matched[i])
	}
	return out, nil
}
