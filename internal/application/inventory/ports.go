package inventory

import (
	"context"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

// LevelLoader lee los niveles de la fuente de verdad cuando la caché no los tiene.
type LevelLoader func(ctx context.Context) ([]entity.StockLevel, error)

// LevelCache caché de lectura de niveles por empresa y filtro.
type LevelCache interface {
	Levels(ctx context.Context, companyID string, f repository.LevelFilter, load LevelLoader) ([]entity.StockLevel, error)
	Invalidate(ctx context.Context, companyID string) error
}

// RecalcEnqueuer encola la reconstrucción de niveles para un worker.
type RecalcEnqueuer interface {
	EnqueueRecalculate(ctx context.Context, companyID string) (string, error)
}

type noCache struct{}

func (noCache) Levels(ctx context.Context, _ string, _ repository.LevelFilter, load LevelLoader) ([]entity.StockLevel, error) {
	return load(ctx)
}

func (noCache) Invalidate(context.Context, string) error { return nil }
