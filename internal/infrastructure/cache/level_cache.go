package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/erp-ledger/internal/application/inventory"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

var _ inventory.LevelCache = (*LevelCache)(nil)

const keyPrefix = "erp-ledger:stock-levels"

// LevelCache caché versionada de niveles en Redis. Cada empresa tiene su contador de versión;
// invalidar es incrementarlo, las claves viejas dejan de leerse y expiran por TTL.
type LevelCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	group  singleflight.Group
}

// NewLevelCache construye la caché. ttl <= 0 usa un minuto.
func NewLevelCache(client redis.UniversalClient, ttl time.Duration) *LevelCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &LevelCache{client: client, ttl: ttl}
}

func versionKey(companyID string) string {
	return fmt.Sprintf("%s:%s:version", keyPrefix, companyID)
}

func levelsKey(companyID string, version int64, f repository.LevelFilter) string {
	return fmt.Sprintf("%s:%s:v%d:w=%s:p=%s", keyPrefix, companyID, version, f.WarehouseID, f.ProductID)
}

func (c *LevelCache) version(ctx context.Context, companyID string) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(companyID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Levels devuelve los niveles cacheados o los carga con load. Si Redis falla se lee directo de la fuente.
func (c *LevelCache) Levels(ctx context.Context, companyID string, f repository.LevelFilter, load inventory.LevelLoader) ([]entity.StockLevel, error) {
	ver, err := c.version(ctx, companyID)
	if err != nil {
		log.Warn().Err(err).Str("company_id", companyID).Msg("caché de niveles no disponible")
		return load(ctx)
	}
	key := levelsKey(companyID, ver, f)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var levels []entity.StockLevel
		if err := json.Unmarshal(payload, &levels); err == nil {
			return levels, nil
		}
		log.Warn().Str("key", key).Msg("entrada de caché corrupta, se recarga")
	} else if !errors.Is(err, redis.Nil) {
		log.Warn().Err(err).Str("company_id", companyID).Msg("caché de niveles no disponible")
		return load(ctx)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// la carga es compartida: no depende de la cancelación del primer llamador
		ctx := context.WithoutCancel(ctx)
		levels, err := load(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(levels)
		if err != nil {
			return nil, fmt.Errorf("serializar niveles: %w", err)
		}
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("no se pudo escribir la caché de niveles")
		}
		return levels, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]entity.StockLevel), nil
}

// Invalidate sube la versión de la empresa.
func (c *LevelCache) Invalidate(ctx context.Context, companyID string) error {
	return c.client.Incr(ctx, versionKey(companyID)).Err()
}
