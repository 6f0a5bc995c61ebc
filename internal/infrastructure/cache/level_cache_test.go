package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

func newTestCache(t *testing.T) (*LevelCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLevelCache(client, time.Minute), mr
}

type countingLoader struct {
	calls  int
	levels []entity.StockLevel
	err    error
}

func (l *countingLoader) load(context.Context) ([]entity.StockLevel, error) {
	l.calls++
	return l.levels, l.err
}

func sampleLevels() []entity.StockLevel {
	return []entity.StockLevel{{
		CompanyID:   "c1",
		WarehouseID: "w1",
		ProductID:   "p1",
		Quantity:    decimal.RequireFromString("7.5"),
		Reserved:    decimal.RequireFromString("2"),
	}}
}

func TestLevels_HitAfterFirstLoad(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	loader := &countingLoader{levels: sampleLevels()}

	first, err := c.Levels(ctx, "c1", repository.LevelFilter{}, loader.load)
	require.NoError(t, err)
	second, err := c.Levels(ctx, "c1", repository.LevelFilter{}, loader.load)
	require.NoError(t, err)

	assert.Equal(t, 1, loader.calls)
	require.Len(t, second, 1)
	assert.True(t, second[0].Quantity.Equal(first[0].Quantity))
	assert.True(t, second[0].Available().Equal(decimal.RequireFromString("5.5")))
}

func TestInvalidate_ForcesReload(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	loader := &countingLoader{levels: sampleLevels()}

	_, err := c.Levels(ctx, "c1", repository.LevelFilter{}, loader.load)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, "c1"))
	_, err = c.Levels(ctx, "c1", repository.LevelFilter{}, loader.load)
	require.NoError(t, err)

	assert.Equal(t, 2, loader.calls)
}

func TestLevels_KeyedByCompanyAndFilter(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	loader := &countingLoader{levels: sampleLevels()}

	_, _ = c.Levels(ctx, "c1", repository.LevelFilter{}, loader.load)
	_, _ = c.Levels(ctx, "c1", repository.LevelFilter{WarehouseID: "w1"}, loader.load)
	_, _ = c.Levels(ctx, "c2", repository.LevelFilter{}, loader.load)
	assert.Equal(t, 3, loader.calls)

	// invalidar c2 no afecta a c1
	require.NoError(t, c.Invalidate(ctx, "c2"))
	_, _ = c.Levels(ctx, "c1", repository.LevelFilter{}, loader.load)
	assert.Equal(t, 3, loader.calls)
}

func TestLevels_LoaderErrorNotCached(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	loader := &countingLoader{err: errors.New("db caída")}

	_, err := c.Levels(ctx, "c1", repository.LevelFilter{}, loader.load)
	require.Error(t, err)

	loader.err = nil
	loader.levels = sampleLevels()
	got, err := c.Levels(ctx, "c1", repository.LevelFilter{}, loader.load)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 2, loader.calls)
}

func TestLevels_RedisDownFallsBackToLoader(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()
	loader := &countingLoader{levels: sampleLevels()}

	got, err := c.Levels(context.Background(), "c1", repository.LevelFilter{}, loader.load)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, loader.calls)
}

func TestLevels_EntriesExpire(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	loader := &countingLoader{levels: sampleLevels()}

	_, _ = c.Levels(ctx, "c1", repository.LevelFilter{}, loader.load)
	mr.FastForward(2 * time.Minute)
	_, _ = c.Levels(ctx, "c1", repository.LevelFilter{}, loader.load)
	assert.Equal(t, 2, loader.calls)
}

func TestLevels_LoadSurvivesCallerCancellation(t *testing.T) {
	c, _ := newTestCache(t)
	ctx, cancel := context.WithCancel(context.Background())
	loader := &countingLoader{levels: sampleLevels()}

	// el llamador se cancela durante la carga compartida
	levels, err := c.Levels(ctx, "c1", repository.LevelFilter{}, func(ctx context.Context) ([]entity.StockLevel, error) {
		cancel()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return loader.load(ctx)
	})
	require.NoError(t, err)
	require.Len(t, levels, 1)

	_, err = c.Levels(context.Background(), "c1", repository.LevelFilter{}, loader.load)
	require.NoError(t, err)
	assert.Equal(t, 1, loader.calls, "la carga se guardó en caché pese a la cancelación")
}
