package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

func TestRun_RollbackRestoresState(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	boom := errors.New("boom")
	err := s.Run(ctx, func(ctx context.Context, tx repository.TxRepositories) error {
		require.NoError(t, tx.Movements.Create(ctx, &entity.StockMovement{ID: "m1", CompanyID: "c1", Type: entity.MovementIn, Quantity: decimal.NewFromInt(3)}))
		require.NoError(t, tx.Levels.Upsert(ctx, &entity.StockLevel{CompanyID: "c1", WarehouseID: "w1", ProductID: "p1", Quantity: decimal.NewFromInt(3)}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	movs, err := s.Movements().ListAll(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, movs)
	levels, err := s.Levels().List(ctx, "c1", repository.LevelFilter{})
	require.NoError(t, err)
	assert.Empty(t, levels)
}

func TestRun_CommitKeepsState(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Run(ctx, func(ctx context.Context, tx repository.TxRepositories) error {
		return tx.Movements.Create(ctx, &entity.StockMovement{ID: "m1", CompanyID: "c1", Type: entity.MovementIn, Quantity: decimal.NewFromInt(3)})
	}))
	movs, err := s.Movements().ListAll(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, movs, 1)
}

func TestTenantIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Warehouses().Create(ctx, &entity.Warehouse{ID: "w1", CompanyID: "c1", Name: "Central", IsActive: true}))

	w, err := s.Warehouses().GetByID(ctx, "c2", "w1")
	require.NoError(t, err)
	assert.Nil(t, w)

	w, err = s.Warehouses().GetByID(ctx, "c1", "w1")
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, "Central", w.Name)
}

func TestLevels_GetForUpdateMissingIsZero(t *testing.T) {
	l, err := NewStore().Levels().GetForUpdate(context.Background(), "c1", "w1", "p1")
	require.NoError(t, err)
	assert.True(t, l.Quantity.IsZero())
	assert.True(t, l.Reserved.IsZero())
	assert.Equal(t, "w1", l.WarehouseID)
}

func TestLevels_ReplaceAllOnlyTouchesCompany(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	lv := s.Levels()
	require.NoError(t, lv.Upsert(ctx, &entity.StockLevel{CompanyID: "c1", WarehouseID: "w1", ProductID: "p1", Quantity: decimal.NewFromInt(9)}))
	require.NoError(t, lv.Upsert(ctx, &entity.StockLevel{CompanyID: "c2", WarehouseID: "w9", ProductID: "p9", Quantity: decimal.NewFromInt(1)}))

	n, err := lv.ReplaceAll(ctx, "c1", []entity.StockLevel{{WarehouseID: "w1", ProductID: "p2", Quantity: decimal.NewFromInt(4)}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	c1, _ := lv.List(ctx, "c1", repository.LevelFilter{})
	require.Len(t, c1, 1)
	assert.Equal(t, "p2", c1[0].ProductID)
	c2, _ := lv.List(ctx, "c2", repository.LevelFilter{})
	assert.Len(t, c2, 1)
}

func TestMovements_ListFiltersAndPaginates(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, ref := range []string{"o1", "o1", "o2"} {
		require.NoError(t, s.Movements().Create(ctx, &entity.StockMovement{
			ID: string(rune('a' + i)), CompanyID: "c1", WarehouseID: "w1", ProductID: "p1",
			Type: entity.MovementReserved, Quantity: decimal.NewFromInt(1),
			ReferenceType: entity.ReferenceOrder, ReferenceID: ref, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	got, err := s.Movements().List(ctx, "c1", repository.MovementFilter{ReferenceID: "o1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)

	got, err = s.Movements().List(ctx, "c1", repository.MovementFilter{Page: repository.Page{Limit: 1, Offset: 1}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

func TestUniqueConstraints(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Products().Create(ctx, &entity.Product{ID: "p1", CompanyID: "c1", SKU: "A-1"}))
	assert.ErrorIs(t, s.Products().Create(ctx, &entity.Product{ID: "p2", CompanyID: "c1", SKU: "A-1"}), domain.ErrDuplicate)
	assert.NoError(t, s.Products().Create(ctx, &entity.Product{ID: "p3", CompanyID: "c2", SKU: "A-1"}))

	require.NoError(t, s.Invoices().Create(ctx, &entity.Invoice{ID: "i1", CompanyID: "c1", Number: "F-1", OrderID: "o1"}))
	assert.ErrorIs(t, s.Invoices().Create(ctx, &entity.Invoice{ID: "i2", CompanyID: "c1", Number: "F-2", OrderID: "o1"}), domain.ErrDuplicate)
}
