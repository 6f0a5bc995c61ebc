package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/erp-ledger/internal/application/audit"
	"github.com/jhoicas/erp-ledger/internal/application/dto"
	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
	"github.com/jhoicas/erp-ledger/internal/infrastructure/memory"
)

const (
	companyA = "11111111-1111-1111-1111-111111111111"
	companyB = "22222222-2222-2222-2222-222222222222"
	whMain   = "aaaaaaaa-0000-0000-0000-000000000001"
	whAux    = "aaaaaaaa-0000-0000-0000-000000000002"
	whOther  = "bbbbbbbb-0000-0000-0000-000000000001"
	prodA    = "cccccccc-0000-0000-0000-000000000001"
	userID   = "dddddddd-0000-0000-0000-000000000001"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestService(t *testing.T, cfg Config) (*LedgerService, *memory.Store) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Now().UTC()
	for _, w := range []entity.Warehouse{
		{ID: whMain, CompanyID: companyA, Name: "Principal", IsActive: true, CreatedAt: now},
		{ID: whAux, CompanyID: companyA, Name: "Auxiliar", IsActive: true, CreatedAt: now},
		{ID: whOther, CompanyID: companyB, Name: "Ajena", IsActive: true, CreatedAt: now},
	} {
		w := w
		require.NoError(t, store.Warehouses().Create(ctx, &w))
	}
	require.NoError(t, store.Products().Create(ctx, &entity.Product{
		ID: prodA, CompanyID: companyA, SKU: "SKU-A", Name: "Tornillo", Price: dec("10"), Cost: decimal.Zero, IsActive: true, CreatedAt: now,
	}))
	rec, err := audit.NewRecorder(0)
	require.NoError(t, err)
	svc := NewLedgerService(Deps{
		Tx:         store,
		Warehouses: store.Warehouses(),
		Products:   store.Products(),
		Movements:  store.Movements(),
		Levels:     store.Levels(),
		Audit:      rec,
	}, cfg)
	return svc, store
}

func record(t *testing.T, svc *LedgerService, typ entity.MovementType, qty string) (*dto.MovementResponse, error) {
	t.Helper()
	return svc.RecordMovement(context.Background(), companyA, userID, dto.RecordMovementRequest{
		WarehouseID: whMain, ProductID: prodA, MovementType: string(typ), Quantity: dec(qty),
	})
}

func levelOf(t *testing.T, svc *LedgerService) dto.StockLevelResponse {
	t.Helper()
	levels, err := svc.GetCurrentLevels(context.Background(), companyA, repository.LevelFilter{WarehouseID: whMain, ProductID: prodA})
	require.NoError(t, err)
	require.Len(t, levels, 1)
	return levels[0]
}

func TestRecordMovement_InOutReserveUnreserve(t *testing.T) {
	svc, _ := newTestService(t, Config{})

	for _, step := range []struct {
		typ entity.MovementType
		qty string
	}{
		{entity.MovementIn, "10"},
		{entity.MovementOut, "3"},
		{entity.MovementReserved, "2"},
	} {
		_, err := record(t, svc, step.typ, step.qty)
		require.NoError(t, err)
	}
	lvl := levelOf(t, svc)
	assert.True(t, lvl.Quantity.Equal(dec("7")))
	assert.True(t, lvl.Reserved.Equal(dec("2")))
	assert.True(t, lvl.Available.Equal(dec("5")))

	_, err := record(t, svc, entity.MovementUnreserved, "1")
	require.NoError(t, err)
	assert.True(t, levelOf(t, svc).Available.Equal(dec("6")))
}

func TestRecordMovement_RejectsInvalidQuantity(t *testing.T) {
	svc, store := newTestService(t, Config{})
	for _, qty := range []string{"0", "-5", "0.00001"} {
		_, err := record(t, svc, entity.MovementIn, qty)
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "quantity", ve.Field)
	}
	movs, err := store.Movements().ListAll(context.Background(), companyA)
	require.NoError(t, err)
	assert.Empty(t, movs)
}

func TestRecordMovement_AdjustmentIsSigned(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	_, err := record(t, svc, entity.MovementIn, "5")
	require.NoError(t, err)
	_, err = record(t, svc, entity.MovementAdjustment, "-2")
	require.NoError(t, err)
	assert.True(t, levelOf(t, svc).Quantity.Equal(dec("3")))
}

func TestRecordMovement_Oversell(t *testing.T) {
	svc, store := newTestService(t, Config{})
	_, err := record(t, svc, entity.MovementIn, "2")
	require.NoError(t, err)

	_, err = record(t, svc, entity.MovementOut, "3")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	movs, _ := store.Movements().ListAll(context.Background(), companyA)
	assert.Len(t, movs, 1)

	permissive, _ := newTestService(t, Config{AllowNegative: true})
	_, err = record(t, permissive, entity.MovementOut, "3")
	require.NoError(t, err)
	assert.True(t, levelOf(t, permissive).Quantity.Equal(dec("-3")))
}

func TestRecordMovement_OtherTenantWarehouseIsNotFound(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	_, err := svc.RecordMovement(context.Background(), companyA, userID, dto.RecordMovementRequest{
		WarehouseID: whOther, ProductID: prodA, MovementType: "IN", Quantity: dec("1"),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetCurrentLevels(context.Background(), companyA, repository.LevelFilter{WarehouseID: whOther})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetCurrentLevels_EmptyCompany(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	levels, err := svc.GetCurrentLevels(context.Background(), companyB, repository.LevelFilter{})
	require.NoError(t, err)
	assert.Empty(t, levels)
}

func TestRecordTransfer_WritesPairedMovements(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Config{})
	_, err := record(t, svc, entity.MovementIn, "10")
	require.NoError(t, err)

	res, err := svc.RecordTransfer(ctx, companyA, userID, dto.RecordMovementRequest{
		FromWarehouseID: whMain, ToWarehouseID: whAux, ProductID: prodA, MovementType: "TRANSFER", Quantity: dec("4"),
	})
	require.NoError(t, err)
	require.Len(t, res.Movements, 2)
	assert.Equal(t, "OUT", res.Movements[0].MovementType)
	assert.Equal(t, "IN", res.Movements[1].MovementType)
	for _, m := range res.Movements {
		assert.Equal(t, entity.ReferenceTransfer, m.ReferenceType)
		assert.Equal(t, res.ReferenceID, m.ReferenceID)
	}

	levels, err := svc.GetCurrentLevels(ctx, companyA, repository.LevelFilter{ProductID: prodA})
	require.NoError(t, err)
	byWh := map[string]decimal.Decimal{}
	for _, l := range levels {
		byWh[l.WarehouseID] = l.Quantity
	}
	assert.True(t, byWh[whMain].Equal(dec("6")))
	assert.True(t, byWh[whAux].Equal(dec("4")))

	_, err = svc.RecordTransfer(ctx, companyA, userID, dto.RecordMovementRequest{
		FromWarehouseID: whAux, ToWarehouseID: whMain, ProductID: prodA, MovementType: "TRANSFER", Quantity: dec("5"),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestRecalculate_MatchesFoldAndRepairsDrift(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, Config{})
	for _, s := range []struct {
		typ entity.MovementType
		qty string
	}{{entity.MovementIn, "10"}, {entity.MovementOut, "3"}, {entity.MovementReserved, "2"}} {
		_, err := record(t, svc, s.typ, s.qty)
		require.NoError(t, err)
	}

	// corrupción manual de la tabla materializada
	require.NoError(t, store.Levels().Upsert(ctx, &entity.StockLevel{
		CompanyID: companyA, WarehouseID: whMain, ProductID: prodA, Quantity: dec("99"), Reserved: decimal.Zero,
	}))
	drift, err := svc.DetectDrift(ctx, companyA)
	require.NoError(t, err)
	require.Len(t, drift, 1)

	res, err := svc.Recalculate(ctx, companyA, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RecalculatedCount)

	stored, err := svc.GetCurrentLevels(ctx, companyA, repository.LevelFilter{})
	require.NoError(t, err)
	computed, err := svc.ComputeLevelsFromLedger(ctx, companyA, repository.LevelFilter{})
	require.NoError(t, err)
	require.Len(t, stored, len(computed))
	for i := range stored {
		assert.True(t, stored[i].Quantity.Equal(computed[i].Quantity))
		assert.True(t, stored[i].Reserved.Equal(computed[i].Reserved))
	}

	drift, err = svc.DetectDrift(ctx, companyA)
	require.NoError(t, err)
	assert.Empty(t, drift)

	again, err := svc.Recalculate(ctx, companyA, userID)
	require.NoError(t, err)
	assert.Equal(t, res.RecalculatedCount, again.RecalculatedCount)
}

func TestRecordMovement_WeightedAverageCost(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, Config{})
	c1, c2 := dec("100"), dec("200")
	_, err := svc.RecordMovement(ctx, companyA, userID, dto.RecordMovementRequest{WarehouseID: whMain, ProductID: prodA, MovementType: "IN", Quantity: dec("10"), UnitCost: &c1})
	require.NoError(t, err)
	_, err = svc.RecordMovement(ctx, companyA, userID, dto.RecordMovementRequest{WarehouseID: whMain, ProductID: prodA, MovementType: "IN", Quantity: dec("10"), UnitCost: &c2})
	require.NoError(t, err)

	p, err := store.Products().GetByID(ctx, companyA, prodA)
	require.NoError(t, err)
	assert.True(t, p.Cost.Equal(dec("150")), p.Cost.String())
}

func TestEnqueueRecalculate_WithoutWorker(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	assert.False(t, svc.AsyncEnabled())
	_, err := svc.EnqueueRecalculate(context.Background(), companyA)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRecordMovement_WritesAudit(t *testing.T) {
	svc, store := newTestService(t, Config{})
	mov, err := record(t, svc, entity.MovementIn, "1")
	require.NoError(t, err)
	logs, err := store.Audit().List(context.Background(), companyA, repository.AuditFilter{EntityType: "stock_movement"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, mov.ID, logs[0].EntityID)
	assert.Equal(t, userID, logs[0].ActorID)
}
