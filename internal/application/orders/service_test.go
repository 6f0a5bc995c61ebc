package orders

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/erp-ledger/internal/application/audit"
	"github.com/jhoicas/erp-ledger/internal/application/dto"
	"github.com/jhoicas/erp-ledger/internal/application/inventory"
	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
	"github.com/jhoicas/erp-ledger/internal/infrastructure/memory"
)

const (
	companyA = "11111111-1111-1111-1111-111111111111"
	wh       = "aaaaaaaa-0000-0000-0000-000000000001"
	prod1    = "cccccccc-0000-0000-0000-000000000001"
	prod2    = "cccccccc-0000-0000-0000-000000000002"
	customer = "99999999-0000-0000-0000-000000000001"
	supplier = "88888888-0000-0000-0000-000000000001"
	userID   = "dddddddd-0000-0000-0000-000000000001"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	svc    *Service
	ledger *inventory.LedgerService
	store  *memory.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Now().UTC()
	require.NoError(t, store.Warehouses().Create(ctx, &entity.Warehouse{ID: wh, CompanyID: companyA, Name: "Principal", IsActive: true, CreatedAt: now}))
	require.NoError(t, store.Products().Create(ctx, &entity.Product{ID: prod1, CompanyID: companyA, SKU: "P1", Name: "Uno", Price: dec("100"), TaxRate: dec("20"), Cost: dec("60"), IsActive: true, CreatedAt: now}))
	require.NoError(t, store.Products().Create(ctx, &entity.Product{ID: prod2, CompanyID: companyA, SKU: "P2", Name: "Dos", Price: dec("50"), TaxRate: dec("10"), IsActive: true, CreatedAt: now}))
	require.NoError(t, store.Customers().Create(ctx, &entity.Customer{ID: customer, CompanyID: companyA, Name: "Cliente", CreatedAt: now}))
	require.NoError(t, store.Suppliers().Create(ctx, &entity.Supplier{ID: supplier, CompanyID: companyA, Name: "Proveedor", CreatedAt: now}))

	rec, err := audit.NewRecorder(0)
	require.NoError(t, err)
	ledger := inventory.NewLedgerService(inventory.Deps{
		Tx: store, Warehouses: store.Warehouses(), Products: store.Products(),
		Movements: store.Movements(), Levels: store.Levels(), Audit: rec,
	}, inventory.Config{})
	svc := NewService(Deps{
		Tx: store, Orders: store.Orders(), Products: store.Products(),
		Customers: store.Customers(), Suppliers: store.Suppliers(), Ledger: ledger, Audit: rec,
	})
	return fixture{svc: svc, ledger: ledger, store: store}
}

func (f fixture) stockIn(t *testing.T, productID, qty string) {
	t.Helper()
	_, err := f.ledger.RecordMovement(context.Background(), companyA, userID, dto.RecordMovementRequest{
		WarehouseID: wh, ProductID: productID, MovementType: "IN", Quantity: dec(qty),
	})
	require.NoError(t, err)
}

func (f fixture) level(t *testing.T, productID string) dto.StockLevelResponse {
	t.Helper()
	levels, err := f.ledger.GetCurrentLevels(context.Background(), companyA, repository.LevelFilter{WarehouseID: wh, ProductID: productID})
	require.NoError(t, err)
	require.Len(t, levels, 1)
	return levels[0]
}

func saleRequest() dto.CreateOrderRequest {
	return dto.CreateOrderRequest{
		CustomerID: customer,
		Currency:   "USD",
		Items: []dto.OrderItemRequest{
			{ProductID: prod1, Quantity: dec("2")},
			{ProductID: prod2, Quantity: dec("1")},
		},
	}
}

func TestCreate_ComputesTotalFromProductDefaults(t *testing.T) {
	f := newFixture(t)
	o, err := f.svc.Create(context.Background(), companyA, userID, saleRequest())
	require.NoError(t, err)
	assert.Equal(t, "SALE", o.Type)
	assert.Equal(t, "DRAFT", o.Status)
	assert.True(t, o.TotalAmount.Equal(dec("295")), o.TotalAmount.String())
	assert.False(t, o.TotalMismatch)
	assert.NotEmpty(t, o.Number)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	req := saleRequest()
	req.Items[0].Quantity = dec("0")
	_, err := f.svc.Create(context.Background(), companyA, userID, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	req = saleRequest()
	req.SupplierID = supplier
	_, err = f.svc.Create(context.Background(), companyA, userID, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	req = saleRequest()
	req.CustomerID = "99999999-0000-0000-0000-00000000ffff"
	_, err = f.svc.Create(context.Background(), companyA, userID, req)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReserveThenFulfill(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stockIn(t, prod1, "10")
	f.stockIn(t, prod2, "5")

	o, err := f.svc.Create(ctx, companyA, userID, saleRequest())
	require.NoError(t, err)

	res, err := f.svc.Reserve(ctx, companyA, userID, o.ID, dto.OrderStockRequest{WarehouseID: wh})
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", res.Order.Status)
	assert.Len(t, res.Movements, 2)
	assert.True(t, f.level(t, prod1).Available.Equal(dec("8")))

	_, err = f.svc.Reserve(ctx, companyA, userID, o.ID, dto.OrderStockRequest{WarehouseID: wh})
	assert.ErrorIs(t, err, domain.ErrConflict)

	res, err = f.svc.Fulfill(ctx, companyA, userID, o.ID, dto.OrderStockRequest{WarehouseID: wh})
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", res.Order.Status)
	lvl := f.level(t, prod1)
	assert.True(t, lvl.Quantity.Equal(dec("8")))
	assert.True(t, lvl.Reserved.IsZero())
	assert.True(t, f.level(t, prod2).Quantity.Equal(dec("4")))
}

func TestReserve_InsufficientStockRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stockIn(t, prod1, "10")

	o, err := f.svc.Create(ctx, companyA, userID, saleRequest())
	require.NoError(t, err)
	_, err = f.svc.Reserve(ctx, companyA, userID, o.ID, dto.OrderStockRequest{WarehouseID: wh})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.True(t, f.level(t, prod1).Reserved.IsZero())
	got, err := f.svc.Get(ctx, companyA, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "DRAFT", got.Status)
}

func TestCancel_ReleasesReservations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stockIn(t, prod1, "10")
	f.stockIn(t, prod2, "5")
	o, err := f.svc.Create(ctx, companyA, userID, saleRequest())
	require.NoError(t, err)
	_, err = f.svc.Reserve(ctx, companyA, userID, o.ID, dto.OrderStockRequest{WarehouseID: wh})
	require.NoError(t, err)

	got, err := f.svc.UpdateStatus(ctx, companyA, userID, o.ID, dto.UpdateOrderStatusRequest{Status: "CANCELLED"})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", got.Status)
	assert.True(t, f.level(t, prod1).Reserved.IsZero())

	_, err = f.svc.UpdateStatus(ctx, companyA, userID, o.ID, dto.UpdateOrderStatusRequest{Status: "CONFIRMED"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestFulfill_PurchaseReceivesWithCost(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	price := dec("80")
	o, err := f.svc.Create(ctx, companyA, userID, dto.CreateOrderRequest{
		SupplierID: supplier, Currency: "USD", Status: "CONFIRMED",
		Items: []dto.OrderItemRequest{{ProductID: prod1, Quantity: dec("4"), Price: &price}},
	})
	require.NoError(t, err)
	assert.Equal(t, "PURCHASE", o.Type)

	_, err = f.svc.Reserve(ctx, companyA, userID, o.ID, dto.OrderStockRequest{WarehouseID: wh})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.svc.Fulfill(ctx, companyA, userID, o.ID, dto.OrderStockRequest{WarehouseID: wh})
	require.NoError(t, err)
	assert.True(t, f.level(t, prod1).Quantity.Equal(dec("4")))

	p, err := f.store.Products().GetByID(ctx, companyA, prod1)
	require.NoError(t, err)
	assert.True(t, p.Cost.Equal(dec("80")))
}

func TestGet_OtherTenantIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o, err := f.svc.Create(ctx, companyA, userID, saleRequest())
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, "22222222-2222-2222-2222-222222222222", o.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func (f fixture) deactivate(t *testing.T, productID string) {
	t.Helper()
	ctx := context.Background()
	p, err := f.store.Products().GetByID(ctx, companyA, productID)
	require.NoError(t, err)
	require.NotNil(t, p)
	p.IsActive = false
	require.NoError(t, f.store.Products().Update(ctx, p))
}

func TestReserve_DeactivatedProductIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stockIn(t, prod1, "10")
	f.stockIn(t, prod2, "5")
	o, err := f.svc.Create(ctx, companyA, userID, saleRequest())
	require.NoError(t, err)

	f.deactivate(t, prod2)
	_, err = f.svc.Reserve(ctx, companyA, userID, o.ID, dto.OrderStockRequest{WarehouseID: wh})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	movs, err := f.store.Movements().ListAll(ctx, companyA)
	require.NoError(t, err)
	assert.Len(t, movs, 2, "solo las dos entradas iniciales")
	assert.True(t, f.level(t, prod1).Reserved.IsZero())
}

func TestFulfill_DeactivatedProductRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stockIn(t, prod1, "10")
	f.stockIn(t, prod2, "5")
	o, err := f.svc.Create(ctx, companyA, userID, saleRequest())
	require.NoError(t, err)
	_, err = f.svc.Reserve(ctx, companyA, userID, o.ID, dto.OrderStockRequest{WarehouseID: wh})
	require.NoError(t, err)

	f.deactivate(t, prod1)
	_, err = f.svc.Fulfill(ctx, companyA, userID, o.ID, dto.OrderStockRequest{WarehouseID: wh})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	lvl := f.level(t, prod1)
	assert.True(t, lvl.Quantity.Equal(dec("10")))
	assert.True(t, lvl.Reserved.Equal(dec("2")))

	// la cancelación sigue pudiendo liberar la reserva del producto inactivo
	got, err := f.svc.UpdateStatus(ctx, companyA, userID, o.ID, dto.UpdateOrderStatusRequest{Status: "CANCELLED"})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", got.Status)
	assert.True(t, f.level(t, prod1).Reserved.IsZero())
}

type nopLocker struct{}

func (nopLocker) LockShared(context.Context, string) error    { return nil }
func (nopLocker) LockExclusive(context.Context, string) error { return nil }

type recordingLevels struct {
	repository.StockLevelRepository
	locked []string
}

func (r *recordingLevels) GetForUpdate(_ context.Context, companyID, warehouseID, productID string) (*entity.StockLevel, error) {
	r.locked = append(r.locked, warehouseID+"/"+productID)
	return &entity.StockLevel{CompanyID: companyID, WarehouseID: warehouseID, ProductID: productID}, nil
}

func TestLockLevels_StableOrder(t *testing.T) {
	o := &entity.Order{Items: []entity.OrderItem{{ProductID: prod2}, {ProductID: prod1}}}
	reserved := []entity.StockLevel{{WarehouseID: "w2", ProductID: prod1}}

	levels := &recordingLevels{}
	tx := repository.TxRepositories{Lock: nopLocker{}, Levels: levels}
	require.NoError(t, lockLevels(context.Background(), tx, companyA, append(reserved, itemKeys(o, "w1")...)))

	assert.Equal(t, []string{"w1/" + prod1, "w1/" + prod2, "w2/" + prod1}, levels.locked)
}
