package billing

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
	userID   = "dddddddd-0000-0000-0000-000000000001"
	invoice1 = "eeeeeeee-0000-0000-0000-000000000001"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeRenderer struct{ got Statement }

func (f *fakeRenderer) RenderInvoiceStatement(_ context.Context, st Statement) ([]byte, error) {
	f.got = st
	return []byte("%PDF-1.4 fake"), nil
}

func newTestService(t *testing.T, status entity.InvoiceStatus, total string) (*Service, *memory.Store, *fakeRenderer) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Now().UTC()
	require.NoError(t, store.Companies().Create(ctx, &entity.Company{ID: companyA, Name: "Acme", TaxID: "900", Status: entity.CompanyStatusActive, CreatedAt: now}))
	require.NoError(t, store.Invoices().Create(ctx, &entity.Invoice{
		ID: invoice1, CompanyID: companyA, Number: "FAC-1", Status: status, Currency: "USD",
		TotalAmount: dec(total), TaxAmount: decimal.Zero, PaidAmount: decimal.Zero, IssuedDate: now, CreatedAt: now, UpdatedAt: now,
	}))
	rec, err := audit.NewRecorder(0)
	require.NoError(t, err)
	r := &fakeRenderer{}
	svc := NewService(Deps{
		Tx: store, Invoices: store.Invoices(), Payments: store.Payments(), Orders: store.Orders(),
		Customers: store.Customers(), Companies: store.Companies(), Audit: rec, Renderer: r,
	})
	return svc, store, r
}

func pay(svc *Service, companyID, amount string) (*dto.PaymentResponse, error) {
	return svc.RecordPayment(context.Background(), companyID, userID, dto.RecordPaymentRequest{
		InvoiceID: invoice1, Amount: dec(amount), Currency: "USD", Method: "CASH",
	})
}

func TestRecordPayment_PartialThenFull(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, entity.InvoiceIssued, "1000")

	_, err := pay(svc, companyA, "300")
	require.NoError(t, err)
	_, err = pay(svc, companyA, "400")
	require.NoError(t, err)

	inv, err := svc.GetInvoice(ctx, companyA, invoice1)
	require.NoError(t, err)
	assert.True(t, inv.PaidAmount.Equal(dec("700")))
	assert.True(t, inv.Outstanding.Equal(dec("300")))
	assert.Equal(t, string(entity.InvoicePartiallyPaid), inv.Status)
	assert.Len(t, inv.Payments, 2)

	_, err = pay(svc, companyA, "300")
	require.NoError(t, err)
	bal, err := svc.GetInvoiceBalance(ctx, companyA, invoice1)
	require.NoError(t, err)
	assert.True(t, bal.Outstanding.IsZero())
	inv, _ = svc.GetInvoice(ctx, companyA, invoice1)
	assert.Equal(t, string(entity.InvoicePaid), inv.Status)
}

func TestRecordPayment_Overpayment(t *testing.T) {
	svc, _, _ := newTestService(t, entity.InvoiceIssued, "100")
	_, err := pay(svc, companyA, "150")
	require.NoError(t, err)
	bal, err := svc.GetInvoiceBalance(context.Background(), companyA, invoice1)
	require.NoError(t, err)
	assert.True(t, bal.Outstanding.IsZero())
	assert.True(t, bal.Overpaid.Equal(dec("50")))
}

func TestRecordPayment_RejectsInvalidAmount(t *testing.T) {
	svc, store, _ := newTestService(t, entity.InvoiceIssued, "100")
	for _, amount := range []string{"0", "-10", "0.001", "10.005"} {
		_, err := pay(svc, companyA, amount)
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "amount", ve.Field)
	}
	sum, _ := store.Payments().SumByInvoice(context.Background(), companyA, invoice1)
	assert.True(t, sum.IsZero())
}

func TestRecordPayment_OtherTenantInvoiceIsNotFound(t *testing.T) {
	svc, store, _ := newTestService(t, entity.InvoiceIssued, "100")
	_, err := pay(svc, companyB, "10")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// el pago rechazado no queda registrado
	list, _ := store.Payments().List(context.Background(), companyB, repository.Page{})
	assert.Empty(t, list)
}

func TestRecordPayment_StateConflicts(t *testing.T) {
	for _, status := range []entity.InvoiceStatus{entity.InvoiceCancelled, entity.InvoiceDraft} {
		svc, _, _ := newTestService(t, status, "100")
		_, err := pay(svc, companyA, "10")
		assert.ErrorIs(t, err, domain.ErrConflict, string(status))
	}
}

func TestRecordPayment_CurrencyMismatch(t *testing.T) {
	svc, _, _ := newTestService(t, entity.InvoiceIssued, "100")
	_, err := svc.RecordPayment(context.Background(), companyA, userID, dto.RecordPaymentRequest{
		InvoiceID: invoice1, Amount: dec("10"), Currency: "EUR", Method: "CASH",
	})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "currency", ve.Field)
}

func TestUpdateInvoiceStatus_ValidatesAgainstPayments(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, entity.InvoiceIssued, "100")

	_, err := svc.UpdateInvoiceStatus(ctx, companyA, userID, invoice1, dto.UpdateInvoiceStatusRequest{Status: "PAID"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = pay(svc, companyA, "40")
	require.NoError(t, err)
	_, err = svc.UpdateInvoiceStatus(ctx, companyA, userID, invoice1, dto.UpdateInvoiceStatusRequest{Status: "OVERDUE"})
	require.NoError(t, err)

	// con pagos parciales la factura no puede volver a ISSUED
	_, err = svc.UpdateInvoiceStatus(ctx, companyA, userID, invoice1, dto.UpdateInvoiceStatusRequest{Status: "ISSUED"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "status", ve.Field)

	got, err := svc.GetInvoice(ctx, companyA, invoice1)
	require.NoError(t, err)
	assert.Equal(t, "OVERDUE", got.Status)
}

func TestCreateInvoice_FromOrder(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t, entity.InvoiceIssued, "1")
	order := &entity.Order{
		ID: "ffffffff-0000-0000-0000-000000000001", CompanyID: companyA, Number: "ORD-1",
		Type: entity.OrderSale, Status: entity.OrderConfirmed, Currency: "USD",
		Items: []entity.OrderItem{
			{ID: "i1", ProductID: "p1", Quantity: dec("2"), Price: dec("100"), TaxRate: dec("20")},
			{ID: "i2", ProductID: "p2", Quantity: dec("1"), Price: dec("50"), TaxRate: dec("10")},
		},
	}
	require.NoError(t, store.Orders().Create(ctx, order))

	inv, err := svc.CreateInvoice(ctx, companyA, userID, dto.CreateInvoiceRequest{OrderID: order.ID})
	require.NoError(t, err)
	assert.True(t, inv.TotalAmount.Equal(dec("295")), inv.TotalAmount.String())
	assert.True(t, inv.TaxAmount.Equal(dec("45")))
	assert.Equal(t, "ISSUED", inv.Status)

	_, err = svc.CreateInvoice(ctx, companyA, userID, dto.CreateInvoiceRequest{OrderID: order.ID})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRenderStatement(t *testing.T) {
	svc, _, r := newTestService(t, entity.InvoiceIssued, "100")
	_, err := pay(svc, companyA, "25")
	require.NoError(t, err)

	pdf, name, err := svc.RenderStatement(context.Background(), companyA, invoice1)
	require.NoError(t, err)
	assert.Equal(t, "FAC-1.pdf", name)
	assert.NotEmpty(t, pdf)
	assert.True(t, r.got.Balance.Outstanding.Equal(dec("75")))
	assert.Len(t, r.got.Payments, 1)
}
