package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/jhoicas/erp-ledger/internal/application/billing"
	domainbilling "github.com/jhoicas/erp-ledger/internal/domain/billing"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

func sampleStatement() billing.Statement {
	due := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	inv := &entity.Invoice{
		ID:          "i1",
		CompanyID:   "c1",
		Number:      "FAC-20260301-0001",
		Status:      entity.InvoicePartiallyPaid,
		Currency:    "COP",
		TotalAmount: decimal.RequireFromString("1000"),
		TaxAmount:   decimal.RequireFromString("159.66"),
		PaidAmount:  decimal.RequireFromString("300"),
		IssuedDate:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:     &due,
	}
	return billing.Statement{
		Company:  &entity.Company{ID: "c1", Name: "Ferretería Andina", TaxID: "900123456-7"},
		Customer: &entity.Customer{ID: "cu1", Name: "Constructora Norte", TaxID: "800555111"},
		Invoice:  inv,
		Balance:  domainbilling.BalanceOf(*inv),
		Payments: []*entity.Payment{{
			ID: "p1", Amount: decimal.RequireFromString("300"), Currency: "COP",
			Method: entity.PaymentBankTransfer, PaymentDate: inv.IssuedDate, Reference: "TRX-1",
		}},
	}
}

func TestRenderInvoiceStatement_ProducesPDF(t *testing.T) {
	r := NewStatementRenderer(language.Spanish)

	out, err := r.RenderInvoiceStatement(context.Background(), sampleStatement())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderInvoiceStatement_WithoutCustomerOrPayments(t *testing.T) {
	st := sampleStatement()
	st.Customer = nil
	st.Payments = nil
	st.Invoice.DueDate = nil

	out, err := NewStatementRenderer(language.Spanish).RenderInvoiceStatement(context.Background(), st)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderInvoiceStatement_RequiresInvoice(t *testing.T) {
	_, err := NewStatementRenderer(language.Spanish).RenderInvoiceStatement(context.Background(), billing.Statement{})
	assert.Error(t, err)
}

func TestFormatAmount(t *testing.T) {
	en := NewStatementRenderer(language.English)
	assert.Equal(t, "USD 1,234,567.50", en.FormatAmount("USD", decimal.RequireFromString("1234567.5")))
	assert.Equal(t, "USD 0.00", en.FormatAmount("USD", decimal.Zero))

	es := NewStatementRenderer(language.Spanish)
	got := es.FormatAmount("COP", decimal.RequireFromString("1234567.5"))
	assert.Contains(t, got, "COP ")
	assert.Contains(t, got, "1.234.567")
	assert.Contains(t, got, ",50")
}
