package billing

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

// Balance saldo de una factura.
// Outstanding nunca es negativo; el excedente de pagos se informa en Overpaid.
type Balance struct {
	Total       decimal.Decimal
	Paid        decimal.Decimal
	Outstanding decimal.Decimal
	Overpaid    decimal.Decimal
}

// BalanceOf calcula el saldo de la factura a partir de TotalAmount y PaidAmount.
func BalanceOf(inv entity.Invoice) Balance {
	diff := inv.TotalAmount.Sub(inv.PaidAmount)
	b := Balance{
		Total:       RoundMoney(inv.TotalAmount),
		Paid:        RoundMoney(inv.PaidAmount),
		Outstanding: decimal.Zero,
		Overpaid:    decimal.Zero,
	}
	if diff.IsPositive() {
		b.Outstanding = RoundMoney(diff)
	} else {
		b.Overpaid = RoundMoney(diff.Neg())
	}
	return b
}

// SumPayments suma los importes de los pagos.
func SumPayments(payments []entity.Payment) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}
