// Package billing contiene las reglas puras de conciliación: totales de orden,
// saldo de factura y derivación de estados.
package billing

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/ledger"
)

// MoneyScale decimales con los que se presentan los importes.
const MoneyScale = 2

var hundred = decimal.NewFromInt(100)

// RoundMoney redondea a MoneyScale decimales (half away from zero).
func RoundMoney(v decimal.Decimal) decimal.Decimal {
	return v.Round(MoneyScale)
}

// ValidateAmount exige un importe mayor que cero con a lo sumo MoneyScale decimales.
func ValidateAmount(field string, v decimal.Decimal) error {
	if !v.IsPositive() {
		return domain.NewValidationError(field, "debe ser mayor que cero")
	}
	if !ledger.FitsScale(v, MoneyScale) {
		return domain.NewValidationError(field, "admite como máximo 2 decimales")
	}
	return nil
}

// ItemNet cantidad × precio.
func ItemNet(it entity.OrderItem) decimal.Decimal {
	return it.Quantity.Mul(it.Price)
}

// ItemTax impuesto de la línea: neto × tasa / 100.
func ItemTax(it entity.OrderItem) decimal.Decimal {
	return ItemNet(it).Mul(it.TaxRate).Div(hundred)
}

// ItemTotal cantidad × precio × (1 + tasa/100), sin redondear.
func ItemTotal(it entity.OrderItem) decimal.Decimal {
	return ItemNet(it).Add(ItemTax(it))
}

// OrderTotal suma de ItemTotal de las líneas; el redondeo se aplica una sola vez al final.
func OrderTotal(items []entity.OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(ItemTotal(it))
	}
	return RoundMoney(sum)
}

// OrderTax suma del impuesto de las líneas, redondeada al final.
func OrderTax(items []entity.OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(ItemTax(it))
	}
	return RoundMoney(sum)
}

// ValidateItems exige al menos una línea con cantidad > 0, precio >= 0 y tasa >= 0.
func ValidateItems(items []entity.OrderItem) error {
	if len(items) == 0 {
		return domain.NewValidationError("items", "la orden debe tener al menos una línea")
	}
	for _, it := range items {
		if it.ProductID == "" {
			return domain.NewValidationError("items.product_id", "es requerido")
		}
		if !it.Quantity.IsPositive() {
			return domain.NewValidationError("items.quantity", "debe ser mayor que cero")
		}
		if !ledger.FitsScale(it.Quantity, ledger.QuantityScale) {
			return domain.NewValidationError("items.quantity", "admite como máximo 4 decimales")
		}
		if !ledger.FitsScale(it.Price, 4) {
			return domain.NewValidationError("items.price", "admite como máximo 4 decimales")
		}
		if it.Price.IsNegative() {
			return domain.NewValidationError("items.price", "no puede ser negativo")
		}
		if it.TaxRate.IsNegative() {
			return domain.NewValidationError("items.tax_rate", "no puede ser negativa")
		}
	}
	return nil
}
