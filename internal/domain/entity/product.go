package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un SKU del catálogo de la empresa.
// Cost es el costo promedio ponderado, recalculado con cada entrada que informa costo unitario.
type Product struct {
	ID        string
	CompanyID string
	SKU       string // único por empresa
	Name      string
	Price     decimal.Decimal
	Cost      decimal.Decimal
	TaxRate   decimal.Decimal // porcentaje, 19 = 19%
	Unit      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
