package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLevel existencias derivadas de los movimientos para (bodega, producto).
type StockLevel struct {
	CompanyID   string
	WarehouseID string
	ProductID   string
	Quantity    decimal.Decimal
	Reserved    decimal.Decimal
	UpdatedAt   time.Time
}

// Available cantidad libre: Quantity - Reserved.
func (l StockLevel) Available() decimal.Decimal {
	return l.Quantity.Sub(l.Reserved)
}
