package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType distingue ventas de compras.
type OrderType string

const (
	OrderSale     OrderType = "SALE"
	OrderPurchase OrderType = "PURCHASE"
)

// OrderStatus estado del ciclo de vida de una orden.
type OrderStatus string

const (
	OrderDraft      OrderStatus = "DRAFT"
	OrderPending    OrderStatus = "PENDING"
	OrderConfirmed  OrderStatus = "CONFIRMED"
	OrderInProgress OrderStatus = "IN_PROGRESS"
	OrderCompleted  OrderStatus = "COMPLETED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

// Order orden de venta (con cliente) o de compra (con proveedor).
type Order struct {
	ID          string
	CompanyID   string
	Number      string
	Type        OrderType
	CustomerID  string
	SupplierID  string
	Status      OrderStatus
	Currency    string
	TotalAmount decimal.Decimal
	Notes       string
	Items       []OrderItem
	CreatedByID string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderItem línea de una orden. TaxRate en porcentaje.
type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  decimal.Decimal
	Price     decimal.Decimal
	TaxRate   decimal.Decimal
}
