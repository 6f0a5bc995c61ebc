package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItemRequest línea de orden. Si price o tax_rate se omiten se toman del producto.
type OrderItemRequest struct {
	ProductID string           `json:"product_id" validate:"required,uuid"`
	Quantity  decimal.Decimal  `json:"quantity"`
	Price     *decimal.Decimal `json:"price"`
	TaxRate   *decimal.Decimal `json:"tax_rate"`
}

// CreateOrderRequest entrada para crear una orden de venta (customer_id) o de compra (supplier_id).
type CreateOrderRequest struct {
	Number     string             `json:"number" validate:"omitempty,max=50"`
	CustomerID string             `json:"customer_id" validate:"required_without=SupplierID,excluded_with=SupplierID,omitempty,uuid"`
	SupplierID string             `json:"supplier_id" validate:"required_without=CustomerID,excluded_with=CustomerID,omitempty,uuid"`
	Currency   string             `json:"currency" validate:"required,len=3,uppercase"`
	Status     string             `json:"status" validate:"omitempty,oneof=DRAFT PENDING CONFIRMED"`
	Notes      string             `json:"notes" validate:"omitempty,max=500"`
	Items      []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// UpdateOrderStatusRequest entrada para PATCH /orders/:id/status.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=DRAFT PENDING CONFIRMED IN_PROGRESS COMPLETED CANCELLED"`
}

// OrderStockRequest bodega sobre la que se reserva o despacha una orden.
type OrderStockRequest struct {
	WarehouseID string `json:"warehouse_id" validate:"required,uuid"`
}

// OrderItemResponse línea de orden con su total calculado.
type OrderItemResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	Total     decimal.Decimal `json:"total"`
}

// OrderResponse orden con el total almacenado y el recalculado desde las líneas.
type OrderResponse struct {
	ID            string              `json:"id"`
	CompanyID     string              `json:"company_id"`
	Number        string              `json:"number"`
	Type          string              `json:"type"`
	CustomerID    string              `json:"customer_id,omitempty"`
	SupplierID    string              `json:"supplier_id,omitempty"`
	Status        string              `json:"status"`
	Currency      string              `json:"currency"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	ComputedTotal decimal.Decimal     `json:"computed_total"`
	TotalMismatch bool                `json:"total_mismatch"`
	Notes         string              `json:"notes,omitempty"`
	Items         []OrderItemResponse `json:"items"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// OrderListResponse lista paginada de órdenes.
type OrderListResponse struct {
	Items []OrderResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// OrderStockResponse movimientos generados al reservar o despachar una orden.
type OrderStockResponse struct {
	Order     OrderResponse      `json:"order"`
	Movements []MovementResponse `json:"movements"`
}
