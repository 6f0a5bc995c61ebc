package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto. TaxRate en porcentaje (19 = 19%).
type CreateProductRequest struct {
	SKU     string          `json:"sku" validate:"required,min=1,max=100"`
	Name    string          `json:"name" validate:"required,min=1,max=200"`
	Price   decimal.Decimal `json:"price"`
	TaxRate decimal.Decimal `json:"tax_rate"`
	Unit    string          `json:"unit" validate:"omitempty,max=20"`
}

// UpdateProductRequest entrada para actualizar un producto (Cost se deriva de las entradas).
type UpdateProductRequest struct {
	Name     *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Price    *decimal.Decimal `json:"price"`
	TaxRate  *decimal.Decimal `json:"tax_rate"`
	Unit     *string          `json:"unit" validate:"omitempty,max=20"`
	IsActive *bool            `json:"is_active"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID        string          `json:"id"`
	CompanyID string          `json:"company_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Cost      decimal.Decimal `json:"cost"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	Unit      string          `json:"unit"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
