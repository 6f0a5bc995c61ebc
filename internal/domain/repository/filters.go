package repository

import "time"

// Page límites de paginación.
type Page struct {
	Limit  int
	Offset int
}

// MovementFilter filtros opcionales del historial de movimientos.
type MovementFilter struct {
	WarehouseID   string
	ProductID     string
	ReferenceType string
	ReferenceID   string
	Since         *time.Time
	Page          Page
}

// LevelFilter filtros opcionales de niveles de existencias.
type LevelFilter struct {
	WarehouseID string
	ProductID   string
}

// Matches indica si (warehouseID, productID) cumple el filtro.
func (f LevelFilter) Matches(warehouseID, productID string) bool {
	return (f.WarehouseID == "" || f.WarehouseID == warehouseID) &&
		(f.ProductID == "" || f.ProductID == productID)
}

// OrderFilter filtros del listado de órdenes.
type OrderFilter struct {
	Status string
	Type   string
	Page   Page
}

// InvoiceFilter filtros del listado de facturas.
type InvoiceFilter struct {
	Status string
	Page   Page
}

// AuditFilter filtros de la bitácora.
type AuditFilter struct {
	EntityType string
	EntityID   string
	Page       Page
}
