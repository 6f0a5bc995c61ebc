package entity

import "time"

// Estados de una empresa (tenant).
const (
	CompanyStatusActive    = "active"
	CompanyStatusSuspended = "suspended"
)

// Company representa una organización/tenant. Todo dato del sistema cuelga de una Company.
type Company struct {
	ID        string
	Name      string
	TaxID     string
	Email     string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
