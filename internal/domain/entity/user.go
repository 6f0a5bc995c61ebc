package entity

import "time"

// Roles válidos para User. Los permisos de cada rol se definen en la política RBAC.
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleAccountant = "accountant"
	RoleWarehouse  = "warehouse"
)

// IsValidRole indica si r es uno de los roles conocidos.
func IsValidRole(r string) bool {
	switch r {
	case RoleAdmin, RoleManager, RoleAccountant, RoleWarehouse:
		return true
	}
	return false
}

// User representa un usuario del sistema (pertenece a una Company).
type User struct {
	ID           string
	CompanyID    string
	Email        string
	PasswordHash string // bcrypt
	Name         string
	Role         string
	Status       string // active, inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
