// Package rbac define los permisos por rol como datos: una política por defecto
// que puede reemplazarse desde un archivo de configuración sin recompilar.
package rbac

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Permission capacidad sobre un tipo de recurso.
type Permission string

const (
	StockRead        Permission = "stock:read"
	StockWrite       Permission = "stock:write"
	StockRecalculate Permission = "stock:recalculate"
	CatalogRead      Permission = "catalog:read"
	CatalogWrite     Permission = "catalog:write"
	OrderRead        Permission = "order:read"
	OrderWrite       Permission = "order:write"
	InvoiceRead      Permission = "invoice:read"
	InvoiceWrite     Permission = "invoice:write"
	PaymentRead      Permission = "payment:read"
	PaymentWrite     Permission = "payment:write"
	AuditRead        Permission = "audit:read"
	CompanyManage    Permission = "company:manage"

	// Wildcard concede todos los permisos.
	Wildcard Permission = "*"
)

var known = map[Permission]struct{}{
	StockRead: {}, StockWrite: {}, StockRecalculate: {},
	CatalogRead: {}, CatalogWrite: {},
	OrderRead: {}, OrderWrite: {},
	InvoiceRead: {}, InvoiceWrite: {},
	PaymentRead: {}, PaymentWrite: {},
	AuditRead: {}, CompanyManage: {},
	Wildcard: {},
}

// Policy conjunto de permisos por rol. Es de solo lectura una vez construida.
type Policy struct {
	roles map[string]map[Permission]struct{}
}

// NewPolicy valida y construye una política. Permisos desconocidos son un error.
func NewPolicy(roles map[string][]Permission) (*Policy, error) {
	p := &Policy{roles: make(map[string]map[Permission]struct{}, len(roles))}
	for role, perms := range roles {
		role = strings.ToLower(strings.TrimSpace(role))
		if role == "" {
			return nil, fmt.Errorf("rbac: rol vacío")
		}
		set := make(map[Permission]struct{}, len(perms))
		for _, perm := range perms {
			if _, ok := known[perm]; !ok {
				return nil, fmt.Errorf("rbac: permiso desconocido %q en rol %q", perm, role)
			}
			set[perm] = struct{}{}
		}
		p.roles[role] = set
	}
	return p, nil
}

// DefaultPolicy admin, manager, accountant y warehouse.
func DefaultPolicy() *Policy {
	p, _ := NewPolicy(map[string][]Permission{
		"admin": {Wildcard},
		"manager": {
			StockRead, StockWrite, StockRecalculate, CatalogRead, CatalogWrite,
			OrderRead, OrderWrite, InvoiceRead, InvoiceWrite, PaymentRead, PaymentWrite, AuditRead,
		},
		"accountant": {
			StockRead, CatalogRead, OrderRead, InvoiceRead, InvoiceWrite, PaymentRead, PaymentWrite, AuditRead,
		},
		"warehouse": {
			StockRead, StockWrite, CatalogRead, OrderRead,
		},
	})
	return p
}

// LoadPolicy lee la política desde un archivo (yaml, json o toml) con la forma:
//
//	roles:
//	  admin: ["*"]
//	  warehouse: ["stock:read", "stock:write"]
//
// path vacío devuelve DefaultPolicy.
func LoadPolicy(path string) (*Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("rbac: leer %s: %w", path, err)
	}
	raw := v.GetStringMapStringSlice("roles")
	if len(raw) == 0 {
		return nil, fmt.Errorf("rbac: %s no define roles", path)
	}
	roles := make(map[string][]Permission, len(raw))
	for role, perms := range raw {
		for _, perm := range perms {
			roles[role] = append(roles[role], Permission(strings.TrimSpace(perm)))
		}
	}
	return NewPolicy(roles)
}

// Allows indica si el rol tiene el permiso.
func (p *Policy) Allows(role string, perm Permission) bool {
	set, ok := p.roles[strings.ToLower(role)]
	if !ok {
		return false
	}
	if _, ok := set[Wildcard]; ok {
		return true
	}
	_, ok = set[perm]
	return ok
}

// Roles nombres de los roles definidos, ordenados.
func (p *Policy) Roles() []string {
	out := make([]string, 0, len(p.roles))
	for r := range p.roles {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
