package memory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

// Companies repositorio de empresas.
func (s *Store) Companies() repository.CompanyRepository { return companyRepo{s.view()} }

// Users repositorio de usuarios.
func (s *Store) Users() repository.UserRepository { return userRepo{s.view()} }

// Warehouses repositorio de bodegas.
func (s *Store) Warehouses() repository.WarehouseRepository { return warehouseRepo{s.view()} }

// Products repositorio de productos.
func (s *Store) Products() repository.ProductRepository { return productRepo{s.view()} }

// Customers repositorio de clientes.
func (s *Store) Customers() repository.CustomerRepository { return customerRepo{s.view()} }

// Suppliers repositorio de proveedores.
func (s *Store) Suppliers() repository.SupplierRepository { return supplierRepo{s.view()} }

type companyRepo struct{ view }

func (r companyRepo) Create(_ context.Context, c *entity.Company) error {
	return r.write(func(st *state) error {
		for _, other := range st.companies {
			if other.TaxID == c.TaxID {
				return domain.ErrDuplicate
			}
		}
		st.companies[c.ID] = *c
		return nil
	})
}

func (r companyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	var out *entity.Company
	r.read(func(st *state) {
		if c, ok := st.companies[id]; ok {
			out = &c
		}
	})
	return out, nil
}

func (r companyRepo) ListIDs(_ context.Context) ([]string, error) {
	var out []string
	r.read(func(st *state) {
		for id, c := range st.companies {
			if c.Status == entity.CompanyStatusActive {
				out = append(out, id)
			}
		}
	})
	sortStrings(out)
	return out, nil
}

type userRepo struct{ view }

func (r userRepo) Create(_ context.Context, u *entity.User) error {
	return r.write(func(st *state) error {
		for _, other := range st.users {
			if other.Email == u.Email {
				return domain.ErrEmailAlreadyExists
			}
		}
		st.users[u.ID] = *u
		return nil
	})
}

func (r userRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	var out *entity.User
	r.read(func(st *state) {
		if u, ok := st.users[id]; ok {
			out = &u
		}
	})
	return out, nil
}

func (r userRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	var out *entity.User
	r.read(func(st *state) {
		for _, u := range st.users {
			if u.Email == email {
				u := u
				out = &u
				return
			}
		}
	})
	return out, nil
}

func (r userRepo) CountByCompany(_ context.Context, companyID string) (int, error) {
	n := 0
	r.read(func(st *state) {
		for _, u := range st.users {
			if u.CompanyID == companyID {
				n++
			}
		}
	})
	return n, nil
}

type warehouseRepo struct{ view }

func (r warehouseRepo) Create(_ context.Context, w *entity.Warehouse) error {
	return r.write(func(st *state) error {
		st.warehouses[w.ID] = *w
		return nil
	})
}

func (r warehouseRepo) GetByID(_ context.Context, companyID, id string) (*entity.Warehouse, error) {
	var out *entity.Warehouse
	r.read(func(st *state) {
		if w, ok := st.warehouses[id]; ok && w.CompanyID == companyID {
			out = &w
		}
	})
	return out, nil
}

func (r warehouseRepo) ListByCompany(_ context.Context, companyID string, page repository.Page) ([]*entity.Warehouse, error) {
	var out []*entity.Warehouse
	r.read(func(st *state) {
		all := sortedValues(st.warehouses, func(w entity.Warehouse) bool { return w.CompanyID == companyID },
			func(w entity.Warehouse) int64 { return w.CreatedAt.UnixNano() })
		lo, hi := paginate(len(all), page)
		for i := lo; i < hi; i++ {
			out = append(out, &all[i])
		}
	})
	return out, nil
}

func (r warehouseRepo) Update(_ context.Context, w *entity.Warehouse) error {
	return r.write(func(st *state) error {
		if cur, ok := st.warehouses[w.ID]; !ok || cur.CompanyID != w.CompanyID {
			return domain.ErrNotFound
		}
		st.warehouses[w.ID] = *w
		return nil
	})
}

type productRepo struct{ view }

func (r productRepo) Create(_ context.Context, p *entity.Product) error {
	return r.write(func(st *state) error {
		for _, other := range st.products {
			if other.CompanyID == p.CompanyID && other.SKU == p.SKU {
				return domain.ErrDuplicate
			}
		}
		st.products[p.ID] = *p
		return nil
	})
}

func (r productRepo) GetByID(_ context.Context, companyID, id string) (*entity.Product, error) {
	var out *entity.Product
	r.read(func(st *state) {
		if p, ok := st.products[id]; ok && p.CompanyID == companyID {
			out = &p
		}
	})
	return out, nil
}

func (r productRepo) GetBySKU(_ context.Context, companyID, sku string) (*entity.Product, error) {
	var out *entity.Product
	r.read(func(st *state) {
		for _, p := range st.products {
			if p.CompanyID == companyID && p.SKU == sku {
				p := p
				out = &p
				return
			}
		}
	})
	return out, nil
}

func (r productRepo) ListByCompany(_ context.Context, companyID string, page repository.Page) ([]*entity.Product, error) {
	var out []*entity.Product
	r.read(func(st *state) {
		all := sortedValues(st.products, func(p entity.Product) bool { return p.CompanyID == companyID },
			func(p entity.Product) int64 { return p.CreatedAt.UnixNano() })
		lo, hi := paginate(len(all), page)
		for i := lo; i < hi; i++ {
			out = append(out, &all[i])
		}
	})
	return out, nil
}

func (r productRepo) Update(_ context.Context, p *entity.Product) error {
	return r.write(func(st *state) error {
		cur, ok := st.products[p.ID]
		if !ok || cur.CompanyID != p.CompanyID {
			return domain.ErrNotFound
		}
		p.Cost = cur.Cost
		st.products[p.ID] = *p
		return nil
	})
}

func (r productRepo) UpdateCost(_ context.Context, companyID, id string, cost decimal.Decimal) error {
	return r.write(func(st *state) error {
		cur, ok := st.products[id]
		if !ok || cur.CompanyID != companyID {
			return domain.ErrNotFound
		}
		cur.Cost = cost
		st.products[id] = cur
		return nil
	})
}

type customerRepo struct{ view }

func (r customerRepo) Create(_ context.Context, c *entity.Customer) error {
	return r.write(func(st *state) error {
		st.customers[c.ID] = *c
		return nil
	})
}

func (r customerRepo) GetByID(_ context.Context, companyID, id string) (*entity.Customer, error) {
	var out *entity.Customer
	r.read(func(st *state) {
		if c, ok := st.customers[id]; ok && c.CompanyID == companyID {
			out = &c
		}
	})
	return out, nil
}

func (r customerRepo) ListByCompany(_ context.Context, companyID string, page repository.Page) ([]*entity.Customer, error) {
	var out []*entity.Customer
	r.read(func(st *state) {
		all := sortedValues(st.customers, func(c entity.Customer) bool { return c.CompanyID == companyID },
			func(c entity.Customer) int64 { return c.CreatedAt.UnixNano() })
		lo, hi := paginate(len(all), page)
		for i := lo; i < hi; i++ {
			out = append(out, &all[i])
		}
	})
	return out, nil
}

type supplierRepo struct{ view }

func (r supplierRepo) Create(_ context.Context, s *entity.Supplier) error {
	return r.write(func(st *state) error {
		st.suppliers[s.ID] = *s
		return nil
	})
}

func (r supplierRepo) GetByID(_ context.Context, companyID, id string) (*entity.Supplier, error) {
	var out *entity.Supplier
	r.read(func(st *state) {
		if s, ok := st.suppliers[id]; ok && s.CompanyID == companyID {
			out = &s
		}
	})
	return out, nil
}

func (r supplierRepo) ListByCompany(_ context.Context, companyID string, page repository.Page) ([]*entity.Supplier, error) {
	var out []*entity.Supplier
	r.read(func(st *state) {
		all := sortedValues(st.suppliers, func(s entity.Supplier) bool { return s.CompanyID == companyID },
			func(s entity.Supplier) int64 { return s.CreatedAt.UnixNano() })
		lo, hi := paginate(len(all), page)
		for i := lo; i < hi; i++ {
			out = append(out, &all[i])
		}
	})
	return out, nil
}
