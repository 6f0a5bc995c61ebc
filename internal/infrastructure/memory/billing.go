package memory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

// Orders repositorio de órdenes.
func (s *Store) Orders() repository.OrderRepository { return orderRepo{s.view()} }

// Invoices repositorio de facturas.
func (s *Store) Invoices() repository.InvoiceRepository { return invoiceRepo{s.view()} }

// Payments repositorio de pagos.
func (s *Store) Payments() repository.PaymentRepository { return paymentRepo{s.view()} }

func copyOrder(o entity.Order) *entity.Order {
	o.Items = append([]entity.OrderItem(nil), o.Items...)
	return &o
}

type orderRepo struct{ view }

func (r orderRepo) Create(_ context.Context, o *entity.Order) error {
	return r.write(func(st *state) error {
		for _, other := range st.orders {
			if other.CompanyID == o.CompanyID && other.Number == o.Number {
				return domain.ErrDuplicate
			}
		}
		st.orders[o.ID] = *copyOrder(*o)
		return nil
	})
}

func (r orderRepo) GetByID(_ context.Context, companyID, id string) (*entity.Order, error) {
	var out *entity.Order
	r.read(func(st *state) {
		if o, ok := st.orders[id]; ok && o.CompanyID == companyID {
			out = copyOrder(o)
		}
	})
	return out, nil
}

func (r orderRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.Order, error) {
	return r.GetByID(ctx, companyID, id)
}

func (r orderRepo) List(_ context.Context, companyID string, f repository.OrderFilter) ([]*entity.Order, error) {
	var out []*entity.Order
	r.read(func(st *state) {
		all := sortedValues(st.orders, func(o entity.Order) bool {
			return o.CompanyID == companyID &&
				(f.Status == "" || string(o.Status) == f.Status) &&
				(f.Type == "" || string(o.Type) == f.Type)
		}, func(o entity.Order) int64 { return o.CreatedAt.UnixNano() })
		lo, hi := paginate(len(all), f.Page)
		for i := lo; i < hi; i++ {
			out = append(out, copyOrder(all[i]))
		}
	})
	return out, nil
}

func (r orderRepo) UpdateStatus(_ context.Context, companyID, id string, status entity.OrderStatus) error {
	return r.write(func(st *state) error {
		o, ok := st.orders[id]
		if !ok || o.CompanyID != companyID {
			return domain.ErrNotFound
		}
		o.Status = status
		st.orders[id] = o
		return nil
	})
}

type invoiceRepo struct{ view }

func (r invoiceRepo) Create(_ context.Context, inv *entity.Invoice) error {
	return r.write(func(st *state) error {
		for _, other := range st.invoices {
			if other.CompanyID != inv.CompanyID {
				continue
			}
			if other.Number == inv.Number || (inv.OrderID != "" && other.OrderID == inv.OrderID) {
				return domain.ErrDuplicate
			}
		}
		st.invoices[inv.ID] = *inv
		return nil
	})
}

func (r invoiceRepo) GetByID(_ context.Context, companyID, id string) (*entity.Invoice, error) {
	var out *entity.Invoice
	r.read(func(st *state) {
		if inv, ok := st.invoices[id]; ok && inv.CompanyID == companyID {
			out = &inv
		}
	})
	return out, nil
}

func (r invoiceRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.Invoice, error) {
	return r.GetByID(ctx, companyID, id)
}

func (r invoiceRepo) GetByOrderID(_ context.Context, companyID, orderID string) (*entity.Invoice, error) {
	var out *entity.Invoice
	r.read(func(st *state) {
		for _, inv := range st.invoices {
			if inv.CompanyID == companyID && inv.OrderID == orderID {
				inv := inv
				out = &inv
				return
			}
		}
	})
	return out, nil
}

func (r invoiceRepo) List(_ context.Context, companyID string, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	var out []*entity.Invoice
	r.read(func(st *state) {
		all := sortedValues(st.invoices, func(inv entity.Invoice) bool {
			return inv.CompanyID == companyID && (f.Status == "" || string(inv.Status) == f.Status)
		}, func(inv entity.Invoice) int64 { return inv.CreatedAt.UnixNano() })
		lo, hi := paginate(len(all), f.Page)
		for i := lo; i < hi; i++ {
			out = append(out, &all[i])
		}
	})
	return out, nil
}

func (r invoiceRepo) UpdateSettlement(_ context.Context, inv *entity.Invoice) error {
	return r.write(func(st *state) error {
		cur, ok := st.invoices[inv.ID]
		if !ok || cur.CompanyID != inv.CompanyID {
			return domain.ErrNotFound
		}
		cur.PaidAmount = inv.PaidAmount
		cur.Status = inv.Status
		cur.UpdatedAt = inv.UpdatedAt
		st.invoices[inv.ID] = cur
		return nil
	})
}

type paymentRepo struct{ view }

func (r paymentRepo) Create(_ context.Context, p *entity.Payment) error {
	return r.write(func(st *state) error {
		st.payments = append(st.payments, *p)
		return nil
	})
}

func (r paymentRepo) ListByInvoice(_ context.Context, companyID, invoiceID string) ([]*entity.Payment, error) {
	var out []*entity.Payment
	r.read(func(st *state) {
		for _, p := range st.payments {
			if p.CompanyID == companyID && p.InvoiceID == invoiceID {
				p := p
				out = append(out, &p)
			}
		}
	})
	return out, nil
}

func (r paymentRepo) List(_ context.Context, companyID string, page repository.Page) ([]*entity.Payment, error) {
	var matched []entity.Payment
	r.read(func(st *state) {
		for _, p := range st.payments {
			if p.CompanyID == companyID {
				matched = append(matched, p)
			}
		}
	})
	newestFirst(matched, func(p entity.Payment) int64 { return p.CreatedAt.UnixNano() })
	lo, hi := paginate(len(matched), page)
	out := make([]*entity.Payment, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, &matched[i])
	}
	return out, nil
}

func (r paymentRepo) SumByInvoice(_ context.Context, companyID, invoiceID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	r.read(func(st *state) {
		for _, p := range st.payments {
			if p.CompanyID == companyID && p.InvoiceID == invoiceID {
				sum = sum.Add(p.Amount)
			}
		}
	})
	return sum, nil
}
