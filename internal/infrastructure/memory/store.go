// Package memory implementa los repositorios en memoria para desarrollo y pruebas.
// Las transacciones se serializan y un error revierte el estado al snapshot tomado al iniciar.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

type levelKey struct {
	companyID, warehouseID, productID string
}

type state struct {
	companies  map[string]entity.Company
	users      map[string]entity.User
	warehouses map[string]entity.Warehouse
	products   map[string]entity.Product
	customers  map[string]entity.Customer
	suppliers  map[string]entity.Supplier
	orders     map[string]entity.Order
	invoices   map[string]entity.Invoice
	payments   []entity.Payment
	movements  []entity.StockMovement
	levels     map[levelKey]entity.StockLevel
	audit      []entity.AuditLog
}

func newState() state {
	return state{
		companies:  map[string]entity.Company{},
		users:      map[string]entity.User{},
		warehouses: map[string]entity.Warehouse{},
		products:   map[string]entity.Product{},
		customers:  map[string]entity.Customer{},
		suppliers:  map[string]entity.Supplier{},
		orders:     map[string]entity.Order{},
		invoices:   map[string]entity.Invoice{},
		levels:     map[levelKey]entity.StockLevel{},
	}
}

func (st state) clone() state {
	out := state{
		companies:  cloneMap(st.companies),
		users:      cloneMap(st.users),
		warehouses: cloneMap(st.warehouses),
		products:   cloneMap(st.products),
		customers:  cloneMap(st.customers),
		suppliers:  cloneMap(st.suppliers),
		orders:     cloneMap(st.orders),
		invoices:   cloneMap(st.invoices),
		payments:   append([]entity.Payment(nil), st.payments...),
		movements:  append([]entity.StockMovement(nil), st.movements...),
		levels:     cloneMap(st.levels),
		audit:      append([]entity.AuditLog(nil), st.audit...),
	}
	return out
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store almacén en memoria. Es seguro para uso concurrente.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	st   state
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// view acceso al almacén. Fuera de una transacción cada escritura toma txMu para no
// intercalarse con una transacción que luego se revierta.
type view struct {
	s    *Store
	inTx bool
}

func (v view) read(fn func(st *state)) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	fn(&v.s.st)
}

func (v view) write(fn func(st *state) error) error {
	if !v.inTx {
		v.s.txMu.Lock()
		defer v.s.txMu.Unlock()
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return fn(&v.s.st)
}

// Run ejecuta fn en exclusión mutua con otras transacciones; si fn falla el estado se restaura.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, tx repository.TxRepositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.st.clone()
	s.mu.RUnlock()

	if err := fn(ctx, s.txRepositories(view{s: s, inTx: true})); err != nil {
		s.mu.Lock()
		s.st = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) txRepositories(v view) repository.TxRepositories {
	return repository.TxRepositories{
		Lock:      noopLocker{},
		Movements: movementRepo{v},
		Levels:    levelRepo{v},
		Products:  productRepo{v},
		Orders:    orderRepo{v},
		Invoices:  invoiceRepo{v},
		Payments:  paymentRepo{v},
		Audit:     auditRepo{v},
	}
}

func (s *Store) view() view { return view{s: s} }

// Ping siempre disponible.
func (s *Store) Ping(context.Context) error { return nil }

// noopLocker: Run ya serializa las transacciones.
type noopLocker struct{}

func (noopLocker) LockShared(context.Context, string) error    { return nil }
func (noopLocker) LockExclusive(context.Context, string) error { return nil }

// paginate aplica limit/offset sobre n elementos; Limit <= 0 no limita.
func paginate(n int, p repository.Page) (int, int) {
	lo := p.Offset
	if lo < 0 {
		lo = 0
	}
	if lo > n {
		lo = n
	}
	hi := n
	if p.Limit > 0 && lo+p.Limit < n {
		hi = lo + p.Limit
	}
	return lo, hi
}

// newestFirst ordena por CreatedAt descendente conservando el orden de inserción inverso en empates.
func newestFirst[T any](items []T, created func(T) int64) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	sort.SliceStable(items, func(a, b int) bool { return created(items[a]) > created(items[b]) })
}

func sortedValues[V any](m map[string]V, keep func(V) bool, created func(V) int64) []V {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		if v := m[k]; keep(v) {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return created(out[a]) > created(out[b]) })
	return out
}

func sortStrings(s []string) { sort.Strings(s) }
