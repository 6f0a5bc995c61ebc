package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

// Key identifica un nivel dentro de una empresa.
type Key struct {
	WarehouseID string
	ProductID   string
}

// Book acumula movimientos por (bodega, producto). La suma es conmutativa,
// así que el resultado no depende del orden de aplicación.
type Book struct {
	companyID string
	levels    map[Key]entity.StockLevel
}

// NewBook crea un libro vacío para la empresa.
func NewBook(companyID string) *Book {
	return &Book{companyID: companyID, levels: make(map[Key]entity.StockLevel)}
}

// Post aplica un movimiento al libro. Movimientos de otra empresa se ignoran.
func (b *Book) Post(m entity.StockMovement) {
	if m.CompanyID != b.companyID {
		return
	}
	k := Key{WarehouseID: m.WarehouseID, ProductID: m.ProductID}
	lvl, ok := b.levels[k]
	if !ok {
		lvl = entity.StockLevel{
			CompanyID:   b.companyID,
			WarehouseID: m.WarehouseID,
			ProductID:   m.ProductID,
			Quantity:    decimal.Zero,
			Reserved:    decimal.Zero,
		}
	}
	lvl = Apply(lvl, EffectOf(m.Type, m.Quantity))
	if m.CreatedAt.After(lvl.UpdatedAt) {
		lvl.UpdatedAt = m.CreatedAt
	}
	b.levels[k] = lvl
}

// Levels devuelve los niveles ordenados por bodega y producto.
func (b *Book) Levels() []entity.StockLevel {
	out := make([]entity.StockLevel, 0, len(b.levels))
	for _, l := range b.levels {
		out = append(out, l)
	}
	SortLevels(out)
	return out
}

// Fold pliega el historial completo en niveles.
func Fold(companyID string, movements []entity.StockMovement) []entity.StockLevel {
	b := NewBook(companyID)
	for _, m := range movements {
		b.Post(m)
	}
	return b.Levels()
}

// SortLevels ordena por (bodega, producto).
func SortLevels(levels []entity.StockLevel) {
	sort.Slice(levels, func(i, j int) bool {
		if levels[i].WarehouseID != levels[j].WarehouseID {
			return levels[i].WarehouseID < levels[j].WarehouseID
		}
		return levels[i].ProductID < levels[j].ProductID
	})
}

// Drift diferencia entre el nivel materializado y el derivado del libro.
type Drift struct {
	WarehouseID    string
	ProductID      string
	StoredQuantity decimal.Decimal
	StoredReserved decimal.Decimal
	LedgerQuantity decimal.Decimal
	LedgerReserved decimal.Decimal
}

// Compare devuelve las claves cuyo nivel almacenado difiere del calculado.
// Una clave ausente en un lado cuenta como cero.
func Compare(stored, computed []entity.StockLevel) []Drift {
	type pair struct{ stored, computed entity.StockLevel }
	byKey := make(map[Key]*pair)
	get := func(l entity.StockLevel) *pair {
		k := Key{WarehouseID: l.WarehouseID, ProductID: l.ProductID}
		p, ok := byKey[k]
		if !ok {
			zero := entity.StockLevel{WarehouseID: l.WarehouseID, ProductID: l.ProductID}
			p = &pair{stored: zero, computed: zero}
			byKey[k] = p
		}
		return p
	}
	for _, l := range stored {
		get(l).stored = l
	}
	for _, l := range computed {
		get(l).computed = l
	}

	var out []Drift
	for k, p := range byKey {
		if p.stored.Quantity.Equal(p.computed.Quantity) && p.stored.Reserved.Equal(p.computed.Reserved) {
			continue
		}
		out = append(out, Drift{
			WarehouseID:    k.WarehouseID,
			ProductID:      k.ProductID,
			StoredQuantity: p.stored.Quantity,
			StoredReserved: p.stored.Reserved,
			LedgerQuantity: p.computed.Quantity,
			LedgerReserved: p.computed.Reserved,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WarehouseID != out[j].WarehouseID {
			return out[i].WarehouseID < out[j].WarehouseID
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out
}
