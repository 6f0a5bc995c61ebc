package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/erp-ledger/internal/application/audit"
	"github.com/jhoicas/erp-ledger/internal/application/dto"
	"github.com/jhoicas/erp-ledger/internal/application/inventory"
	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/billing"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/ledger"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

// Deps dependencias del servicio de órdenes.
type Deps struct {
	Tx        repository.TxRunner
	Orders    repository.OrderRepository
	Products  repository.ProductRepository
	Customers repository.CustomerRepository
	Suppliers repository.SupplierRepository
	Ledger    *inventory.LedgerService
	Audit     *audit.Recorder
}

// Service ciclo de vida de órdenes de venta y compra y su efecto en existencias.
type Service struct {
	tx        repository.TxRunner
	orders    repository.OrderRepository
	products  repository.ProductRepository
	customers repository.CustomerRepository
	suppliers repository.SupplierRepository
	ledger    *inventory.LedgerService
	audit     *audit.Recorder
	now       func() time.Time
}

// NewService construye el servicio.
func NewService(deps Deps) *Service {
	return &Service{
		tx:        deps.Tx,
		orders:    deps.Orders,
		products:  deps.Products,
		customers: deps.Customers,
		suppliers: deps.Suppliers,
		ledger:    deps.Ledger,
		audit:     deps.Audit,
		now:       time.Now,
	}
}

// Create crea una orden. Precio y tasa de cada línea se toman del producto cuando no vienen;
// total_amount se calcula desde las líneas.
func (s *Service) Create(ctx context.Context, companyID, userID string, in dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	if (in.CustomerID == "") == (in.SupplierID == "") {
		return nil, domain.NewValidationError("customer_id", "indique customer_id o supplier_id, no ambos")
	}
	now := s.now().UTC()
	o := &entity.Order{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		Number:      strings.TrimSpace(in.Number),
		Type:        entity.OrderSale,
		CustomerID:  in.CustomerID,
		SupplierID:  in.SupplierID,
		Status:      entity.OrderDraft,
		Currency:    strings.ToUpper(in.Currency),
		Notes:       in.Notes,
		CreatedByID: userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Status != "" {
		o.Status = entity.OrderStatus(in.Status)
		switch o.Status {
		case entity.OrderDraft, entity.OrderPending, entity.OrderConfirmed:
		default:
			return nil, domain.NewValidationError("status", "una orden nueva debe ser DRAFT, PENDING o CONFIRMED")
		}
	}
	if o.Number == "" {
		o.Number = fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), strings.ToUpper(o.ID[:8]))
	}

	if in.SupplierID != "" {
		o.Type = entity.OrderPurchase
		sup, err := s.suppliers.GetByID(ctx, companyID, in.SupplierID)
		if err != nil {
			return nil, err
		}
		if sup == nil {
			return nil, domain.NewNotFoundError("proveedor", in.SupplierID)
		}
	} else {
		c, err := s.customers.GetByID(ctx, companyID, in.CustomerID)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, domain.NewNotFoundError("cliente", in.CustomerID)
		}
	}

	for _, req := range in.Items {
		p, err := s.products.GetByID(ctx, companyID, req.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, domain.NewNotFoundError("producto", req.ProductID)
		}
		if !p.IsActive {
			return nil, domain.NewConflictError("el producto %s está inactivo", p.SKU)
		}
		item := entity.OrderItem{
			ID:        uuid.New().String(),
			OrderID:   o.ID,
			ProductID: p.ID,
			Quantity:  req.Quantity,
			Price:     p.Price,
			TaxRate:   p.TaxRate,
		}
		if o.Type == entity.OrderPurchase {
			item.Price = p.Cost
		}
		if req.Price != nil {
			item.Price = *req.Price
		}
		if req.TaxRate != nil {
			item.TaxRate = *req.TaxRate
		}
		o.Items = append(o.Items, item)
	}
	if err := billing.ValidateItems(o.Items); err != nil {
		return nil, err
	}
	o.TotalAmount = billing.OrderTotal(o.Items)

	err := s.tx.Run(ctx, func(ctx context.Context, tx repository.TxRepositories) error {
		if err := tx.Orders.Create(ctx, o); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx.Audit, audit.Entry{
			CompanyID: companyID, ActorID: userID, Action: entity.AuditCreate,
			EntityType: "order", EntityID: o.ID, New: ToOrderResponse(o),
		})
	})
	if err != nil {
		return nil, err
	}
	out := ToOrderResponse(o)
	return &out, nil
}

// Get orden con su total recalculado.
func (s *Service) Get(ctx context.Context, companyID, id string) (*dto.OrderResponse, error) {
	o, err := s.orders.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.NewNotFoundError("orden", id)
	}
	out := ToOrderResponse(o)
	return &out, nil
}

// List órdenes de la empresa.
func (s *Service) List(ctx context.Context, companyID string, f repository.OrderFilter) (*dto.OrderListResponse, error) {
	list, err := s.orders.List(ctx, companyID, f)
	if err != nil {
		return nil, err
	}
	items := make([]dto.OrderResponse, 0, len(list))
	for _, o := range list {
		items = append(items, ToOrderResponse(o))
	}
	return &dto.OrderListResponse{Items: items, Page: dto.PageResponse{Limit: f.Page.Limit, Offset: f.Page.Offset}}, nil
}

// UpdateStatus aplica una transición válida. Anular libera las reservas abiertas de la orden.
func (s *Service) UpdateStatus(ctx context.Context, companyID, userID, id string, in dto.UpdateOrderStatusRequest) (*dto.OrderResponse, error) {
	next := entity.OrderStatus(in.Status)
	var o *entity.Order
	err := s.tx.Run(ctx, func(ctx context.Context, tx repository.TxRepositories) error {
		var err error
		if o, err = s.lockOrder(ctx, tx, companyID, id); err != nil {
			return err
		}
		if !billing.CanTransitionOrder(o.Status, next) {
			return domain.NewConflictError("transición de %s a %s no permitida", o.Status, next)
		}
		if next == entity.OrderCancelled {
			if _, err := s.releaseReservations(ctx, tx, o, userID); err != nil {
				return err
			}
		}
		return s.setStatus(ctx, tx, o, next, userID)
	})
	if err != nil {
		return nil, err
	}
	s.ledger.InvalidateLevels(ctx, companyID)
	out := ToOrderResponse(o)
	return &out, nil
}

// Reserve reserva en la bodega las cantidades de una orden de venta y la confirma.
func (s *Service) Reserve(ctx context.Context, companyID, userID, id string, in dto.OrderStockRequest) (*dto.OrderStockResponse, error) {
	if err := s.ledger.CheckWarehouse(ctx, companyID, in.WarehouseID); err != nil {
		return nil, err
	}
	var (
		o     *entity.Order
		moves []dto.MovementResponse
	)
	err := s.tx.Run(ctx, func(ctx context.Context, tx repository.TxRepositories) error {
		var err error
		if o, err = s.lockOrder(ctx, tx, companyID, id); err != nil {
			return err
		}
		if o.Type != entity.OrderSale {
			return domain.NewConflictError("solo las órdenes de venta reservan existencias")
		}
		switch o.Status {
		case entity.OrderDraft, entity.OrderPending, entity.OrderConfirmed:
		default:
			return domain.NewConflictError("la orden %s está en estado %s", o.Number, o.Status)
		}
		open, err := s.openReservations(ctx, tx, o)
		if err != nil {
			return err
		}
		if len(open) > 0 {
			return domain.NewConflictError("la orden %s ya tiene reservas abiertas", o.Number)
		}
		if err := lockLevels(ctx, tx, companyID, itemKeys(o, in.WarehouseID)); err != nil {
			return err
		}
		for _, it := range o.Items {
			mov, err := s.ledger.PostInTx(ctx, tx, inventory.Posting{
				CompanyID:     companyID,
				UserID:        userID,
				WarehouseID:   in.WarehouseID,
				ProductID:     it.ProductID,
				Type:          entity.MovementReserved,
				Quantity:      it.Quantity,
				ReferenceID:   o.ID,
				ReferenceType: entity.ReferenceOrder,
				Notes:         "reserva " + o.Number,
			})
			if err != nil {
				return err
			}
			moves = append(moves, inventory.ToMovementResponse(mov))
		}
		if o.Status != entity.OrderConfirmed {
			return s.setStatus(ctx, tx, o, entity.OrderConfirmed, userID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.ledger.InvalidateLevels(ctx, companyID)
	return &dto.OrderStockResponse{Order: ToOrderResponse(o), Movements: moves}, nil
}

// Fulfill libera las reservas abiertas y registra la salida (venta) o la entrada con costo (compra)
// de todas las líneas en la bodega; la orden queda COMPLETED.
func (s *Service) Fulfill(ctx context.Context, companyID, userID, id string, in dto.OrderStockRequest) (*dto.OrderStockResponse, error) {
	if err := s.ledger.CheckWarehouse(ctx, companyID, in.WarehouseID); err != nil {
		return nil, err
	}
	var (
		o     *entity.Order
		moves []dto.MovementResponse
	)
	err := s.tx.Run(ctx, func(ctx context.Context, tx repository.TxRepositories) error {
		var err error
		if o, err = s.lockOrder(ctx, tx, companyID, id); err != nil {
			return err
		}
		if !billing.CanTransitionOrder(o.Status, entity.OrderCompleted) {
			return domain.NewConflictError("la orden %s en estado %s no puede despacharse", o.Number, o.Status)
		}
		open, err := s.openReservations(ctx, tx, o)
		if err != nil {
			return err
		}
		if err := lockLevels(ctx, tx, companyID, append(open, itemKeys(o, in.WarehouseID)...)); err != nil {
			return err
		}
		released, err := s.releaseReservations(ctx, tx, o, userID)
		if err != nil {
			return err
		}
		moves = append(moves, released...)

		typ := entity.MovementOut
		if o.Type == entity.OrderPurchase {
			typ = entity.MovementIn
		}
		for _, it := range o.Items {
			p := inventory.Posting{
				CompanyID:     companyID,
				UserID:        userID,
				WarehouseID:   in.WarehouseID,
				ProductID:     it.ProductID,
				Type:          typ,
				Quantity:      it.Quantity,
				ReferenceID:   o.ID,
				ReferenceType: entity.ReferenceOrder,
				Notes:         "despacho " + o.Number,
			}
			if typ == entity.MovementIn {
				cost := it.Price
				p.UnitCost = &cost
				p.Notes = "recepción " + o.Number
			}
			mov, err := s.ledger.PostInTx(ctx, tx, p)
			if err != nil {
				return err
			}
			moves = append(moves, inventory.ToMovementResponse(mov))
		}
		return s.setStatus(ctx, tx, o, entity.OrderCompleted, userID)
	})
	if err != nil {
		return nil, err
	}
	s.ledger.InvalidateLevels(ctx, companyID)
	log.Info().Str("company_id", companyID).Str("order_id", o.ID).Int("movements", len(moves)).Msg("orden despachada")
	return &dto.OrderStockResponse{Order: ToOrderResponse(o), Movements: moves}, nil
}

func itemKeys(o *entity.Order, warehouseID string) []entity.StockLevel {
	keys := make([]entity.StockLevel, 0, len(o.Items))
	for _, it := range o.Items {
		keys = append(keys, entity.StockLevel{WarehouseID: warehouseID, ProductID: it.ProductID})
	}
	return keys
}

// lockLevels bloquea los niveles en orden (bodega, producto) antes de registrar movimientos,
// igual que los traslados, para que dos órdenes con líneas cruzadas no se interbloqueen.
func lockLevels(ctx context.Context, tx repository.TxRepositories, companyID string, keys []entity.StockLevel) error {
	if err := tx.Lock.LockShared(ctx, companyID); err != nil {
		return err
	}
	ledger.SortLevels(keys)
	for _, k := range keys {
		if _, err := tx.Levels.GetForUpdate(ctx, companyID, k.WarehouseID, k.ProductID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) lockOrder(ctx context.Context, tx repository.TxRepositories, companyID, id string) (*entity.Order, error) {
	o, err := tx.Orders.GetForUpdate(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.NewNotFoundError("orden", id)
	}
	return o, nil
}

func (s *Service) setStatus(ctx context.Context, tx repository.TxRepositories, o *entity.Order, next entity.OrderStatus, userID string) error {
	before := ToOrderResponse(o)
	if err := tx.Orders.UpdateStatus(ctx, o.CompanyID, o.ID, next); err != nil {
		return err
	}
	o.Status = next
	o.UpdatedAt = s.now().UTC()
	return s.audit.Record(ctx, tx.Audit, audit.Entry{
		CompanyID: o.CompanyID, ActorID: userID, Action: entity.AuditUpdate,
		EntityType: "order", EntityID: o.ID, Old: before, New: ToOrderResponse(o),
	})
}

// openReservations reservado neto por (bodega, producto) de los movimientos con referencia a la orden.
func (s *Service) openReservations(ctx context.Context, tx repository.TxRepositories, o *entity.Order) ([]entity.StockLevel, error) {
	movs, err := tx.Movements.List(ctx, o.CompanyID, repository.MovementFilter{
		ReferenceType: entity.ReferenceOrder,
		ReferenceID:   o.ID,
	})
	if err != nil {
		return nil, err
	}
	vals := make([]entity.StockMovement, 0, len(movs))
	for _, m := range movs {
		vals = append(vals, *m)
	}
	var open []entity.StockLevel
	for _, l := range ledger.Fold(o.CompanyID, vals) {
		if l.Reserved.IsPositive() {
			open = append(open, l)
		}
	}
	return open, nil
}

func (s *Service) releaseReservations(ctx context.Context, tx repository.TxRepositories, o *entity.Order, userID string) ([]dto.MovementResponse, error) {
	open, err := s.openReservations(ctx, tx, o)
	if err != nil {
		return nil, err
	}
	var out []dto.MovementResponse
	for _, l := range open {
		mov, err := s.ledger.PostInTx(ctx, tx, inventory.Posting{
			CompanyID:     o.CompanyID,
			UserID:        userID,
			WarehouseID:   l.WarehouseID,
			ProductID:     l.ProductID,
			Type:          entity.MovementUnreserved,
			Quantity:      l.Reserved,
			ReferenceID:   o.ID,
			ReferenceType: entity.ReferenceOrder,
			Notes:         "liberación " + o.Number,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, inventory.ToMovementResponse(mov))
	}
	return out, nil
}

// ToOrderResponse mapea la orden e indica si el total almacenado difiere del calculado.
func ToOrderResponse(o *entity.Order) dto.OrderResponse {
	computed := billing.OrderTotal(o.Items)
	out := dto.OrderResponse{
		ID:            o.ID,
		CompanyID:     o.CompanyID,
		Number:        o.Number,
		Type:          string(o.Type),
		CustomerID:    o.CustomerID,
		SupplierID:    o.SupplierID,
		Status:        string(o.Status),
		Currency:      o.Currency,
		TotalAmount:   o.TotalAmount,
		ComputedTotal: computed,
		TotalMismatch: !billing.RoundMoney(o.TotalAmount).Equal(computed),
		Notes:         o.Notes,
		Items:         make([]dto.OrderItemResponse, 0, len(o.Items)),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	for _, it := range o.Items {
		out.Items = append(out.Items, dto.OrderItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
			TaxRate:   it.TaxRate,
			Total:     billing.RoundMoney(billing.ItemTotal(it)),
		})
	}
	return out
}
