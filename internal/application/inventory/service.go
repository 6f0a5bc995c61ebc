package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/application/audit"
	"github.com/jhoicas/erp-ledger/internal/application/dto"
	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/ledger"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

// Config reglas del libro.
type Config struct {
	AllowNegative bool
}

// Deps dependencias del servicio de existencias.
type Deps struct {
	Tx         repository.TxRunner
	Warehouses repository.WarehouseRepository
	Products   repository.ProductRepository
	Movements  repository.StockMovementRepository
	Levels     repository.StockLevelRepository
	Audit      *audit.Recorder
	Cache      LevelCache     // opcional
	Enqueuer   RecalcEnqueuer // opcional
}

// LedgerService registra movimientos y expone los niveles derivados por (bodega, producto).
// Cada escritura inserta el movimiento y actualiza el nivel materializado en la misma transacción,
// con la fila del nivel bloqueada para que la verificación de disponible y la escritura sean atómicas.
type LedgerService struct {
	tx         repository.TxRunner
	warehouses repository.WarehouseRepository
	products   repository.ProductRepository
	movements  repository.StockMovementRepository
	levels     repository.StockLevelRepository
	audit      *audit.Recorder
	cache      LevelCache
	enqueuer   RecalcEnqueuer
	cfg        Config
	now        func() time.Time
}

// NewLedgerService construye el servicio.
func NewLedgerService(deps Deps, cfg Config) *LedgerService {
	cache := deps.Cache
	if cache == nil {
		cache = noCache{}
	}
	return &LedgerService{
		tx:         deps.Tx,
		warehouses: deps.Warehouses,
		products:   deps.Products,
		movements:  deps.Movements,
		levels:     deps.Levels,
		audit:      deps.Audit,
		cache:      cache,
		enqueuer:   deps.Enqueuer,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Posting movimiento a aplicar dentro de una transacción existente.
type Posting struct {
	CompanyID     string
	UserID        string
	WarehouseID   string
	ProductID     string
	Type          entity.MovementType
	Quantity      decimal.Decimal
	UnitCost      *decimal.Decimal
	ReferenceID   string
	ReferenceType string
	Notes         string
}

// RecordMovement valida y registra un movimiento IN, OUT, ADJUSTMENT, RESERVED o UNRESERVED.
// Los traslados se registran con RecordTransfer.
func (s *LedgerService) RecordMovement(ctx context.Context, companyID, userID string, in dto.RecordMovementRequest) (*dto.MovementResponse, error) {
	t := entity.MovementType(in.MovementType)
	if t == entity.MovementTransfer {
		return nil, domain.NewValidationError("movement_type", "use from_warehouse_id y to_warehouse_id para traslados")
	}
	if err := ledger.ValidateMovement(t, in.Quantity); err != nil {
		return nil, err
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return nil, domain.NewValidationError("unit_cost", "no puede ser negativo")
	}
	if err := s.checkWarehouse(ctx, companyID, in.WarehouseID); err != nil {
		return nil, err
	}
	if err := s.checkProduct(ctx, companyID, in.ProductID); err != nil {
		return nil, err
	}

	var mov *entity.StockMovement
	err := s.tx.Run(ctx, func(ctx context.Context, tx repository.TxRepositories) error {
		var err error
		mov, err = s.PostInTx(ctx, tx, Posting{
			CompanyID:     companyID,
			UserID:        userID,
			WarehouseID:   in.WarehouseID,
			ProductID:     in.ProductID,
			Type:          t,
			Quantity:      in.Quantity,
			UnitCost:      in.UnitCost,
			ReferenceID:   in.ReferenceID,
			ReferenceType: in.ReferenceType,
			Notes:         in.Notes,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.InvalidateLevels(ctx, companyID)
	out := ToMovementResponse(mov)
	return &out, nil
}

// RecordTransfer descompone un traslado en OUT en la bodega origen e IN en la destino,
// ambos con reference_type TRANSFER y la misma reference_id, en una sola transacción.
func (s *LedgerService) RecordTransfer(ctx context.Context, companyID, userID string, in dto.RecordMovementRequest) (*dto.TransferResponse, error) {
	if err := ledger.ValidateMovement(entity.MovementOut, in.Quantity); err != nil {
		return nil, err
	}
	if in.FromWarehouseID == "" {
		return nil, domain.NewValidationError("from_warehouse_id", "es requerido")
	}
	if in.ToWarehouseID == "" {
		return nil, domain.NewValidationError("to_warehouse_id", "es requerido")
	}
	if in.FromWarehouseID == in.ToWarehouseID {
		return nil, domain.NewValidationError("to_warehouse_id", "debe ser distinta de la bodega origen")
	}
	if err := s.checkWarehouse(ctx, companyID, in.FromWarehouseID); err != nil {
		return nil, err
	}
	if err := s.checkWarehouse(ctx, companyID, in.ToWarehouseID); err != nil {
		return nil, err
	}
	if err := s.checkProduct(ctx, companyID, in.ProductID); err != nil {
		return nil, err
	}

	refID := in.ReferenceID
	if refID == "" {
		refID = uuid.New().String()
	}
	base := Posting{
		CompanyID:     companyID,
		UserID:        userID,
		ProductID:     in.ProductID,
		Quantity:      in.Quantity,
		ReferenceID:   refID,
		ReferenceType: entity.ReferenceTransfer,
		Notes:         in.Notes,
	}

	var outMov, inMov *entity.StockMovement
	err := s.tx.Run(ctx, func(ctx context.Context, tx repository.TxRepositories) error {
		if err := tx.Lock.LockShared(ctx, companyID); err != nil {
			return err
		}
		// bloqueo en orden estable para que traslados cruzados no se interbloqueen
		keys := []string{in.FromWarehouseID, in.ToWarehouseID}
		sort.Strings(keys)
		for _, wh := range keys {
			if _, err := tx.Levels.GetForUpdate(ctx, companyID, wh, in.ProductID); err != nil {
				return err
			}
		}

		out := base
		out.WarehouseID = in.FromWarehouseID
		out.Type = entity.MovementOut
		var err error
		if outMov, err = s.PostInTx(ctx, tx, out); err != nil {
			return err
		}
		dst := base
		dst.WarehouseID = in.ToWarehouseID
		dst.Type = entity.MovementIn
		inMov, err = s.PostInTx(ctx, tx, dst)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.InvalidateLevels(ctx, companyID)
	return &dto.TransferResponse{
		ReferenceID: refID,
		Movements:   []dto.MovementResponse{ToMovementResponse(outMov), ToMovementResponse(inMov)},
	}, nil
}

// PostInTx aplica un movimiento con los repositorios de la transacción del llamador:
// bloquea el nivel, verifica disponibilidad, inserta el movimiento, actualiza el nivel
// (y el costo promedio en entradas con costo) y registra la bitácora.
// El producto se vuelve a leer dentro de la transacción: inactivo o de otra empresa es NotFoundError.
// UNRESERVED queda exento para que una reserva abierta siempre pueda liberarse.
// La bodega la verifica el llamador antes de abrir la transacción.
func (s *LedgerService) PostInTx(ctx context.Context, tx repository.TxRepositories, p Posting) (*entity.StockMovement, error) {
	if err := ledger.ValidateMovement(p.Type, p.Quantity); err != nil {
		return nil, err
	}
	if p.Type == entity.MovementTransfer {
		return nil, domain.NewValidationError("movement_type", "TRANSFER no es un movimiento almacenable")
	}
	if p.Type != entity.MovementUnreserved {
		prod, err := tx.Products.GetByID(ctx, p.CompanyID, p.ProductID)
		if err != nil {
			return nil, err
		}
		if prod == nil || !prod.IsActive {
			return nil, domain.NewNotFoundError("producto", p.ProductID)
		}
	}
	if err := tx.Lock.LockShared(ctx, p.CompanyID); err != nil {
		return nil, err
	}

	level, err := tx.Levels.GetForUpdate(ctx, p.CompanyID, p.WarehouseID, p.ProductID)
	if err != nil {
		return nil, err
	}
	delta := ledger.EffectOf(p.Type, p.Quantity)
	if err := ledger.CheckAvailability(*level, delta, s.cfg.AllowNegative); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if p.UnitCost != nil && delta.Quantity.IsPositive() {
		if err := s.updateAverageCost(ctx, tx, p, level.Quantity); err != nil {
			return nil, err
		}
	}

	mov := &entity.StockMovement{
		ID:            uuid.New().String(),
		CompanyID:     p.CompanyID,
		WarehouseID:   p.WarehouseID,
		ProductID:     p.ProductID,
		Type:          p.Type,
		Quantity:      p.Quantity,
		UnitCost:      p.UnitCost,
		ReferenceID:   p.ReferenceID,
		ReferenceType: p.ReferenceType,
		Notes:         p.Notes,
		CreatedByID:   p.UserID,
		CreatedAt:     now,
	}
	if err := tx.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}

	next := ledger.Apply(*level, delta)
	next.UpdatedAt = now
	if err := tx.Levels.Upsert(ctx, &next); err != nil {
		return nil, err
	}

	if err := s.audit.Record(ctx, tx.Audit, audit.Entry{
		CompanyID:  p.CompanyID,
		ActorID:    p.UserID,
		Action:     entity.AuditCreate,
		EntityType: "stock_movement",
		EntityID:   mov.ID,
		New:        ToMovementResponse(mov),
	}); err != nil {
		return nil, err
	}
	return mov, nil
}

func (s *LedgerService) updateAverageCost(ctx context.Context, tx repository.TxRepositories, p Posting, onHand decimal.Decimal) error {
	product, err := tx.Products.GetByID(ctx, p.CompanyID, p.ProductID)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.NewNotFoundError("producto", p.ProductID)
	}
	cost := ledger.WeightedAverageCost(onHand, product.Cost, p.Quantity, *p.UnitCost)
	return tx.Products.UpdateCost(ctx, p.CompanyID, p.ProductID, cost)
}

// GetCurrentLevels niveles de la empresa filtrados opcionalmente por bodega y/o producto.
// Un filtro que apunta a una bodega o producto de otra empresa devuelve NotFound.
func (s *LedgerService) GetCurrentLevels(ctx context.Context, companyID string, f repository.LevelFilter) ([]dto.StockLevelResponse, error) {
	if err := s.checkFilter(ctx, companyID, f); err != nil {
		return nil, err
	}
	levels, err := s.cache.Levels(ctx, companyID, f, func(ctx context.Context) ([]entity.StockLevel, error) {
		return s.levels.List(ctx, companyID, f)
	})
	if err != nil {
		return nil, err
	}
	return toLevelResponses(levels), nil
}

// ComputeLevelsFromLedger niveles calculados directamente plegando el historial, sin tocar la tabla materializada.
func (s *LedgerService) ComputeLevelsFromLedger(ctx context.Context, companyID string, f repository.LevelFilter) ([]dto.StockLevelResponse, error) {
	if err := s.checkFilter(ctx, companyID, f); err != nil {
		return nil, err
	}
	movs, err := s.movements.ListAll(ctx, companyID)
	if err != nil {
		return nil, err
	}
	all := ledger.Fold(companyID, movs)
	filtered := all[:0]
	for _, l := range all {
		if f.Matches(l.WarehouseID, l.ProductID) {
			filtered = append(filtered, l)
		}
	}
	return toLevelResponses(filtered), nil
}

// Recalculate reconstruye los niveles materializados de la empresa desde el historial completo.
// Toma el bloqueo exclusivo del libro de la empresa, de modo que ningún movimiento de ese tenant
// se intercala con la reconstrucción. Es idempotente.
func (s *LedgerService) Recalculate(ctx context.Context, companyID, userID string) (*dto.RecalculateResponse, error) {
	started := s.now()
	var count int
	err := s.tx.Run(ctx, func(ctx context.Context, tx repository.TxRepositories) error {
		if err := tx.Lock.LockExclusive(ctx, companyID); err != nil {
			return err
		}
		movs, err := tx.Movements.ListAll(ctx, companyID)
		if err != nil {
			return err
		}
		levels := ledger.Fold(companyID, movs)
		now := s.now().UTC()
		for i := range levels {
			if levels[i].UpdatedAt.IsZero() {
				levels[i].UpdatedAt = now
			}
		}
		if count, err = tx.Levels.ReplaceAll(ctx, companyID, levels); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx.Audit, audit.Entry{
			CompanyID:  companyID,
			ActorID:    userID,
			Action:     entity.AuditUpdate,
			EntityType: "stock_levels",
			EntityID:   companyID,
			New:        dto.RecalculateResponse{RecalculatedCount: count},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("recalcular niveles: %w", err)
	}
	s.InvalidateLevels(ctx, companyID)
	log.Info().
		Str("company_id", companyID).
		Int("recalculated_count", count).
		Dur("elapsed", s.now().Sub(started)).
		Msg("niveles de existencias recalculados")
	return &dto.RecalculateResponse{RecalculatedCount: count}, nil
}

// AsyncEnabled indica si hay un worker al que encolar la reconstrucción.
func (s *LedgerService) AsyncEnabled() bool { return s.enqueuer != nil }

// EnqueueRecalculate encola Recalculate para la empresa y devuelve el id de la tarea.
func (s *LedgerService) EnqueueRecalculate(ctx context.Context, companyID string) (*dto.RecalculateQueuedResponse, error) {
	if s.enqueuer == nil {
		return nil, domain.NewConflictError("la reconstrucción asíncrona no está habilitada")
	}
	id, err := s.enqueuer.EnqueueRecalculate(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("encolar recálculo: %w", err)
	}
	return &dto.RecalculateQueuedResponse{TaskID: id, Status: "queued"}, nil
}

// DetectDrift compara los niveles materializados con el plegado del historial.
func (s *LedgerService) DetectDrift(ctx context.Context, companyID string) ([]dto.DriftResponse, error) {
	stored, err := s.levels.List(ctx, companyID, repository.LevelFilter{})
	if err != nil {
		return nil, err
	}
	movs, err := s.movements.ListAll(ctx, companyID)
	if err != nil {
		return nil, err
	}
	drift := ledger.Compare(stored, ledger.Fold(companyID, movs))
	out := make([]dto.DriftResponse, 0, len(drift))
	for _, d := range drift {
		out = append(out, dto.DriftResponse{
			WarehouseID:    d.WarehouseID,
			ProductID:      d.ProductID,
			StoredQuantity: d.StoredQuantity,
			StoredReserved: d.StoredReserved,
			LedgerQuantity: d.LedgerQuantity,
			LedgerReserved: d.LedgerReserved,
		})
	}
	return out, nil
}

// ListMovements historial de movimientos, más recientes primero.
func (s *LedgerService) ListMovements(ctx context.Context, companyID string, f repository.MovementFilter) (*dto.MovementListResponse, error) {
	movs, err := s.movements.List(ctx, companyID, f)
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		items = append(items, ToMovementResponse(m))
	}
	return &dto.MovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: f.Page.Limit, Offset: f.Page.Offset},
	}, nil
}

// InvalidateLevels descarta la caché de niveles de la empresa. Un fallo solo se registra:
// la caché es versionada y expira sola.
func (s *LedgerService) InvalidateLevels(ctx context.Context, companyID string) {
	if err := s.cache.Invalidate(ctx, companyID); err != nil {
		log.Warn().Err(err).Str("company_id", companyID).Msg("no se pudo invalidar la caché de niveles")
	}
}

// CheckWarehouse verifica que la bodega exista, esté activa y pertenezca a la empresa.
func (s *LedgerService) CheckWarehouse(ctx context.Context, companyID, id string) error {
	return s.checkWarehouse(ctx, companyID, id)
}

func (s *LedgerService) checkWarehouse(ctx context.Context, companyID, id string) error {
	if id == "" {
		return domain.NewValidationError("warehouse_id", "es requerido")
	}
	wh, err := s.warehouses.GetByID(ctx, companyID, id)
	if err != nil {
		return err
	}
	if wh == nil || !wh.IsActive {
		return domain.NewNotFoundError("bodega", id)
	}
	return nil
}

func (s *LedgerService) checkProduct(ctx context.Context, companyID, id string) error {
	if id == "" {
		return domain.NewValidationError("product_id", "es requerido")
	}
	p, err := s.products.GetByID(ctx, companyID, id)
	if err != nil {
		return err
	}
	if p == nil || !p.IsActive {
		return domain.NewNotFoundError("producto", id)
	}
	return nil
}

func (s *LedgerService) checkFilter(ctx context.Context, companyID string, f repository.LevelFilter) error {
	if f.WarehouseID != "" {
		wh, err := s.warehouses.GetByID(ctx, companyID, f.WarehouseID)
		if err != nil {
			return err
		}
		if wh == nil {
			return domain.NewNotFoundError("bodega", f.WarehouseID)
		}
	}
	if f.ProductID != "" {
		p, err := s.products.GetByID(ctx, companyID, f.ProductID)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.NewNotFoundError("producto", f.ProductID)
		}
	}
	return nil
}

// ToMovementResponse adapta la entidad al DTO.
func ToMovementResponse(m *entity.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:            m.ID,
		CompanyID:     m.CompanyID,
		WarehouseID:   m.WarehouseID,
		ProductID:     m.ProductID,
		MovementType:  string(m.Type),
		Quantity:      m.Quantity,
		UnitCost:      m.UnitCost,
		ReferenceID:   m.ReferenceID,
		ReferenceType: m.ReferenceType,
		Notes:         m.Notes,
		CreatedByID:   m.CreatedByID,
		CreatedAt:     m.CreatedAt,
	}
}

func toLevelResponses(levels []entity.StockLevel) []dto.StockLevelResponse {
	out := make([]dto.StockLevelResponse, 0, len(levels))
	for _, l := range levels {
		out = append(out, dto.StockLevelResponse{
			WarehouseID: l.WarehouseID,
			ProductID:   l.ProductID,
			Quantity:    l.Quantity,
			Reserved:    l.Reserved,
			Available:   l.Available(),
			UpdatedAt:   l.UpdatedAt,
		})
	}
	return out
}
