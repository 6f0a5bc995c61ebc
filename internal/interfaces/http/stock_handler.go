package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/erp-ledger/internal/application/dto"
	"github.com/jhoicas/erp-ledger/internal/application/inventory"
	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

// StockHandler movimientos del kardex y niveles de existencias.
type StockHandler struct {
	ledger *inventory.LedgerService
}

// NewStockHandler construye el handler.
func NewStockHandler(ledger *inventory.LedgerService) *StockHandler {
	return &StockHandler{ledger: ledger}
}

// RecordMovement godoc
// @Summary      Registrar movimiento de inventario
// @Description  IN, OUT, ADJUSTMENT (cantidad con signo), RESERVED, UNRESERVED o TRANSFER (par OUT/IN entre bodegas).
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordMovementRequest  true  "Movimiento"
// @Success      201   {object}  dto.MovementResponse
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock-movements [post]
func (h *StockHandler) RecordMovement(c *fiber.Ctx) error {
	var in dto.RecordMovementRequest
	if err := bind(c, &in); err != nil {
		return handleBind(c, err)
	}
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if entity.MovementType(in.MovementType) == entity.MovementTransfer {
		out, err := h.ledger.RecordTransfer(c.UserContext(), companyID, userID, in)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(out)
	}
	out, err := h.ledger.RecordMovement(c.UserContext(), companyID, userID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListMovements godoc
// @Summary      Historial de movimientos
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id    query  string  false  "Bodega"
// @Param        product_id      query  string  false  "Producto"
// @Param        reference_type  query  string  false  "Tipo de referencia"
// @Param        reference_id    query  string  false  "Referencia"
// @Param        since           query  string  false  "Desde (RFC3339)"
// @Param        limit           query  int     false  "Límite"  default(20)
// @Param        offset          query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock-movements [get]
func (h *StockHandler) ListMovements(c *fiber.Ctx) error {
	warehouseID, err := queryID(c, "warehouse_id")
	if err != nil {
		return respondError(c, err)
	}
	productID, err := queryID(c, "product_id")
	if err != nil {
		return respondError(c, err)
	}
	f := repository.MovementFilter{
		WarehouseID:   warehouseID,
		ProductID:     productID,
		ReferenceType: c.Query("reference_type"),
		ReferenceID:   c.Query("reference_id"),
		Page:          pageFromQuery(c),
	}
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return respondError(c, domain.NewValidationError("since", "debe tener formato RFC3339"))
		}
		f.Since = &since
	}
	out, err := h.ledger.ListMovements(c.UserContext(), GetCompanyID(c), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Levels godoc
// @Summary      Niveles de existencias
// @Description  source=ledger deriva los niveles plegando el historial en lugar de leer la tabla materializada.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Bodega"
// @Param        product_id    query  string  false  "Producto"
// @Param        source        query  string  false  "stored | ledger"
// @Success      200  {array}   dto.StockLevelResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock [get]
func (h *StockHandler) Levels(c *fiber.Ctx) error {
	warehouseID, err := queryID(c, "warehouse_id")
	if err != nil {
		return respondError(c, err)
	}
	productID, err := queryID(c, "product_id")
	if err != nil {
		return respondError(c, err)
	}
	f := repository.LevelFilter{WarehouseID: warehouseID, ProductID: productID}

	var out []dto.StockLevelResponse
	switch c.Query("source", "stored") {
	case "stored":
		out, err = h.ledger.GetCurrentLevels(c.UserContext(), GetCompanyID(c), f)
	case "ledger":
		out, err = h.ledger.ComputeLevelsFromLedger(c.UserContext(), GetCompanyID(c), f)
	default:
		return respondError(c, domain.NewValidationError("source", "debe ser uno de: stored ledger"))
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Recalculate godoc
// @Summary      Reconstruir niveles desde el historial
// @Description  Con async=true la reconstrucción se encola y responde 202.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        async  query  bool  false  "Encolar en el worker"
// @Success      200  {object}  dto.RecalculateResponse
// @Success      202  {object}  dto.RecalculateQueuedResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock/recalculate [post]
func (h *StockHandler) Recalculate(c *fiber.Ctx) error {
	if c.QueryBool("async") {
		out, err := h.ledger.EnqueueRecalculate(c.UserContext(), GetCompanyID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(out)
	}
	out, err := h.ledger.Recalculate(c.UserContext(), GetCompanyID(c), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Drift godoc
// @Summary      Diferencias entre niveles almacenados e historial
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.DriftResponse
// @Router       /api/stock/drift [get]
func (h *StockHandler) Drift(c *fiber.Ctx) error {
	out, err := h.ledger.DetectDrift(c.UserContext(), GetCompanyID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
