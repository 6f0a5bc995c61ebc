package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/erp-ledger/internal/application/dto"
	"github.com/jhoicas/erp-ledger/internal/application/orders"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

// OrderHandler órdenes de venta y compra.
type OrderHandler struct {
	svc *orders.Service
}

// NewOrderHandler construye el handler.
func NewOrderHandler(svc *orders.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// Create godoc
// @Summary      Crear orden
// @Description  customer_id para venta o supplier_id para compra, nunca ambos.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateOrderRequest  true  "Orden"
// @Success      201   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOrderRequest
	if err := bind(c, &in); err != nil {
		return handleBind(c, err)
	}
	out, err := h.svc.Create(c.UserContext(), GetCompanyID(c), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar órdenes
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "Estado"
// @Param        type    query  string  false  "SALE | PURCHASE"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.OrderListResponse
// @Router       /api/orders [get]
func (h *OrderHandler) List(c *fiber.Ctx) error {
	f := repository.OrderFilter{Status: c.Query("status"), Type: c.Query("type"), Page: pageFromQuery(c)}
	out, err := h.svc.List(c.UserContext(), GetCompanyID(c), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener orden
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "orden")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.svc.Get(c.UserContext(), GetCompanyID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// UpdateStatus godoc
// @Summary      Cambiar estado de la orden
// @Description  Cancelar libera las reservas abiertas.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                        true  "ID de la orden"
// @Param        body  body  dto.UpdateOrderStatusRequest  true  "Nuevo estado"
// @Success      200   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := pathID(c, "orden")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.UpdateOrderStatusRequest
	if err := bind(c, &in); err != nil {
		return handleBind(c, err)
	}
	out, err := h.svc.UpdateStatus(c.UserContext(), GetCompanyID(c), GetUserID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Reserve godoc
// @Summary      Reservar existencias para una orden de venta
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de la orden"
// @Param        body  body  dto.OrderStockRequest  true  "Bodega"
// @Success      200   {object}  dto.OrderStockResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/reserve [post]
func (h *OrderHandler) Reserve(c *fiber.Ctx) error {
	id, err := pathID(c, "orden")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.OrderStockRequest
	if err := bind(c, &in); err != nil {
		return handleBind(c, err)
	}
	out, err := h.svc.Reserve(c.UserContext(), GetCompanyID(c), GetUserID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Fulfill godoc
// @Summary      Despachar o recibir una orden
// @Description  Libera reservas, registra OUT (venta) o IN (compra) por línea y completa la orden.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de la orden"
// @Param        body  body  dto.OrderStockRequest  true  "Bodega"
// @Success      200   {object}  dto.OrderStockResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/fulfill [post]
func (h *OrderHandler) Fulfill(c *fiber.Ctx) error {
	id, err := pathID(c, "orden")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.OrderStockRequest
	if err := bind(c, &in); err != nil {
		return handleBind(c, err)
	}
	out, err := h.svc.Fulfill(c.UserContext(), GetCompanyID(c), GetUserID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
