package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/erp-ledger/internal/application/billing"
	"github.com/jhoicas/erp-ledger/internal/application/dto"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

// BillingHandler facturas y pagos.
type BillingHandler struct {
	svc *billing.Service
}

// NewBillingHandler construye el handler.
func NewBillingHandler(svc *billing.Service) *BillingHandler {
	return &BillingHandler{svc: svc}
}

// RecordPayment godoc
// @Summary      Registrar pago
// @Description  Con invoice_id el pago se aplica a la factura y su estado se recalcula.
// @Tags         payments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordPaymentRequest  true  "Pago"
// @Success      201   {object}  dto.PaymentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/payments [post]
func (h *BillingHandler) RecordPayment(c *fiber.Ctx) error {
	var in dto.RecordPaymentRequest
	if err := bind(c, &in); err != nil {
		return handleBind(c, err)
	}
	out, err := h.svc.RecordPayment(c.UserContext(), GetCompanyID(c), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListPayments godoc
// @Summary      Listar pagos
// @Tags         payments
// @Security     Bearer
// @Produce      json
// @Param        invoice_id  query  string  false  "Factura"
// @Param        limit       query  int     false  "Límite"  default(20)
// @Param        offset      query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.PaymentListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/payments [get]
func (h *BillingHandler) ListPayments(c *fiber.Ctx) error {
	invoiceID, err := queryID(c, "invoice_id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.svc.ListPayments(c.UserContext(), GetCompanyID(c), invoiceID, pageFromQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// CreateInvoice godoc
// @Summary      Crear factura
// @Description  A partir de una orden (total calculado desde sus líneas) o con importes explícitos.
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateInvoiceRequest  true  "Factura"
// @Success      201   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/invoices [post]
func (h *BillingHandler) CreateInvoice(c *fiber.Ctx) error {
	var in dto.CreateInvoiceRequest
	if err := bind(c, &in); err != nil {
		return handleBind(c, err)
	}
	out, err := h.svc.CreateInvoice(c.UserContext(), GetCompanyID(c), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListInvoices godoc
// @Summary      Listar facturas
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "Estado"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.InvoiceListResponse
// @Router       /api/invoices [get]
func (h *BillingHandler) ListInvoices(c *fiber.Ctx) error {
	f := repository.InvoiceFilter{Status: c.Query("status"), Page: pageFromQuery(c)}
	out, err := h.svc.ListInvoices(c.UserContext(), GetCompanyID(c), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetInvoice godoc
// @Summary      Obtener factura con saldo y pagos
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [get]
func (h *BillingHandler) GetInvoice(c *fiber.Ctx) error {
	id, err := pathID(c, "factura")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.svc.GetInvoice(c.UserContext(), GetCompanyID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetBalance godoc
// @Summary      Saldo de la factura
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceBalanceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/balance [get]
func (h *BillingHandler) GetBalance(c *fiber.Ctx) error {
	id, err := pathID(c, "factura")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.svc.GetInvoiceBalance(c.UserContext(), GetCompanyID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// UpdateInvoiceStatus godoc
// @Summary      Cambiar estado de la factura
// @Description  PAID y PARTIALLY_PAID solo se aceptan si coinciden con el saldo.
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                          true  "ID de la factura"
// @Param        body  body  dto.UpdateInvoiceStatusRequest  true  "Nuevo estado"
// @Success      200   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/status [patch]
func (h *BillingHandler) UpdateInvoiceStatus(c *fiber.Ctx) error {
	id, err := pathID(c, "factura")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.UpdateInvoiceStatusRequest
	if err := bind(c, &in); err != nil {
		return handleBind(c, err)
	}
	out, err := h.svc.UpdateInvoiceStatus(c.UserContext(), GetCompanyID(c), GetUserID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// StatementPDF godoc
// @Summary      Estado de cuenta en PDF
// @Tags         invoices
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {file}    file
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/pdf [get]
func (h *BillingHandler) StatementPDF(c *fiber.Ctx) error {
	id, err := pathID(c, "factura")
	if err != nil {
		return respondError(c, err)
	}
	pdf, filename, err := h.svc.RenderStatement(c.UserContext(), GetCompanyID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", filename))
	return c.Send(pdf)
}
