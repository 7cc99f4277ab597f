package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/pos-backoffice/internal/application/dto"
	"github.com/tu-usuario/pos-backoffice/internal/application/sales"
)

// TransactionHandler maneja ventas, cancelaciones, recibos y el replay
// offline (protegido).
type TransactionHandler struct {
	uc *sales.SalesUseCase
}

// NewTransactionHandler construye el handler.
func NewTransactionHandler(uc *sales.SalesUseCase) *TransactionHandler {
	return &TransactionHandler{uc: uc}
}

// Create crea una venta debitando stock atómicamente.
// POST /api/transactions
func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTransactionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	t, err := h.uc.Create(c.Context(), BuildActor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

// Cancel cancela una venta COMPLETED restaurando el stock.
// POST /api/transactions/:id/cancel
func (h *TransactionHandler) Cancel(c *fiber.Ctx) error {
	t, err := h.uc.Cancel(c.Context(), BuildActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(t)
}

// GetByID detalle de una venta con sus ítems.
// GET /api/transactions/:id
func (h *TransactionHandler) GetByID(c *fiber.Ctx) error {
	t, err := h.uc.GetByID(c.Context(), BuildActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(t)
}

// List ventas de una sucursal.
// GET /api/transactions?branch_id=...
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	branchID := c.Query("branch_id")
	if branchID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "branch_id requerido"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	list, err := h.uc.List(c.Context(), BuildActor(c), branchID, page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// Receipt devuelve el recibo de la venta en PDF.
// GET /api/transactions/:id/receipt
func (h *TransactionHandler) Receipt(c *fiber.Ctx) error {
	pdfBytes, err := h.uc.Receipt(c.Context(), BuildActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="recibo.pdf"`)
	return c.Send(pdfBytes)
}

// Sync reconcilia un lote de ventas generadas offline; idempotente por id y
// número de venta.
// POST /api/transactions/sync
func (h *TransactionHandler) Sync(c *fiber.Ctx) error {
	var in dto.SyncTransactionsRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.uc.Replay(c.Context(), BuildActor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}
