package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/pos-backoffice/internal/application/dto"
	"github.com/tu-usuario/pos-backoffice/internal/application/stock"
)

// StockHandler maneja consultas y ajustes del ledger de stock (protegido).
type StockHandler struct {
	uc *stock.StockUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *stock.StockUseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// Get stock actual de una variante en una sucursal.
// GET /api/stock/:branchId/:variantId
func (h *StockHandler) Get(c *fiber.Ctx) error {
	s, err := h.uc.GetStock(c.Context(), BuildActor(c), c.Params("variantId"), c.Params("branchId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(s)
}

// ListByBranch stock de una sucursal.
// GET /api/stock/:branchId
func (h *StockHandler) ListByBranch(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	list, err := h.uc.ListByBranch(c.Context(), BuildActor(c), c.Params("branchId"), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// Adjust ajuste manual de stock (conteo, merma, corrección).
// POST /api/stock/adjust
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	s, err := h.uc.Adjust(c.Context(), BuildActor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(s)
}

// ListAdjustments historial de ajustes de una variante en una sucursal.
// GET /api/stock/:branchId/:variantId/adjustments
func (h *StockHandler) ListAdjustments(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	list, err := h.uc.ListAdjustments(c.Context(), BuildActor(c), c.Params("variantId"), c.Params("branchId"), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}
