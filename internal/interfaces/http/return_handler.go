package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/pos-backoffice/internal/application/dto"
	"github.com/tu-usuario/pos-backoffice/internal/application/returns"
)

// ReturnHandler maneja devoluciones y cambios (protegido).
type ReturnHandler struct {
	uc *returns.ReturnUseCase
}

// NewReturnHandler construye el handler.
func NewReturnHandler(uc *returns.ReturnUseCase) *ReturnHandler {
	return &ReturnHandler{uc: uc}
}

// Create crea una devolución o cambio sobre una venta.
// POST /api/returns
func (h *ReturnHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateReturnRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	ret, err := h.uc.Create(c.Context(), BuildActor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ret)
}

// Approve aprueba una devolución PENDING aplicando los efectos de stock.
// POST /api/returns/:id/approve
func (h *ReturnHandler) Approve(c *fiber.Ctx) error {
	var in dto.ProcessReturnRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	ret, err := h.uc.Approve(c.Context(), BuildActor(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ret)
}

// Reject rechaza una devolución PENDING sin efecto sobre el stock.
// POST /api/returns/:id/reject
func (h *ReturnHandler) Reject(c *fiber.Ctx) error {
	var in dto.ProcessReturnRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	ret, err := h.uc.Reject(c.Context(), BuildActor(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ret)
}

// GetByID detalle de una devolución con sus líneas.
// GET /api/returns/:id
func (h *ReturnHandler) GetByID(c *fiber.Ctx) error {
	ret, err := h.uc.GetByID(c.Context(), BuildActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ret)
}

// List devoluciones de la empresa, filtrables por estado.
// GET /api/returns?status=PENDING
func (h *ReturnHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	list, err := h.uc.List(c.Context(), BuildActor(c), c.Query("status"), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}
