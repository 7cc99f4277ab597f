package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/pos-backoffice/internal/application/catalog"
	"github.com/tu-usuario/pos-backoffice/internal/application/dto"
)

// CatalogHandler maneja sucursales y variantes (protegido).
type CatalogHandler struct {
	uc *catalog.CatalogUseCase
}

// NewCatalogHandler construye el handler.
func NewCatalogHandler(uc *catalog.CatalogUseCase) *CatalogHandler {
	return &CatalogHandler{uc: uc}
}

// CreateBranch alta de sucursal.
// POST /api/branches
func (h *CatalogHandler) CreateBranch(c *fiber.Ctx) error {
	var in dto.CreateBranchRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	branch, err := h.uc.CreateBranch(c.Context(), BuildActor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(branch)
}

// ListBranches sucursales de la empresa.
// GET /api/branches
func (h *CatalogHandler) ListBranches(c *fiber.Ctx) error {
	list, err := h.uc.ListBranches(c.Context(), BuildActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// CreateVariant alta de variante (SKU).
// POST /api/variants
func (h *CatalogHandler) CreateVariant(c *fiber.Ctx) error {
	var in dto.CreateVariantRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	variant, err := h.uc.CreateVariant(c.Context(), BuildActor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(variant)
}

// GetVariant detalle de una variante.
// GET /api/variants/:id
func (h *CatalogHandler) GetVariant(c *fiber.Ctx) error {
	variant, err := h.uc.GetVariant(c.Context(), BuildActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(variant)
}

// ListVariants variantes de la empresa.
// GET /api/variants
func (h *CatalogHandler) ListVariants(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	list, err := h.uc.ListVariants(c.Context(), BuildActor(c), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}
