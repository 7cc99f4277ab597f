// Package catalog administra el catálogo mínimo que los motores necesitan:
// sucursales y variantes (SKUs).
package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tu-usuario/pos-backoffice/internal/application/dto"
	"github.com/tu-usuario/pos-backoffice/internal/domain"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
	"github.com/tu-usuario/pos-backoffice/internal/domain/repository"
)

// CatalogUseCase casos de uso de catálogo.
type CatalogUseCase struct {
	branchRepo repository.BranchRepository
	varRepo    repository.VariantRepository
}

// NewCatalogUseCase construye el caso de uso.
func NewCatalogUseCase(branchRepo repository.BranchRepository, varRepo repository.VariantRepository) *CatalogUseCase {
	return &CatalogUseCase{branchRepo: branchRepo, varRepo: varRepo}
}

// CreateBranch alta de sucursal. Solo admin.
func (uc *CatalogUseCase) CreateBranch(ctx context.Context, actor entity.Actor, in dto.CreateBranchRequest) (*dto.BranchResponse, error) {
	if !actor.HasAnyRole(entity.RoleAdmin) {
		return nil, domain.ErrForbidden
	}
	if in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	branch := &entity.Branch{
		ID:        uuid.New().String(),
		CompanyID: actor.CompanyID,
		Name:      in.Name,
		Address:   in.Address,
		Phone:     in.Phone,
		CreatedAt: time.Now(),
	}
	if err := uc.branchRepo.Create(ctx, branch); err != nil {
		return nil, err
	}
	return toBranchResponse(branch), nil
}

// ListBranches sucursales de la empresa del actor.
func (uc *CatalogUseCase) ListBranches(ctx context.Context, actor entity.Actor) ([]*dto.BranchResponse, error) {
	list, err := uc.branchRepo.ListByCompany(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.BranchResponse, 0, len(list))
	for _, b := range list {
		out = append(out, toBranchResponse(b))
	}
	return out, nil
}

// CreateVariant alta de variante. Admin o gerente. El SKU es único por empresa.
func (uc *CatalogUseCase) CreateVariant(ctx context.Context, actor entity.Actor, in dto.CreateVariantRequest) (*dto.VariantResponse, error) {
	if !actor.HasAnyRole(entity.RoleAdmin, entity.RoleGerente) {
		return nil, domain.ErrForbidden
	}
	if in.SKU == "" || in.Name == "" || in.Price.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	existing, err := uc.varRepo.GetBySKU(ctx, actor.CompanyID, in.SKU)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	variant := &entity.Variant{
		ID:        uuid.New().String(),
		CompanyID: actor.CompanyID,
		ProductID: in.ProductID,
		SKU:       in.SKU,
		Name:      in.Name,
		Size:      in.Size,
		Color:     in.Color,
		Price:     in.Price,
		Active:    true,
		CreatedAt: time.Now(),
	}
	if err := uc.varRepo.Create(ctx, variant); err != nil {
		return nil, err
	}
	return toVariantResponse(variant), nil
}

// GetVariant devuelve una variante de la empresa del actor.
func (uc *CatalogUseCase) GetVariant(ctx context.Context, actor entity.Actor, id string) (*dto.VariantResponse, error) {
	variant, err := uc.varRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, domain.ErrNotFound
	}
	if variant.CompanyID != actor.CompanyID {
		return nil, domain.ErrForbidden
	}
	return toVariantResponse(variant), nil
}

// ListVariants variantes de la empresa del actor.
func (uc *CatalogUseCase) ListVariants(ctx context.Context, actor entity.Actor, page dto.PageRequest) ([]*dto.VariantResponse, error) {
	page.DefaultPage()
	list, err := uc.varRepo.ListByCompany(ctx, actor.CompanyID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.VariantResponse, 0, len(list))
	for _, v := range list {
		out = append(out, toVariantResponse(v))
	}
	return out, nil
}

func toBranchResponse(b *entity.Branch) *dto.BranchResponse {
	return &dto.BranchResponse{
		ID:        b.ID,
		Name:      b.Name,
		Address:   b.Address,
		Phone:     b.Phone,
		CreatedAt: b.CreatedAt,
	}
}

func toVariantResponse(v *entity.Variant) *dto.VariantResponse {
	return &dto.VariantResponse{
		ID:        v.ID,
		ProductID: v.ProductID,
		SKU:       v.SKU,
		Name:      v.Name,
		Size:      v.Size,
		Color:     v.Color,
		Price:     v.Price,
		Active:    v.Active,
		CreatedAt: v.CreatedAt,
	}
}
