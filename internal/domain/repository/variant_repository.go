package repository

import (
	"context"

	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
)

// VariantRepository es el puerto de variantes (SKUs).
type VariantRepository interface {
	Create(ctx context.Context, v *entity.Variant) error
	GetByID(ctx context.Context, id string) (*entity.Variant, error)
	GetBySKU(ctx context.Context, companyID, sku string) (*entity.Variant, error)
	Update(ctx context.Context, v *entity.Variant) error
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Variant, error)
}
