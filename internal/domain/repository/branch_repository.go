package repository

import (
	"context"

	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
)

// BranchRepository es el puerto de sucursales.
type BranchRepository interface {
	Create(ctx context.Context, b *entity.Branch) error
	GetByID(ctx context.Context, id string) (*entity.Branch, error)
	ListByCompany(ctx context.Context, companyID string) ([]*entity.Branch, error)
}
