package repository

import (
	"context"

	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
)

// AdjustmentRepository es el puerto del historial de ajustes de stock.
// Append-only: no expone update ni delete.
type AdjustmentRepository interface {
	Create(ctx context.Context, adj *entity.StockAdjustment) error
	ListByStock(ctx context.Context, variantID, branchID string, limit, offset int) ([]*entity.StockAdjustment, error)
	ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*entity.StockAdjustment, error)
}
