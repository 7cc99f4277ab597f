package repository

import (
	"context"

	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
)

// TransferRepository es el puerto de transferencias entre sucursales.
type TransferRepository interface {
	// Create devuelve domain.ErrDuplicate si el transferNo ya existe.
	Create(ctx context.Context, t *entity.StockTransfer) error
	GetByID(ctx context.Context, id string) (*entity.StockTransfer, error)
	// GetByIDForUpdate bloquea la fila para serializar aprobaciones
	// concurrentes de la misma transferencia.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.StockTransfer, error)
	UpdateStatus(ctx context.Context, t *entity.StockTransfer) error
	ListByCompany(ctx context.Context, companyID, status string, limit, offset int) ([]*entity.StockTransfer, error)
}
