package repository

import (
	"context"

	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
)

// ReturnRepository es el puerto de devoluciones/cambios.
type ReturnRepository interface {
	// Create devuelve domain.ErrDuplicate si el returnNo ya existe.
	Create(ctx context.Context, r *entity.Return) error
	CreateItem(ctx context.Context, item *entity.ReturnItem) error
	CreateExchangeItem(ctx context.Context, item *entity.ExchangeItem) error
	GetByID(ctx context.Context, id string) (*entity.Return, error)
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Return, error)
	GetItems(ctx context.Context, returnID string) ([]entity.ReturnItem, error)
	GetExchangeItems(ctx context.Context, returnID string) ([]entity.ExchangeItem, error)
	UpdateStatus(ctx context.Context, r *entity.Return) error
	// SumReturnedByTransaction suma, por línea original, las cantidades ya
	// devueltas en devoluciones PENDING y COMPLETED de esa venta.
	SumReturnedByTransaction(ctx context.Context, transactionID string) (map[string]int64, error)
	ListByCompany(ctx context.Context, companyID, status string, limit, offset int) ([]*entity.Return, error)
}
