package repository

import (
	"context"

	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
)

// TransactionRepository es el puerto de ventas (cabecera + ítems).
type TransactionRepository interface {
	// Create devuelve domain.ErrDuplicate si el id o el transactionNo ya
	// existen (índices únicos del store).
	Create(ctx context.Context, tx *entity.Transaction) error
	CreateItem(ctx context.Context, item *entity.TransactionItem) error
	GetByID(ctx context.Context, id string) (*entity.Transaction, error)
	// GetByIDForUpdate bloquea la cabecera: serializa cancelaciones y
	// devoluciones concurrentes sobre la misma venta.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Transaction, error)
	GetItems(ctx context.Context, transactionID string) ([]entity.TransactionItem, error)
	UpdateStatus(ctx context.Context, tx *entity.Transaction) error
	// Exists indica si ya hay una venta con ese id o ese transactionNo
	// (idempotencia del replay offline).
	Exists(ctx context.Context, id, transactionNo string) (bool, error)
	ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*entity.Transaction, error)
}
