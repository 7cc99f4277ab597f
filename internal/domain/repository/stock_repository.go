package repository

import (
	"context"

	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar stock por
// variante+sucursal. Las mutaciones se hacen siempre dentro de transacciones
// para garantizar consistencia.
type StockRepository interface {
	// Get devuelve el stock actual, o nil si la fila no existe todavía
	// (la fila se crea de forma perezosa en la primera escritura).
	Get(ctx context.Context, variantID, branchID string) (*entity.StockRecord, error)
	// GetForUpdate bloquea la fila para update (SELECT FOR UPDATE). Devuelve
	// nil si no existe; el caller decide si la crea.
	GetForUpdate(ctx context.Context, variantID, branchID string) (*entity.StockRecord, error)
	Upsert(ctx context.Context, stock *entity.StockRecord) error
	ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*entity.StockRecord, error)
}
