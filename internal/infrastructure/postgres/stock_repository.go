package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
	"github.com/tu-usuario/pos-backoffice/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con
// pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx.
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockColumns = `variant_id, branch_id, quantity, unit_price, updated_at`

// Get obtiene el stock actual; nil si la fila no existe todavía.
func (r *StockRepo) Get(ctx context.Context, variantID, branchID string) (*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM stock WHERE variant_id = $1 AND branch_id = $2`
	return r.scanOne(ctx, query, variantID, branchID)
}

// GetForUpdate obtiene el stock y bloquea la fila (SELECT FOR UPDATE); nil si
// no existe.
func (r *StockRepo) GetForUpdate(ctx context.Context, variantID, branchID string) (*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM stock WHERE variant_id = $1 AND branch_id = $2 FOR UPDATE`
	return r.scanOne(ctx, query, variantID, branchID)
}

func (r *StockRepo) scanOne(ctx context.Context, query, variantID, branchID string) (*entity.StockRecord, error) {
	var s entity.StockRecord
	err := r.q.QueryRow(ctx, query, variantID, branchID).Scan(
		&s.VariantID, &s.BranchID, &s.Quantity, &s.UnitPrice, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return &s, nil
}

// Upsert inserta o actualiza la fila (por variante y sucursal). El CHECK
// quantity >= 0 del esquema respalda al motor como última línea de defensa.
func (r *StockRepo) Upsert(ctx context.Context, stock *entity.StockRecord) error {
	query := `
		INSERT INTO stock (variant_id, branch_id, quantity, unit_price, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (variant_id, branch_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, unit_price = EXCLUDED.unit_price, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query, stock.VariantID, stock.BranchID, stock.Quantity, stock.UnitPrice, stock.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

// ListByBranch lista el stock de una sucursal con paginación.
func (r *StockRepo) ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM stock WHERE branch_id = $1 ORDER BY variant_id LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, branchID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockRecord
	for rows.Next() {
		var s entity.StockRecord
		if err := rows.Scan(&s.VariantID, &s.BranchID, &s.Quantity, &s.UnitPrice, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}
