package postgres

import (
	"context"
	"fmt"

	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
	"github.com/tu-usuario/pos-backoffice/internal/domain/repository"
)

var _ repository.AdjustmentRepository = (*AdjustmentRepo)(nil)

// AdjustmentRepo implementación de AdjustmentRepository sobre PostgreSQL.
// La tabla no tiene UPDATE ni DELETE: el historial es inmutable.
type AdjustmentRepo struct {
	q Querier
}

// NewAdjustmentRepository construye el adaptador. Pasar pool o tx.
func NewAdjustmentRepository(q Querier) *AdjustmentRepo {
	return &AdjustmentRepo{q: q}
}

const adjustmentColumns = `id, company_id, variant_id, branch_id, previous_qty, new_qty, difference, reason, actor_id, notes, created_at`

// Create inserta la fila de ajuste.
func (r *AdjustmentRepo) Create(ctx context.Context, adj *entity.StockAdjustment) error {
	query := `
		INSERT INTO stock_adjustments (` + adjustmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		adj.ID, adj.CompanyID, adj.VariantID, adj.BranchID,
		adj.PreviousQty, adj.NewQty, adj.Difference, adj.Reason,
		adj.ActorID, adj.Notes, adj.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert adjustment: %w", err)
	}
	return nil
}

// ListByStock historial de ajustes de una variante en una sucursal, del más
// reciente al más antiguo.
func (r *AdjustmentRepo) ListByStock(ctx context.Context, variantID, branchID string, limit, offset int) ([]*entity.StockAdjustment, error) {
	query := `
		SELECT ` + adjustmentColumns + ` FROM stock_adjustments
		WHERE variant_id = $1 AND branch_id = $2
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	return r.list(ctx, query, variantID, branchID, limit, offset)
}

// ListByBranch historial de ajustes de una sucursal.
func (r *AdjustmentRepo) ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*entity.StockAdjustment, error) {
	query := `
		SELECT ` + adjustmentColumns + ` FROM stock_adjustments
		WHERE branch_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, branchID, limit, offset)
}

func (r *AdjustmentRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockAdjustment, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockAdjustment
	for rows.Next() {
		var a entity.StockAdjustment
		var reason *string
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.VariantID, &a.BranchID,
			&a.PreviousQty, &a.NewQty, &a.Difference, &reason,
			&a.ActorID, &a.Notes, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan adjustment: %w", err)
		}
		if reason != nil {
			a.Reason = *reason
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}
