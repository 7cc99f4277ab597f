package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/pos-backoffice/internal/domain"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
	"github.com/tu-usuario/pos-backoffice/internal/domain/repository"
)

var _ repository.ReturnRepository = (*ReturnRepo)(nil)

// ReturnRepo implementación de ReturnRepository sobre PostgreSQL.
type ReturnRepo struct {
	q Querier
}

// NewReturnRepository construye el adaptador. Pasar pool o tx.
func NewReturnRepository(q Querier) *ReturnRepo {
	return &ReturnRepo{q: q}
}

const returnColumns = `id, return_no, company_id, transaction_id, branch_id, reason, return_type, status,
		refund_amount, price_difference, notes, requested_by, processed_by, created_at, processed_at`

// Create inserta la cabecera; domain.ErrDuplicate si el return_no ya existe.
func (r *ReturnRepo) Create(ctx context.Context, ret *entity.Return) error {
	query := `
		INSERT INTO returns (` + returnColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, ''), $14, $15)`
	_, err := r.q.Exec(ctx, query,
		ret.ID, ret.ReturnNo, ret.CompanyID, ret.TransactionID, ret.BranchID,
		ret.Reason, ret.ReturnType, ret.Status,
		ret.RefundAmount, ret.PriceDifference, ret.Notes, ret.RequestedBy, ret.ProcessedBy,
		ret.CreatedAt, ret.ProcessedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert return: %w", err)
	}
	return nil
}

// CreateItem inserta una línea devuelta.
func (r *ReturnRepo) CreateItem(ctx context.Context, item *entity.ReturnItem) error {
	query := `
		INSERT INTO return_items (id, return_id, transaction_item_id, variant_id, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, item.ID, item.ReturnID, item.TransactionItemID, item.VariantID, item.Quantity, item.UnitPrice, item.Subtotal)
	if err != nil {
		return fmt.Errorf("insert return item: %w", err)
	}
	return nil
}

// CreateExchangeItem inserta una línea de mercancía nueva de un cambio.
func (r *ReturnRepo) CreateExchangeItem(ctx context.Context, item *entity.ExchangeItem) error {
	query := `
		INSERT INTO exchange_items (id, return_id, variant_id, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, item.ID, item.ReturnID, item.VariantID, item.Quantity, item.UnitPrice, item.Subtotal)
	if err != nil {
		return fmt.Errorf("insert exchange item: %w", err)
	}
	return nil
}

// GetByID obtiene la cabecera; nil si no existe.
func (r *ReturnRepo) GetByID(ctx context.Context, id string) (*entity.Return, error) {
	query := `SELECT ` + returnColumns + ` FROM returns WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

// GetByIDForUpdate obtiene la cabecera bloqueando la fila.
func (r *ReturnRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Return, error) {
	query := `SELECT ` + returnColumns + ` FROM returns WHERE id = $1 FOR UPDATE`
	return r.scanOne(ctx, query, id)
}

func (r *ReturnRepo) scanOne(ctx context.Context, query string, args ...any) (*entity.Return, error) {
	var ret entity.Return
	var processedBy *string
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&ret.ID, &ret.ReturnNo, &ret.CompanyID, &ret.TransactionID, &ret.BranchID,
		&ret.Reason, &ret.ReturnType, &ret.Status,
		&ret.RefundAmount, &ret.PriceDifference, &ret.Notes, &ret.RequestedBy, &processedBy,
		&ret.CreatedAt, &ret.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get return: %w", err)
	}
	if processedBy != nil {
		ret.ProcessedBy = *processedBy
	}
	return &ret, nil
}

// GetItems devuelve las líneas devueltas.
func (r *ReturnRepo) GetItems(ctx context.Context, returnID string) ([]entity.ReturnItem, error) {
	query := `
		SELECT id, return_id, transaction_item_id, variant_id, quantity, unit_price, subtotal
		FROM return_items WHERE return_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, returnID)
	if err != nil {
		return nil, fmt.Errorf("list return items: %w", err)
	}
	defer rows.Close()
	var items []entity.ReturnItem
	for rows.Next() {
		var item entity.ReturnItem
		if err := rows.Scan(&item.ID, &item.ReturnID, &item.TransactionItemID, &item.VariantID, &item.Quantity, &item.UnitPrice, &item.Subtotal); err != nil {
			return nil, fmt.Errorf("scan return item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetExchangeItems devuelve la mercancía nueva de un cambio.
func (r *ReturnRepo) GetExchangeItems(ctx context.Context, returnID string) ([]entity.ExchangeItem, error) {
	query := `
		SELECT id, return_id, variant_id, quantity, unit_price, subtotal
		FROM exchange_items WHERE return_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, returnID)
	if err != nil {
		return nil, fmt.Errorf("list exchange items: %w", err)
	}
	defer rows.Close()
	var items []entity.ExchangeItem
	for rows.Next() {
		var item entity.ExchangeItem
		if err := rows.Scan(&item.ID, &item.ReturnID, &item.VariantID, &item.Quantity, &item.UnitPrice, &item.Subtotal); err != nil {
			return nil, fmt.Errorf("scan exchange item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateStatus persiste la transición de estado de la devolución.
func (r *ReturnRepo) UpdateStatus(ctx context.Context, ret *entity.Return) error {
	query := `
		UPDATE returns
		SET status = $2, processed_by = NULLIF($3, ''), notes = $4, processed_at = $5
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query, ret.ID, ret.Status, ret.ProcessedBy, ret.Notes, ret.ProcessedAt)
	if err != nil {
		return fmt.Errorf("update return: %w", err)
	}
	return nil
}

// SumReturnedByTransaction suma por línea original las cantidades ya
// devueltas en devoluciones PENDING y COMPLETED de la venta.
func (r *ReturnRepo) SumReturnedByTransaction(ctx context.Context, transactionID string) (map[string]int64, error) {
	query := `
		SELECT ri.transaction_item_id, COALESCE(SUM(ri.quantity), 0)
		FROM return_items ri
		JOIN returns ret ON ret.id = ri.return_id
		WHERE ret.transaction_id = $1 AND ret.status IN ('PENDING', 'COMPLETED')
		GROUP BY ri.transaction_item_id`
	rows, err := r.q.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("sum returned: %w", err)
	}
	defer rows.Close()
	sums := make(map[string]int64)
	for rows.Next() {
		var itemID string
		var qty int64
		if err := rows.Scan(&itemID, &qty); err != nil {
			return nil, fmt.Errorf("scan returned sum: %w", err)
		}
		sums[itemID] = qty
	}
	return sums, rows.Err()
}

// ListByCompany lista devoluciones de la empresa, opcionalmente por estado.
func (r *ReturnRepo) ListByCompany(ctx context.Context, companyID, status string, limit, offset int) ([]*entity.Return, error) {
	query := `
		SELECT ` + returnColumns + ` FROM returns
		WHERE company_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, companyID, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list returns: %w", err)
	}
	defer rows.Close()
	var list []*entity.Return
	for rows.Next() {
		var ret entity.Return
		var processedBy *string
		if err := rows.Scan(&ret.ID, &ret.ReturnNo, &ret.CompanyID, &ret.TransactionID, &ret.BranchID,
			&ret.Reason, &ret.ReturnType, &ret.Status,
			&ret.RefundAmount, &ret.PriceDifference, &ret.Notes, &ret.RequestedBy, &processedBy,
			&ret.CreatedAt, &ret.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan return: %w", err)
		}
		if processedBy != nil {
			ret.ProcessedBy = *processedBy
		}
		list = append(list, &ret)
	}
	return list, rows.Err()
}
