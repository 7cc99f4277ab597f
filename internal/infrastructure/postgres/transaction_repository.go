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

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

// TransactionRepo implementación de TransactionRepository sobre PostgreSQL.
type TransactionRepo struct {
	q Querier
}

// NewTransactionRepository construye el adaptador. Pasar pool o tx.
func NewTransactionRepository(q Querier) *TransactionRepo {
	return &TransactionRepo{q: q}
}

const transactionColumns = `id, transaction_no, company_id, branch_id, cashier_id, subtotal, discount, tax, total,
		payment_method, payment_amount, second_payment_method, second_payment_amount, status, created_at, updated_at`

// Create inserta la cabecera; domain.ErrDuplicate si el id o el
// transaction_no ya existen.
func (r *TransactionRepo) Create(ctx context.Context, t *entity.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''), $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.TransactionNo, t.CompanyID, t.BranchID, t.CashierID,
		t.Subtotal, t.Discount, t.Tax, t.Total,
		t.PaymentMethod, t.PaymentAmount, t.SecondPaymentMethod, t.SecondPaymentAmount,
		t.Status, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// CreateItem inserta una línea de la venta.
func (r *TransactionRepo) CreateItem(ctx context.Context, item *entity.TransactionItem) error {
	query := `
		INSERT INTO transaction_items (id, transaction_id, variant_id, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, item.ID, item.TransactionID, item.VariantID, item.Quantity, item.UnitPrice, item.Subtotal)
	if err != nil {
		return fmt.Errorf("insert transaction item: %w", err)
	}
	return nil
}

// GetByID obtiene la cabecera; nil si no existe.
func (r *TransactionRepo) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

// GetByIDForUpdate obtiene la cabecera bloqueando la fila: serializa
// cancelaciones y devoluciones concurrentes sobre la misma venta.
func (r *TransactionRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`
	return r.scanOne(ctx, query, id)
}

func (r *TransactionRepo) scanOne(ctx context.Context, query string, args ...any) (*entity.Transaction, error) {
	var t entity.Transaction
	var secondMethod *string
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&t.ID, &t.TransactionNo, &t.CompanyID, &t.BranchID, &t.CashierID,
		&t.Subtotal, &t.Discount, &t.Tax, &t.Total,
		&t.PaymentMethod, &t.PaymentAmount, &secondMethod, &t.SecondPaymentAmount,
		&t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if secondMethod != nil {
		t.SecondPaymentMethod = *secondMethod
	}
	return &t, nil
}

// GetItems devuelve las líneas de la venta.
func (r *TransactionRepo) GetItems(ctx context.Context, transactionID string) ([]entity.TransactionItem, error) {
	query := `
		SELECT id, transaction_id, variant_id, quantity, unit_price, subtotal
		FROM transaction_items WHERE transaction_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("list transaction items: %w", err)
	}
	defer rows.Close()
	var items []entity.TransactionItem
	for rows.Next() {
		var item entity.TransactionItem
		if err := rows.Scan(&item.ID, &item.TransactionID, &item.VariantID, &item.Quantity, &item.UnitPrice, &item.Subtotal); err != nil {
			return nil, fmt.Errorf("scan transaction item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateStatus persiste la transición de estado de la venta.
func (r *TransactionRepo) UpdateStatus(ctx context.Context, t *entity.Transaction) error {
	query := `UPDATE transactions SET status = $2, updated_at = $3 WHERE id = $1`
	_, err := r.q.Exec(ctx, query, t.ID, t.Status, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return nil
}

// Exists indica si ya hay una venta con ese id o ese transaction_no.
func (r *TransactionRepo) Exists(ctx context.Context, id, transactionNo string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM transactions WHERE id = $1 OR transaction_no = $2)`
	var exists bool
	if err := r.q.QueryRow(ctx, query, id, transactionNo).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists transaction: %w", err)
	}
	return exists, nil
}

// ListByBranch lista ventas de una sucursal, de la más reciente a la más
// antigua.
func (r *TransactionRepo) ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*entity.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + ` FROM transactions
		WHERE branch_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, branchID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	var list []*entity.Transaction
	for rows.Next() {
		var t entity.Transaction
		var secondMethod *string
		if err := rows.Scan(&t.ID, &t.TransactionNo, &t.CompanyID, &t.BranchID, &t.CashierID,
			&t.Subtotal, &t.Discount, &t.Tax, &t.Total,
			&t.PaymentMethod, &t.PaymentAmount, &secondMethod, &t.SecondPaymentAmount,
			&t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if secondMethod != nil {
			t.SecondPaymentMethod = *secondMethod
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}
