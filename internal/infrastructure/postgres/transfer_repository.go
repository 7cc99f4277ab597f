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

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo implementación de TransferRepository sobre PostgreSQL.
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx.
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

const transferColumns = `id, transfer_no, company_id, variant_id, from_branch_id, to_branch_id, quantity, status, requested_by, processed_by, notes, created_at, processed_at`

// Create inserta la transferencia; domain.ErrDuplicate si el transfer_no
// choca con el índice único.
func (r *TransferRepo) Create(ctx context.Context, t *entity.StockTransfer) error {
	query := `
		INSERT INTO stock_transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.TransferNo, t.CompanyID, t.VariantID, t.FromBranchID, t.ToBranchID,
		t.Quantity, t.Status, t.RequestedBy, t.ProcessedBy, t.Notes, t.CreatedAt, t.ProcessedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

// GetByID obtiene una transferencia; nil si no existe.
func (r *TransferRepo) GetByID(ctx context.Context, id string) (*entity.StockTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM stock_transfers WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

// GetByIDForUpdate obtiene la transferencia bloqueando la fila.
func (r *TransferRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.StockTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM stock_transfers WHERE id = $1 FOR UPDATE`
	return r.scanOne(ctx, query, id)
}

func (r *TransferRepo) scanOne(ctx context.Context, query string, args ...any) (*entity.StockTransfer, error) {
	var t entity.StockTransfer
	var processedBy *string
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&t.ID, &t.TransferNo, &t.CompanyID, &t.VariantID, &t.FromBranchID, &t.ToBranchID,
		&t.Quantity, &t.Status, &t.RequestedBy, &processedBy, &t.Notes, &t.CreatedAt, &t.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	if processedBy != nil {
		t.ProcessedBy = *processedBy
	}
	return &t, nil
}

// UpdateStatus persiste la transición de estado de la transferencia.
func (r *TransferRepo) UpdateStatus(ctx context.Context, t *entity.StockTransfer) error {
	query := `
		UPDATE stock_transfers
		SET status = $2, processed_by = NULLIF($3, ''), notes = $4, processed_at = $5
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query, t.ID, t.Status, t.ProcessedBy, t.Notes, t.ProcessedAt)
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	return nil
}

// ListByCompany lista transferencias de la empresa, opcionalmente por estado.
func (r *TransferRepo) ListByCompany(ctx context.Context, companyID, status string, limit, offset int) ([]*entity.StockTransfer, error) {
	query := `
		SELECT ` + transferColumns + ` FROM stock_transfers
		WHERE company_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, companyID, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockTransfer
	for rows.Next() {
		var t entity.StockTransfer
		var processedBy *string
		if err := rows.Scan(&t.ID, &t.TransferNo, &t.CompanyID, &t.VariantID, &t.FromBranchID, &t.ToBranchID,
			&t.Quantity, &t.Status, &t.RequestedBy, &processedBy, &t.Notes, &t.CreatedAt, &t.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		if processedBy != nil {
			t.ProcessedBy = *processedBy
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}
