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

var _ repository.VariantRepository = (*VariantRepo)(nil)

// VariantRepo implementación de VariantRepository sobre PostgreSQL.
type VariantRepo struct {
	q Querier
}

// NewVariantRepository construye el adaptador. Pasar pool o tx.
func NewVariantRepository(q Querier) *VariantRepo {
	return &VariantRepo{q: q}
}

const variantColumns = `id, company_id, product_id, sku, name, size, color, price, active, created_at, updated_at`

// Create persiste una nueva variante; domain.ErrDuplicate si el SKU ya existe
// en la empresa.
func (r *VariantRepo) Create(ctx context.Context, v *entity.Variant) error {
	query := `
		INSERT INTO variants (` + variantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		v.ID, v.CompanyID, v.ProductID, v.SKU, v.Name, v.Size, v.Color, v.Price, v.Active, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert variant: %w", err)
	}
	return nil
}

// GetByID obtiene una variante por ID; nil si no existe.
func (r *VariantRepo) GetByID(ctx context.Context, id string) (*entity.Variant, error) {
	query := `SELECT ` + variantColumns + ` FROM variants WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

// GetBySKU obtiene una variante por SKU dentro de la empresa; nil si no
// existe.
func (r *VariantRepo) GetBySKU(ctx context.Context, companyID, sku string) (*entity.Variant, error) {
	query := `SELECT ` + variantColumns + ` FROM variants WHERE company_id = $1 AND sku = $2`
	return r.scanOne(ctx, query, companyID, sku)
}

func (r *VariantRepo) scanOne(ctx context.Context, query string, args ...any) (*entity.Variant, error) {
	var v entity.Variant
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&v.ID, &v.CompanyID, &v.ProductID, &v.SKU, &v.Name, &v.Size, &v.Color, &v.Price, &v.Active, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get variant: %w", err)
	}
	return &v, nil
}

// Update actualiza una variante.
func (r *VariantRepo) Update(ctx context.Context, v *entity.Variant) error {
	query := `
		UPDATE variants
		SET product_id = $2, sku = $3, name = $4, size = $5, color = $6, price = $7, active = $8, updated_at = $9
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query, v.ID, v.ProductID, v.SKU, v.Name, v.Size, v.Color, v.Price, v.Active, v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update variant: %w", err)
	}
	return nil
}

// ListByCompany lista variantes de la empresa con paginación.
func (r *VariantRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Variant, error) {
	query := `SELECT ` + variantColumns + ` FROM variants WHERE company_id = $1 ORDER BY sku LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()
	var list []*entity.Variant
	for rows.Next() {
		var v entity.Variant
		if err := rows.Scan(&v.ID, &v.CompanyID, &v.ProductID, &v.SKU, &v.Name, &v.Size, &v.Color, &v.Price, &v.Active, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		list = append(list, &v)
	}
	return list, rows.Err()
}
