package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
	"github.com/tu-usuario/pos-backoffice/internal/domain/repository"
)

var _ repository.AuditLogRepository = (*AuditLogRepo)(nil)

// AuditLogRepo implementación de AuditLogRepository sobre PostgreSQL.
// Append-only.
type AuditLogRepo struct {
	q Querier
}

// NewAuditLogRepository construye el adaptador. Pasar pool o tx.
func NewAuditLogRepository(q Querier) *AuditLogRepo {
	return &AuditLogRepo{q: q}
}

// Create inserta una entrada del log. Metadata se serializa a jsonb.
func (r *AuditLogRepo) Create(ctx context.Context, l *entity.AuditLog) error {
	var metadata []byte
	if len(l.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(l.Metadata)
		if err != nil {
			return fmt.Errorf("marshal audit metadata: %w", err)
		}
	}
	query := `
		INSERT INTO audit_logs (id, company_id, action, entity_type, entity_id, description, metadata, actor_id, actor_ip, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.CompanyID, l.Action, l.EntityType, l.EntityID, l.Description, metadata, l.ActorID, l.ActorIP, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// ListByCompany lista entradas del log de la empresa, de la más reciente a la
// más antigua.
func (r *AuditLogRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.AuditLog, error) {
	query := `
		SELECT id, company_id, action, entity_type, entity_id, description, metadata, actor_id, actor_ip, created_at
		FROM audit_logs WHERE company_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()
	var list []*entity.AuditLog
	for rows.Next() {
		var l entity.AuditLog
		var metadata []byte
		if err := rows.Scan(&l.ID, &l.CompanyID, &l.Action, &l.EntityType, &l.EntityID, &l.Description, &metadata, &l.ActorID, &l.ActorIP, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		if len(metadata) > 0 {
			_ = json.Unmarshal(metadata, &l.Metadata)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}
