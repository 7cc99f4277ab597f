package repository

import (
	"context"

	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
)

// AuditLogRepository es el puerto del log de auditoría. Append-only.
type AuditLogRepository interface {
	Create(ctx context.Context, l *entity.AuditLog) error
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.AuditLog, error)
}
