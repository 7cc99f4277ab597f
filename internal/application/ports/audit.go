package ports

import "github.com/tu-usuario/pos-backoffice/internal/domain/entity"

// AuditTrail recibe entradas de auditoría para acciones sensibles. La
// implementación entrega de forma asíncrona y best-effort (at-most-once si
// el buffer se llena); Record nunca bloquea ni retorna error al motor.
type AuditTrail interface {
	Record(entry entity.AuditLog)
}

// NoopAuditTrail descarta las entradas (tests).
type NoopAuditTrail struct{}

func (NoopAuditTrail) Record(entity.AuditLog) {}
