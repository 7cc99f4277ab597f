package entity

import "time"

// AuditLog es una entrada del log de acciones sensibles (creaciones,
// aprobaciones, cancelaciones). Se entrega de forma asíncrona y best-effort:
// su fallo jamás revierte la transacción del motor.
type AuditLog struct {
	ID          string
	CompanyID   string
	Action      string // ej. "sale_create", "return_approve", "transfer_reject"
	EntityType  string
	EntityID    string
	Description string
	Metadata    map[string]any
	ActorID     string
	ActorIP     string
	CreatedAt   time.Time
}
