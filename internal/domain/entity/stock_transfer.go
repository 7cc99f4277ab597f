package entity

import "time"

// Estados de StockTransfer. PENDING transiciona exactamente una vez a
// COMPLETED o CANCELLED; los estados terminales son inmutables.
const (
	TransferStatusPending   = "PENDING"
	TransferStatusCompleted = "COMPLETED"
	TransferStatusCancelled = "CANCELLED"
)

// StockTransfer representa un movimiento de stock entre sucursales con
// workflow de aprobación. Solo muta StockRecord en el instante en que entra
// a COMPLETED, y exactamente una vez.
type StockTransfer struct {
	ID           string
	TransferNo   string // único, legible: TRF-YYYYMMDD-XXXX
	CompanyID    string
	VariantID    string
	FromBranchID string
	ToBranchID   string
	Quantity     int64
	Status       string
	RequestedBy  string
	ProcessedBy  string
	Notes        string
	CreatedAt    time.Time
	ProcessedAt  *time.Time
}
