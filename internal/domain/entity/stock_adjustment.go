package entity

import "time"

// Motivos de ajuste de stock. El Adjustment Recorder es el dueño de esta
// tabla; los handlers pasan strings crudos por stock.ParseAdjustmentReason.
const (
	AdjustmentReasonStockOpname    = "STOCK_OPNAME"
	AdjustmentReasonDamaged        = "DAMAGED"
	AdjustmentReasonLost           = "LOST"
	AdjustmentReasonSupplierReturn = "SUPPLIER_RETURN"
	AdjustmentReasonInputError     = "INPUT_ERROR"
	AdjustmentReasonOther          = "OTHER"
)

// StockAdjustment es un hecho inmutable: cada mutación del ledger que no sea
// venta ni transferencia queda emparejada con exactamente una fila de ajuste
// con cantidades antes/después. Nunca se actualiza ni se borra.
type StockAdjustment struct {
	ID          string
	CompanyID   string
	VariantID   string
	BranchID    string
	PreviousQty int64
	NewQty      int64
	Difference  int64
	Reason      string // uno de AdjustmentReason*, o vacío
	ActorID     string
	Notes       string
	CreatedAt   time.Time
}
