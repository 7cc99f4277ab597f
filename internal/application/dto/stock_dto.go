package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockResponse stock actual de una variante en una sucursal.
type StockResponse struct {
	VariantID string          `json:"variant_id"`
	BranchID  string          `json:"branch_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AdjustStockRequest ajuste manual de stock. O bien Delta (corrección
// relativa) o bien NewQuantity (conteo absoluto, ej. stock opname); si
// NewQuantity viene, manda sobre Delta.
type AdjustStockRequest struct {
	VariantID   string           `json:"variant_id"`
	BranchID    string           `json:"branch_id"`
	Delta       *int64           `json:"delta"`
	NewQuantity *int64           `json:"new_quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price"` // opcional: override de precio
	Reason      string           `json:"reason"`     // STOCK_OPNAME, DAMAGED, LOST, SUPPLIER_RETURN, INPUT_ERROR, OTHER
	Notes       string           `json:"notes"`
}

// AdjustmentResponse fila del historial de ajustes.
type AdjustmentResponse struct {
	ID          string    `json:"id"`
	VariantID   string    `json:"variant_id"`
	BranchID    string    `json:"branch_id"`
	PreviousQty int64     `json:"previous_qty"`
	NewQty      int64     `json:"new_qty"`
	Difference  int64     `json:"difference"`
	Reason      string    `json:"reason,omitempty"`
	ActorID     string    `json:"actor_id"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
