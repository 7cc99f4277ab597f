package ports

import (
	"context"
	"time"
)

// Tipos de operación para StockChange.
const (
	StockOpAdjustment    = "adjustment"
	StockOpSale          = "sale"
	StockOpSaleCancel    = "sale_cancel"
	StockOpTransfer      = "transfer"
	StockOpReturnRestock = "return_restock"
	StockOpWriteOff      = "write_off"
	StockOpExchangeDebit = "exchange_debit"
)

// StockChange es el evento en tiempo real que se emite por cada mutación de
// stock confirmada, para los suscriptores de UI.
type StockChange struct {
	CompanyID   string    `json:"company_id"`
	BranchID    string    `json:"branch_id"`
	VariantID   string    `json:"variant_id"`
	PreviousQty int64     `json:"previous_qty"`
	NewQty      int64     `json:"new_qty"`
	Operation   string    `json:"operation"`
	At          time.Time `json:"at"`
}

// Notifier publica cambios de stock después del commit. Best-effort: los
// motores registran el fallo y lo tragan; nunca revierte una mutación ya
// confirmada.
type Notifier interface {
	StockChanged(ctx context.Context, change StockChange) error
}

// NoopNotifier descarta los eventos (redis deshabilitado, tests).
type NoopNotifier struct{}

func (NoopNotifier) StockChanged(context.Context, StockChange) error { return nil }
