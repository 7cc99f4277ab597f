package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de Transaction. La cancelación revierte los débitos de stock y
// cambia el estado; nunca borra el registro (preservación de auditoría).
const (
	TransactionStatusCompleted = "COMPLETED"
	TransactionStatusCancelled = "CANCELLED"
)

// Métodos de pago aceptados.
const (
	PaymentMethodCash     = "CASH"
	PaymentMethodCard     = "CARD"
	PaymentMethodTransfer = "TRANSFER"
	PaymentMethodEWallet  = "EWALLET"
)

// Transaction representa una venta. Se crea atómicamente junto con sus ítems
// y los débitos de stock correspondientes; el débito ES el rastro de
// auditoría (no se genera StockAdjustment por ventas).
type Transaction struct {
	ID            string
	TransactionNo string // único, con fecha codificada: INV-YYYYMMDD-XXXX
	CompanyID     string
	BranchID      string
	CashierID     string
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	PaymentMethod string
	PaymentAmount decimal.Decimal
	// Pago dividido (opcional): los dos montos deben sumar Total con
	// tolerancia absoluta de 0.01.
	SecondPaymentMethod string
	SecondPaymentAmount decimal.Decimal
	Status              string
	Items               []TransactionItem
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// TransactionItem es una línea de venta.
type TransactionItem struct {
	ID            string
	TransactionID string
	VariantID     string
	Quantity      int64
	UnitPrice     decimal.Decimal
	Subtotal      decimal.Decimal
}
