package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de Return. PENDING → COMPLETED | REJECTED, transición de una sola
// vía; también puede nacer COMPLETED cuando hay auto-aprobación.
const (
	ReturnStatusPending   = "PENDING"
	ReturnStatusCompleted = "COMPLETED"
	ReturnStatusRejected  = "REJECTED"
)

// Tipos de devolución.
const (
	ReturnTypeRefund   = "REFUND"
	ReturnTypeExchange = "EXCHANGE"
)

// Motivos de devolución. Los tres primeros implican write-off (la mercancía
// no vuelve al stock vendible); el resto implica restock.
const (
	ReturnReasonDamaged         = "DAMAGED"
	ReturnReasonDefective       = "DEFECTIVE"
	ReturnReasonExpired         = "EXPIRED"
	ReturnReasonWrongSize       = "WRONG_SIZE"
	ReturnReasonWrongItem       = "WRONG_ITEM"
	ReturnReasonCustomerRequest = "CUSTOMER_REQUEST"
	ReturnReasonOther           = "OTHER"
)

// IsWriteOffReason indica si el motivo implica write-off en la aprobación.
func IsWriteOffReason(reason string) bool {
	switch reason {
	case ReturnReasonDamaged, ReturnReasonDefective, ReturnReasonExpired:
		return true
	}
	return false
}

// Return representa una devolución o cambio sobre una venta original.
type Return struct {
	ID              string
	ReturnNo        string // único: RET-YYYYMMDD-XXXX
	CompanyID       string
	TransactionID   string // venta padre
	BranchID        string
	Reason          string
	ReturnType      string // REFUND | EXCHANGE
	Status          string
	RefundAmount    decimal.Decimal
	PriceDifference decimal.Decimal // solo EXCHANGE: nuevo subtotal − subtotal original
	Notes           string
	RequestedBy     string
	ProcessedBy     string
	Items           []ReturnItem
	ExchangeItems   []ExchangeItem
	CreatedAt       time.Time
	ProcessedAt     *time.Time
}

// ReturnItem referencia una línea de la venta original. La suma de Quantity
// sobre devoluciones PENDING+COMPLETED de esa línea nunca supera lo vendido.
type ReturnItem struct {
	ID                string
	ReturnID          string
	TransactionItemID string
	VariantID         string
	Quantity          int64
	UnitPrice         decimal.Decimal // precio de la línea original
	Subtotal          decimal.Decimal
}

// ExchangeItem es la mercancía nueva entregada en un cambio; se valora al
// precio vigente de la variante.
type ExchangeItem struct {
	ID        string
	ReturnID  string
	VariantID string
	Quantity  int64
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}
