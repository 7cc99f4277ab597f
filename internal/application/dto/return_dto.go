package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReturnItemRequest línea a devolver, referenciando la línea original.
type ReturnItemRequest struct {
	TransactionItemID string `json:"transaction_item_id"`
	Quantity          int64  `json:"quantity"`
}

// ExchangeItemRequest mercancía nueva entregada en un cambio.
type ExchangeItemRequest struct {
	VariantID string `json:"variant_id"`
	Quantity  int64  `json:"quantity"`
}

// CreateReturnRequest crea una devolución o cambio sobre una venta.
type CreateReturnRequest struct {
	TransactionID   string                `json:"transaction_id"`
	Reason          string                `json:"reason"`
	ReturnType      string                `json:"return_type"` // REFUND | EXCHANGE
	Items           []ReturnItemRequest   `json:"items"`
	ExchangeItems   []ExchangeItemRequest `json:"exchange_items"`
	Notes           string                `json:"notes"`
	ManagerOverride bool                  `json:"manager_override"` // salta el plazo de devolución
}

// ProcessReturnRequest nota opcional al aprobar/rechazar.
type ProcessReturnRequest struct {
	Notes string `json:"notes"`
}

// ReturnItemResponse línea devuelta.
type ReturnItemResponse struct {
	ID                string          `json:"id"`
	TransactionItemID string          `json:"transaction_item_id"`
	VariantID         string          `json:"variant_id"`
	Quantity          int64           `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	Subtotal          decimal.Decimal `json:"subtotal"`
}

// ExchangeItemResponse línea de cambio.
type ExchangeItemResponse struct {
	ID        string          `json:"id"`
	VariantID string          `json:"variant_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// ReturnResponse devolución completa.
type ReturnResponse struct {
	ID              string                 `json:"id"`
	ReturnNo        string                 `json:"return_no"`
	TransactionID   string                 `json:"transaction_id"`
	BranchID        string                 `json:"branch_id"`
	Reason          string                 `json:"reason"`
	ReturnType      string                 `json:"return_type"`
	Status          string                 `json:"status"`
	RefundAmount    decimal.Decimal        `json:"refund_amount"`
	PriceDifference decimal.Decimal        `json:"price_difference"`
	Notes           string                 `json:"notes,omitempty"`
	RequestedBy     string                 `json:"requested_by"`
	ProcessedBy     string                 `json:"processed_by,omitempty"`
	Items           []ReturnItemResponse   `json:"items"`
	ExchangeItems   []ExchangeItemResponse `json:"exchange_items,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	ProcessedAt     *time.Time             `json:"processed_at,omitempty"`
}
