package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionItemRequest línea de venta.
type TransactionItemRequest struct {
	VariantID string          `json:"variant_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"` // cero = usar precio vigente de la variante
}

// CreateTransactionRequest crea una venta. Si SecondPaymentMethod viene,
// PaymentAmount + SecondPaymentAmount debe sumar el total (tolerancia 0.01).
type CreateTransactionRequest struct {
	BranchID            string                   `json:"branch_id"`
	Items               []TransactionItemRequest `json:"items"`
	Discount            decimal.Decimal          `json:"discount"`
	Tax                 decimal.Decimal          `json:"tax"`
	PaymentMethod       string                   `json:"payment_method"`
	PaymentAmount       decimal.Decimal          `json:"payment_amount"`
	SecondPaymentMethod string                   `json:"second_payment_method"`
	SecondPaymentAmount decimal.Decimal          `json:"second_payment_amount"`
}

// OfflineTransactionRequest venta generada offline por el cliente; conserva
// id, número y timestamp originales para la deduplicación del replay.
type OfflineTransactionRequest struct {
	ID                  string                   `json:"id"`
	TransactionNo       string                   `json:"transaction_no"`
	OccurredAt          time.Time                `json:"occurred_at"`
	BranchID            string                   `json:"branch_id"`
	Items               []TransactionItemRequest `json:"items"`
	Discount            decimal.Decimal          `json:"discount"`
	Tax                 decimal.Decimal          `json:"tax"`
	PaymentMethod       string                   `json:"payment_method"`
	PaymentAmount       decimal.Decimal          `json:"payment_amount"`
	SecondPaymentMethod string                   `json:"second_payment_method"`
	SecondPaymentAmount decimal.Decimal          `json:"second_payment_amount"`
}

// SyncTransactionsRequest lote offline a reconciliar.
type SyncTransactionsRequest struct {
	Transactions []OfflineTransactionRequest `json:"transactions"`
}

// ReplayResult resultado por elemento del lote.
type ReplayResult struct {
	ID            string `json:"id,omitempty"`
	TransactionNo string `json:"transaction_no,omitempty"`
	Status        string `json:"status"` // created | skipped | failed
	Error         string `json:"error,omitempty"`
}

// SyncTransactionsResponse resumen del replay.
type SyncTransactionsResponse struct {
	Created int            `json:"created"`
	Skipped int            `json:"skipped"`
	Failed  int            `json:"failed"`
	Results []ReplayResult `json:"results"`
}

// TransactionItemResponse línea de venta persistida.
type TransactionItemResponse struct {
	ID        string          `json:"id"`
	VariantID string          `json:"variant_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// TransactionResponse venta completa.
type TransactionResponse struct {
	ID                  string                    `json:"id"`
	TransactionNo       string                    `json:"transaction_no"`
	BranchID            string                    `json:"branch_id"`
	CashierID           string                    `json:"cashier_id"`
	Subtotal            decimal.Decimal           `json:"subtotal"`
	Discount            decimal.Decimal           `json:"discount"`
	Tax                 decimal.Decimal           `json:"tax"`
	Total               decimal.Decimal           `json:"total"`
	PaymentMethod       string                    `json:"payment_method"`
	PaymentAmount       decimal.Decimal           `json:"payment_amount"`
	SecondPaymentMethod string                    `json:"second_payment_method,omitempty"`
	SecondPaymentAmount decimal.Decimal           `json:"second_payment_amount"`
	Status              string                    `json:"status"`
	Items               []TransactionItemResponse `json:"items"`
	CreatedAt           time.Time                 `json:"created_at"`
}
