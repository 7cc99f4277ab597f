package dto

import "time"

// RequestTransferRequest solicitud de transferencia entre sucursales.
type RequestTransferRequest struct {
	VariantID    string `json:"variant_id"`
	FromBranchID string `json:"from_branch_id"`
	ToBranchID   string `json:"to_branch_id"`
	Quantity     int64  `json:"quantity"`
	Notes        string `json:"notes"`
}

// RejectTransferRequest nota opcional al rechazar.
type RejectTransferRequest struct {
	Notes string `json:"notes"`
}

// TransferResponse transferencia con su estado.
type TransferResponse struct {
	ID           string     `json:"id"`
	TransferNo   string     `json:"transfer_no"`
	VariantID    string     `json:"variant_id"`
	FromBranchID string     `json:"from_branch_id"`
	ToBranchID   string     `json:"to_branch_id"`
	Quantity     int64      `json:"quantity"`
	Status       string     `json:"status"`
	RequestedBy  string     `json:"requested_by"`
	ProcessedBy  string     `json:"processed_by,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
}
