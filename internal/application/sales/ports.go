package sales

import (
	"context"

	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
)

// ReceiptData todo lo necesario para renderizar el recibo de una venta.
type ReceiptData struct {
	Transaction  *entity.Transaction
	Company      *entity.Company
	Branch       *entity.Branch
	VariantNames map[string]string // variantID -> nombre visible
}

// ReceiptGenerator renderiza el recibo (PDF) de una venta completada.
// Lo implementa internal/infrastructure/pdf.
type ReceiptGenerator interface {
	GenerateReceipt(ctx context.Context, data ReceiptData) ([]byte, error)
}
