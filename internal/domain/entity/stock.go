package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockRecord representa el stock actual de una variante en una sucursal.
// Clave natural (VariantID, BranchID); una fila por par, creada de forma
// perezosa en la primera escritura. Quantity nunca puede quedar negativa
// en ningún punto observable.
type StockRecord struct {
	VariantID string
	BranchID  string
	Quantity  int64
	UnitPrice decimal.Decimal
	UpdatedAt time.Time
}
