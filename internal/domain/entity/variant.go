package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Variant representa un SKU concreto de un producto (talla/color/etc.),
// la unidad contra la que se lleva el stock.
type Variant struct {
	ID        string
	CompanyID string
	ProductID string // agrupador del producto padre (catálogo, fuera del motor)
	SKU       string
	Name      string
	Size      string
	Color     string
	Price     decimal.Decimal // precio de venta por defecto
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
