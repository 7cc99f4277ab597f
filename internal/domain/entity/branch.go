package entity

import "time"

// Branch representa una sucursal (punto de venta físico). El stock y las
// ventas se manejan por sucursal.
type Branch struct {
	ID        string
	CompanyID string
	Name      string
	Address   string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
