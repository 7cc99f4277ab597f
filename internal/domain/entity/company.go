package entity

import "time"

// Company representa el tenant del sistema. Toda entidad queda aislada
// transitivamente por CompanyID a través de la sucursal; ninguna consulta
// puede cruzar empresas.
type Company struct {
	ID        string
	Name      string
	TaxID     string // NIT / identificación tributaria
	Address   string
	Phone     string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
