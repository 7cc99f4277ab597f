package entity

// Actor es la identidad autenticada que ejecuta una operación. La construye
// el request layer (middleware JWT) y se pasa explícita a los casos de uso;
// el motor nunca consulta el token por su cuenta.
type Actor struct {
	UserID    string
	CompanyID string
	BranchID  string
	Role      string
	IP        string // para el audit trail
}

// HasAnyRole indica si el rol del actor está dentro de la lista dada.
func (a Actor) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}
