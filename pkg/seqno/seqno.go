// Package seqno genera números de documento legibles con fecha codificada
// (INV-20240131-0042). La unicidad NO la garantiza este paquete: la impone
// el índice único del store; ante colisión el caller regenera y reintenta.
package seqno

import (
	"fmt"
	"math/rand"
	"time"
)

// Prefijos de documento.
const (
	PrefixTransaction = "INV"
	PrefixTransfer    = "TRF"
	PrefixReturn      = "RET"
)

// New devuelve un número con el formato PREFIX-YYYYMMDD-XXXX, con sufijo
// aleatorio de 4 dígitos.
func New(prefix string, t time.Time) string {
	return Format(prefix, t, Suffix())
}

// Suffix devuelve un sufijo aleatorio de 4 dígitos. Los motores lo inyectan
// como función para poder forzar colisiones en sus tests.
func Suffix() int {
	return rand.Intn(10000)
}

// Format arma el número con un sufijo explícito (útil en tests).
func Format(prefix string, t time.Time, n int) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, t.Format("20060102"), n%10000)
}
