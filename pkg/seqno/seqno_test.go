package seqno_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tu-usuario/pos-backoffice/pkg/seqno"
)

var fecha = time.Date(2024, time.January, 31, 15, 4, 5, 0, time.UTC)

func TestFormat_NumeroExacto(t *testing.T) {
	assert.Equal(t, "INV-20240131-0042", seqno.Format(seqno.PrefixTransaction, fecha, 42))
	assert.Equal(t, "TRF-20240131-0000", seqno.Format(seqno.PrefixTransfer, fecha, 0))
	assert.Equal(t, "RET-20240131-9999", seqno.Format(seqno.PrefixReturn, fecha, 9999))
}

// El sufijo siempre queda en 4 dígitos, aun si n supera 9999.
func TestFormat_SufijoModulo10000(t *testing.T) {
	assert.Equal(t, "INV-20240131-0001", seqno.Format(seqno.PrefixTransaction, fecha, 10001))
}

func TestNew_RespetaPrefijoYFecha(t *testing.T) {
	pattern := regexp.MustCompile(`^RET-20240131-\d{4}$`)
	for i := 0; i < 50; i++ {
		n := seqno.New(seqno.PrefixReturn, fecha)
		assert.Regexp(t, pattern, n, "el número debe llevar prefijo, fecha codificada y sufijo de 4 dígitos")
	}
}
