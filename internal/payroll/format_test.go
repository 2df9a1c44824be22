package payroll

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	t.Parallel()

	assert.Contains(t, FormatMoney("en", "EUR", 10500), "105")
	assert.Contains(t, FormatMoney("pt", "EUR", 9345), "93")
	assert.Contains(t, FormatMoney("pt-BR", "BRL", 123456), "1")

	// zero-decimal currency: minor units are already whole yen
	assert.Contains(t, FormatMoney("ja", "JPY", 500), "500")

	// unknown currency falls back to a bare two-decimal figure
	assert.Equal(t, "42.00", FormatMoney("en", "???", 4200))
	// unknown language falls back to English formatting, never panics
	assert.NotEmpty(t, FormatMoney("zz-ZZ-bogus", "EUR", 100))
}
