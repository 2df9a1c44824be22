package payroll

import (
	"math"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatMoney renders a minor-unit amount in the user's language and
// currency, symbol and separators included. The divisor follows the
// currency's minor-unit exponent, so EUR cents and whole-yen JPY both
// come out right. Unknown language tags fall back to English, unknown
// currency codes to a plain two-decimal figure.
func FormatMoney(lang, code string, minor int64) string {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	p := message.NewPrinter(tag)

	unit, err := currency.ParseISO(code)
	if err != nil {
		return p.Sprintf("%.2f", float64(minor)/100)
	}
	scale, _ := currency.Standard.Rounding(unit)
	amount := float64(minor) / math.Pow10(scale)
	return p.Sprint(currency.Symbol(unit.Amount(amount)))
}
