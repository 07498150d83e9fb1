package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

// knownCodes lists the ISO-like currency codes we expect in contract rules.
// Unknown codes are tolerated; they just draw a validation warning upstream.
var knownCodes = map[string]bool{
	"USD": true,
	"EUR": true,
	"GBP": true,
	"INR": true,
	"AUD": true,
	"CAD": true,
	"SGD": true,
	"JPY": true,
	"CHF": true,
	"KES": true,
	"NGN": true,
	"ZAR": true,
}

// symbols are stripped from raw amount cells before numeric parsing.
var symbols = []string{"$", "€", "£", "₹", "¥"}

// Known reports whether code is a recognised currency code.
func Known(code string) bool {
	return knownCodes[strings.ToUpper(strings.TrimSpace(code))]
}

// StripSymbols removes currency symbols and thousands separators from a raw
// amount string.
func StripSymbols(s string) string {
	for _, sym := range symbols {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	return strings.TrimSpace(s)
}

// Format renders an amount with thousands separators and two decimals,
// suffixed with the currency code: "105,000.00 USD".
func Format(amount float64, code string) string {
	d := decimal.NewFromFloat(amount).Round(2)
	neg := d.IsNegative()
	text := d.Abs().StringFixed(2)

	intPart, fracPart, _ := strings.Cut(text, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(fracPart)
	if code != "" {
		b.WriteByte(' ')
		b.WriteString(code)
	}
	return b.String()
}
