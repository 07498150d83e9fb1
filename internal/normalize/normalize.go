package normalize

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/contractguard/auditor/internal/currency"
	"github.com/contractguard/auditor/internal/domain"
)

// Resolve returns the first alias of field present in row, or ok=false when
// none match.
func Resolve(row domain.Row, table AliasTable, field CanonicalField) (string, bool) {
	for _, alias := range table[field] {
		if v, ok := row[alias]; ok {
			return v, true
		}
	}
	return "", false
}

// ToAmount coerces a raw cell to a numeric amount. Currency symbols and
// thousands separators are stripped first. Empty, placeholder, or unparsable
// values yield 0.0, never an error.
func ToAmount(raw string) float64 {
	cleaned := currency.StripSymbols(raw)
	if cleaned == "" || cleaned == "NA" {
		return 0.0
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0.0
	}
	f, _ := d.Float64()
	return f
}

// dateFormats are tried in order. Ambiguous numeric layouts resolve
// month-first, then day-first, matching the ordering billing exports follow.
var dateFormats = []string{
	"2006-01-02",
	"02-01-2006",
	"01/02/2006",
	"02/01/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// ToDate parses a raw cell into a calendar date. All failures yield nil:
// an item with no parseable date never triggers an escalation finding.
func ToDate(raw string) *time.Time {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}

	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, text); err == nil {
			return &t
		}
	}

	// ISO fallback covers datetime-valued cells from spreadsheet exports.
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, text); err == nil {
			day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &day
		}
	}

	return nil
}
