// Package contract turns upstream rule-extraction output into validated
// audit inputs.
package contract

import (
	"log"
	"strings"
	"time"

	"github.com/contractguard/auditor/internal/currency"
	"github.com/contractguard/auditor/internal/domain"
	"github.com/contractguard/auditor/internal/normalize"
)

// RulesPayload mirrors the contract-rules payload produced by upstream
// extraction.
type RulesPayload struct {
	BaseAmount         float64  `json:"base_amount"`
	EscalationRate     float64  `json:"escalation_rate"`
	EffectiveStartDate string   `json:"effective_start_date"`
	Currency           string   `json:"currency"`
	InvoiceKeywords    []string `json:"invoice_keywords"`
	ExclusionKeywords  []string `json:"exclusion_keywords"`
	SLAUptime          *float64 `json:"sla_uptime"`
	ServiceCreditRate  *float64 `json:"service_credit_rate"`
}

// fallbackEffectiveDate is used when the extracted effective date is missing
// or unparsable. Applying it is logged, never silent.
var fallbackEffectiveDate = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// Resolve builds ContractRules from the raw payload. Validation issues are
// logged for diagnosis but never block the audit.
func Resolve(p RulesPayload) domain.ContractRules {
	effective := normalize.ToDate(p.EffectiveStartDate)
	if effective == nil {
		log.Printf("[contract] WARNING: effective start date %q unparsable, defaulting to %s",
			p.EffectiveStartDate, fallbackEffectiveDate.Format("2006-01-02"))
		effective = &fallbackEffectiveDate
	}

	cur := strings.ToUpper(strings.TrimSpace(p.Currency))
	if cur == "" {
		cur = "USD"
	} else if !currency.Known(cur) {
		log.Printf("[contract] WARNING: unrecognised currency code %q", cur)
	}

	rules := domain.ContractRules{
		BaseAmount:         p.BaseAmount,
		EscalationRate:     p.EscalationRate,
		EffectiveStartDate: *effective,
		Currency:           cur,
		InvoiceKeywords:    dedupe(p.InvoiceKeywords),
		ExclusionKeywords:  dedupe(p.ExclusionKeywords),
		SLAUptime:          p.SLAUptime,
		ServiceCreditRate:  p.ServiceCreditRate,
	}

	if issues := rules.Validate(); len(issues) > 0 {
		log.Printf("[contract] WARNING: rule validation issues: %s", strings.Join(issues, "; "))
	} else {
		log.Printf("[contract] Rules validated: base=%.2f escalation=%.1f%% effective=%s",
			rules.BaseAmount, rules.EscalationRate*100, rules.EffectiveStartDate.Format("2006-01-02"))
	}

	return rules
}

// dedupe removes duplicate keywords case-insensitively, preserving first
// occurrence order.
func dedupe(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	var out []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		lower := strings.ToLower(kw)
		if seen[lower] {
			continue
		}
		seen[lower] = true
		out = append(out, kw)
	}
	return out
}
