package domain

import (
	"fmt"
	"time"
)

// ContractRules holds the pricing terms one audit run is checked against.
// Built once per run from upstream contract extraction; read-only afterward.
type ContractRules struct {
	BaseAmount         float64   `json:"base_amount"`
	EscalationRate     float64   `json:"escalation_rate"` // fraction, e.g. 0.05 for 5%
	EffectiveStartDate time.Time `json:"effective_start_date"`
	Currency           string    `json:"currency"`
	InvoiceKeywords    []string  `json:"invoice_keywords"`
	ExclusionKeywords  []string  `json:"exclusion_keywords"`
	SLAUptime          *float64  `json:"sla_uptime,omitempty"`
	ServiceCreditRate  *float64  `json:"service_credit_rate,omitempty"`
}

// ExpectedAmountAfterEscalation is the recurring rate the vendor should be
// billing once the escalation takes effect.
func (r *ContractRules) ExpectedAmountAfterEscalation() float64 {
	return r.BaseAmount * (1 + r.EscalationRate)
}

// Validate reports implausible rule values. Issues are diagnostic only; an
// audit still runs against whatever values it has.
func (r *ContractRules) Validate() []string {
	var issues []string

	if r.BaseAmount <= 0 {
		issues = append(issues, fmt.Sprintf("invalid base amount: %v", r.BaseAmount))
	}
	if r.EscalationRate < 0 || r.EscalationRate > 0.5 {
		issues = append(issues, fmt.Sprintf("suspicious escalation rate: %.1f%%", r.EscalationRate*100))
	}
	if r.Currency == "" {
		issues = append(issues, "currency not specified")
	}

	return issues
}
