package domain

import "time"

// DiscrepancyType is the closed set of finding kinds the engine can emit.
type DiscrepancyType string

const (
	DiscrepancyMissingEscalation DiscrepancyType = "missing_escalation"
	DiscrepancyIncorrectRate     DiscrepancyType = "incorrect_rate"
	DiscrepancyMissingSLACredits DiscrepancyType = "missing_sla_credits"
	DiscrepancyUnexpectedCharge  DiscrepancyType = "unexpected_charge"
	DiscrepancyDuplicateCharge   DiscrepancyType = "duplicate_charge"
)

// Priority ranks how urgently a finding needs human attention.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
	PriorityInfo     Priority = "info"
)

// ClauseReference points at the contract clause backing a finding. Produced
// by upstream contract extraction, carried through as evidence.
type ClauseReference struct {
	Label      string  `json:"label"`
	Text       string  `json:"text"`
	File       string  `json:"file"`
	Confidence float64 `json:"confidence"`
	Page       *int    `json:"page,omitempty"`
}

// Discrepancy is one accepted finding with its supporting evidence.
// Produced by an auditor, consumed only by the report builder.
type Discrepancy struct {
	Type             DiscrepancyType
	Priority         Priority
	Title            string
	Description      string
	FinancialImpact  float64 // always >= 0
	InvoiceItems     []InvoiceLineItem
	ContractEvidence []ClauseReference
	Confidence       float64
	Recommendations  []string
	DetectedAt       time.Time
}
