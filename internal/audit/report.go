package audit

import (
	"log"

	"github.com/contractguard/auditor/internal/domain"
)

// Evidence is one entry in a report's evidence list: either a contract
// clause reference or an offending invoice line.
type Evidence struct {
	Type           string  `json:"type"` // contract_clause | invoice_line_error
	Label          string  `json:"label,omitempty"`
	Text           string  `json:"text,omitempty"`
	File           string  `json:"file,omitempty"`
	Page           *int    `json:"page,omitempty"`
	InvoiceDate    string  `json:"invoice_date,omitempty"`
	Reference      string  `json:"reference,omitempty"`
	Description    string  `json:"description,omitempty"`
	FoundRate      float64 `json:"found_rate,omitempty"`
	Classification string  `json:"classification,omitempty"`
	Confidence     float64 `json:"confidence"`
}

// ReportEntry is the uniform serializable discrepancy shape consumed by
// reporting collaborators.
type ReportEntry struct {
	Type            string     `json:"type"`
	Priority        string     `json:"priority"`
	Issue           string     `json:"issue"`
	Description     string     `json:"description"`
	Value           float64    `json:"value"`
	Confidence      float64    `json:"confidence"`
	Evidence        []Evidence `json:"evidence"`
	Recommendations []string   `json:"recommendations"`
}

// ClassificationStats counts line items per classification for one run.
type ClassificationStats struct {
	TotalItems  int `json:"total_items"`
	Recurring   int `json:"recurring"`
	OneTime     int `json:"one_time"`
	Credits     int `json:"credits"`
	Adjustments int `json:"adjustments"`
	Unknown     int `json:"unknown"`
}

// Report is the full output of one audit run.
type Report struct {
	RunID               string              `json:"run_id"`
	Discrepancies       []ReportEntry       `json:"discrepancies"`
	RecoverableAmount   float64             `json:"recoverable_amount"`
	Currency            string              `json:"currency"`
	BillingSummary      BillingSummary      `json:"billing_summary"`
	ClassificationStats ClassificationStats `json:"classification_stats"`
	AuditTimeSeconds    float64             `json:"audit_time_seconds"`
}

// buildEntry converts an accepted finding into the wire shape. Clause
// evidence leads, followed by up to MaxEvidenceItems invoice lines.
func (s *Service) buildEntry(d domain.Discrepancy) ReportEntry {
	// The enums are closed; anything else is a programming error worth
	// noticing before it reaches a report.
	switch d.Type {
	case domain.DiscrepancyMissingEscalation, domain.DiscrepancyIncorrectRate,
		domain.DiscrepancyMissingSLACredits, domain.DiscrepancyUnexpectedCharge,
		domain.DiscrepancyDuplicateCharge:
	default:
		log.Printf("[audit] WARNING: unknown discrepancy type %q in report", d.Type)
	}
	switch d.Priority {
	case domain.PriorityCritical, domain.PriorityHigh, domain.PriorityMedium,
		domain.PriorityLow, domain.PriorityInfo:
	default:
		log.Printf("[audit] WARNING: unknown priority %q in report", d.Priority)
	}

	evidence := make([]Evidence, 0, len(d.ContractEvidence)+s.cfg.MaxEvidenceItems)
	for _, ref := range d.ContractEvidence {
		evidence = append(evidence, Evidence{
			Type:       "contract_clause",
			Label:      ref.Label,
			Text:       ref.Text,
			File:       ref.File,
			Page:       ref.Page,
			Confidence: ref.Confidence,
		})
	}

	items := d.InvoiceItems
	if len(items) > s.cfg.MaxEvidenceItems {
		items = items[:s.cfg.MaxEvidenceItems]
	}
	for _, item := range items {
		e := Evidence{
			Type:           "invoice_line_error",
			Reference:      item.InvoiceNumber,
			Description:    item.Description,
			FoundRate:      item.Rate,
			Classification: string(item.Classification),
			Confidence:     item.Confidence,
		}
		if item.InvoiceDate != nil {
			e.InvoiceDate = item.InvoiceDate.Format("2006-01-02")
		}
		evidence = append(evidence, e)
	}

	return ReportEntry{
		Type:            string(d.Type),
		Priority:        string(d.Priority),
		Issue:           d.Title,
		Description:     d.Description,
		Value:           round2(d.FinancialImpact),
		Confidence:      d.Confidence,
		Evidence:        evidence,
		Recommendations: d.Recommendations,
	}
}

// emptyInputEntry is emitted when a run produced no findings and parsed no
// billing rows at all, so callers always get a non-empty audit trail.
func emptyInputEntry() ReportEntry {
	return ReportEntry{
		Type:        "no_billing_data",
		Priority:    string(domain.PriorityLow),
		Issue:       "No billing data parsed",
		Description: "No invoice rows could be read from the supplied files. The input may be empty, malformed, or in an unsupported format.",
		Value:       0,
		Confidence:  1.0,
		Evidence:    []Evidence{},
		Recommendations: []string{
			"Check that billing exports are CSV, TSV, or XLSX",
			"Verify the files contain a header row and at least one data row",
		},
	}
}

func classificationStats(items []domain.InvoiceLineItem) ClassificationStats {
	stats := ClassificationStats{TotalItems: len(items)}
	for i := range items {
		switch items[i].Classification {
		case domain.ClassRecurring:
			stats.Recurring++
		case domain.ClassOneTime:
			stats.OneTime++
		case domain.ClassCredit:
			stats.Credits++
		case domain.ClassAdjustment:
			stats.Adjustments++
		default:
			stats.Unknown++
		}
	}
	return stats
}
