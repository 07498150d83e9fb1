package audit

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/contractguard/auditor/internal/contract"
	"github.com/contractguard/auditor/internal/currency"
	"github.com/contractguard/auditor/internal/domain"
)

// proRataKeywords mark descriptions that announce partial-period billing.
var proRataKeywords = []string{"pro-rata", "pro rata", "prorata", "partial", "days"}

// accepted is one item that survived all false-positive guards.
type accepted struct {
	item       domain.InvoiceLineItem
	confidence float64
	reason     string
	action     string
}

// auditEscalation detects recurring charges billed at the pre-escalation
// rate after the escalation effective date. Each candidate passes the
// pro-rata guard, then either the obvious-miss shortcut or an oracle
// validation, before it can contribute to a finding.
func (s *Service) auditEscalation(ctx context.Context, items []domain.InvoiceLineItem, rules domain.ContractRules, docs []contract.Document) *domain.Discrepancy {
	var affected []domain.InvoiceLineItem
	for i := range items {
		if items[i].IsLikelyRecurring() && items[i].IsOnOrAfter(rules.EffectiveStartDate) {
			affected = append(affected, items[i])
		}
	}
	if len(affected) == 0 {
		log.Printf("[audit] No recurring charges after escalation date")
		return nil
	}

	expectedRate := rules.ExpectedAmountAfterEscalation()
	log.Printf("[audit] Auditing %d recurring charge(s) after %s against expected rate %.2f",
		len(affected), rules.EffectiveStartDate.Format("2006-01-02"), expectedRate)

	contractContext := fmt.Sprintf("Base: %.2f, Escalation: %.1f%%, Effective: %s",
		rules.BaseAmount, rules.EscalationRate*100, rules.EffectiveStartDate.Format("2006-01-02"))

	var errors []accepted
	for _, item := range affected {
		if item.Rate >= expectedRate-s.cfg.RoundingTolerance {
			continue
		}

		difference := expectedRate - item.Rate
		pctDiff := difference / expectedRate * 100

		// Pro-rata guard: partial-period language, or a charged/expected
		// ratio near a partial-month bucket, means legitimate billing.
		if s.isProRata(item, expectedRate) {
			log.Printf("[audit] Pro-rata approved: %q rate=%.2f (%.1f%% of expected)",
				truncate(item.Description, 50), item.Rate, item.Rate/expectedRate*100)
			continue
		}

		// Obvious-miss shortcut: shortfall matches the contract escalation
		// percentage, no oracle needed.
		if math.Abs(pctDiff-rules.EscalationRate*100) < s.cfg.ObviousMissTolerancePP {
			log.Printf("[audit] WARNING: obvious escalation miss: %q rate=%.2f expected=%.2f",
				truncate(item.Description, 40), item.Rate, expectedRate)
			errors = append(errors, accepted{item, 0.99, "missing escalation (exact percentage match)", "dispute"})
			continue
		}

		v := s.classifier.ValidateDiscrepancy(ctx, item, expectedRate, contractContext, s.cfg.RoundingTolerance)
		if v.IsValidError && v.Confidence > s.cfg.OracleMinConfidence {
			log.Printf("[audit] WARNING: escalation miss validated: %q rate=%.2f expected=%.2f",
				truncate(item.Description, 40), item.Rate, expectedRate)
			errors = append(errors, accepted{item, v.Confidence, v.Reason, v.Action})
		} else {
			log.Printf("[audit] False positive filtered: %s", v.Reason)
		}
	}

	if len(errors) == 0 {
		log.Printf("[audit] No escalation issues detected")
		return nil
	}

	var totalLeakage, confidenceSum float64
	evidence := make([]domain.InvoiceLineItem, 0, len(errors))
	for _, e := range errors {
		totalLeakage += expectedRate - e.item.Rate
		confidenceSum += e.confidence
		evidence = append(evidence, e.item)
	}
	avgConfidence := confidenceSum / float64(len(errors))

	priority := domain.PriorityMedium
	switch {
	case totalLeakage > rules.BaseAmount*0.1 && avgConfidence > 0.85:
		priority = domain.PriorityCritical
	case avgConfidence > 0.8:
		priority = domain.PriorityHigh
	}

	escalationPct := strings.TrimSuffix(fmt.Sprintf("%.1f", rules.EscalationRate*100), ".0")

	return &domain.Discrepancy{
		Type:     domain.DiscrepancyMissingEscalation,
		Priority: priority,
		Title:    fmt.Sprintf("Price escalation not applied (%s%%)", escalationPct),
		Description: fmt.Sprintf(
			"Contract requires %s%% annual escalation effective %s. Found %d invoice(s) still at old rate of %s instead of %s.",
			escalationPct, rules.EffectiveStartDate.Format("2006-01-02"), len(errors),
			currency.Format(rules.BaseAmount, ""), currency.Format(expectedRate, "")),
		FinancialImpact:  totalLeakage,
		InvoiceItems:     evidence,
		ContractEvidence: contract.ClauseReferences(docs, "cpi_uplift", s.cfg.MaxClauseRefs),
		Confidence:       avgConfidence,
		Recommendations: []string{
			fmt.Sprintf("Review %d invoice(s) for missing %s%% escalation", len(errors), escalationPct),
			fmt.Sprintf("Expected rate after escalation: %s", currency.Format(expectedRate, rules.Currency)),
			fmt.Sprintf("Escalation effective from: %s", rules.EffectiveStartDate.Format("2006-01-02")),
		},
		DetectedAt: time.Now(),
	}
}

// isProRata reports whether a short-billed item is explained by
// partial-period billing.
func (s *Service) isProRata(item domain.InvoiceLineItem, expectedRate float64) bool {
	desc := strings.ToLower(item.Description)
	for _, kw := range proRataKeywords {
		if strings.Contains(desc, kw) {
			return true
		}
	}

	if expectedRate <= 0 {
		return false
	}
	ratio := item.Rate / expectedRate
	for _, bucket := range s.cfg.ProRataBuckets {
		if math.Abs(ratio-bucket) < s.cfg.ProRataBucketTolerance {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
