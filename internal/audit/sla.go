package audit

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/contractguard/auditor/internal/contract"
	"github.com/contractguard/auditor/internal/domain"
)

// downtimeIndicators mark descriptions referencing service degradation.
var downtimeIndicators = []string{
	"downtime", "outage", "incident", "unavailable", "offline",
	"service interruption", "degraded", "slow", "performance issue",
}

// auditSLACredits flags likely missing service credits. The finding is
// raised only when downtime language appears with no credit lines issued;
// either credits or the absence of downtime language suppress it entirely.
func (s *Service) auditSLACredits(items []domain.InvoiceLineItem, rules domain.ContractRules, docs []contract.Document, totalBilled float64) *domain.Discrepancy {
	if rules.SLAUptime == nil {
		return nil
	}

	var creditsIssued, downtimeMentioned []domain.InvoiceLineItem
	for i := range items {
		if items[i].Classification == domain.ClassCredit {
			creditsIssued = append(creditsIssued, items[i])
		}
		desc := strings.ToLower(items[i].Description)
		for _, indicator := range downtimeIndicators {
			if strings.Contains(desc, indicator) {
				downtimeMentioned = append(downtimeMentioned, items[i])
				break
			}
		}
	}

	if len(downtimeMentioned) == 0 || len(creditsIssued) > 0 {
		if len(creditsIssued) > 0 {
			log.Printf("[audit] SLA credits found: %d credit entries", len(creditsIssued))
		} else {
			log.Printf("[audit] No downtime indicators found, SLA likely met")
		}
		return nil
	}

	evidence := downtimeMentioned
	if len(evidence) > 3 {
		evidence = evidence[:3]
	}

	return &domain.Discrepancy{
		Type:     domain.DiscrepancyMissingSLACredits,
		Priority: domain.PriorityMedium,
		Title:    "Potential missing SLA credits",
		Description: fmt.Sprintf(
			"Contract guarantees %.2f%% uptime with service credits. Found %d reference(s) to service issues but no credits issued.",
			*rules.SLAUptime, len(downtimeMentioned)),
		FinancialImpact:  totalBilled * s.cfg.SLAImpactFraction,
		InvoiceItems:     evidence,
		ContractEvidence: contract.ClauseReferences(docs, "service_credits", s.cfg.MaxClauseRefs),
		Confidence:       0.65, // conservative pending human review
		Recommendations: []string{
			"Review service uptime logs for reported period",
			"Verify if SLA breaches occurred",
			"Calculate appropriate credits if breach confirmed",
		},
		DetectedAt: time.Now(),
	}
}
