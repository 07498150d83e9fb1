package audit

import (
	"testing"

	"github.com/contractguard/auditor/internal/contract"
	"github.com/contractguard/auditor/internal/domain"
)

func slaRules(uptime float64) domain.ContractRules {
	r := testRules()
	r.SLAUptime = &uptime
	return r
}

func TestSLACreditsMissing(t *testing.T) {
	s := newTestService(&validateOracle{})

	items := []domain.InvoiceLineItem{
		{Description: "Monthly platform fee", Classification: domain.ClassRecurring},
		{Description: "Support during March outage window", Classification: domain.ClassOneTime},
	}

	d := s.auditSLACredits(items, slaRules(99.9), nil, 200000)
	if d == nil {
		t.Fatal("expected a missing_sla_credits discrepancy")
	}
	if d.Type != domain.DiscrepancyMissingSLACredits {
		t.Errorf("type = %s", d.Type)
	}
	if d.Priority != domain.PriorityMedium {
		t.Errorf("priority = %s, want medium", d.Priority)
	}
	if d.Confidence != 0.65 {
		t.Errorf("confidence = %v, want 0.65", d.Confidence)
	}
	// Estimated impact is a fixed fraction of total billed.
	if d.FinancialImpact != 2000 {
		t.Errorf("impact = %v, want 2000", d.FinancialImpact)
	}
}

func TestSLACreditsNoUptimeCommitment(t *testing.T) {
	s := newTestService(&validateOracle{})

	items := []domain.InvoiceLineItem{
		{Description: "outage everywhere", Classification: domain.ClassRecurring},
	}
	if d := s.auditSLACredits(items, testRules(), nil, 100000); d != nil {
		t.Fatalf("no SLA terms means no SLA audit, got %+v", d)
	}
}

func TestSLACreditsIssuedSuppressesFinding(t *testing.T) {
	s := newTestService(&validateOracle{})

	items := []domain.InvoiceLineItem{
		{Description: "Service interruption on 2025-03-12", Classification: domain.ClassOneTime},
		{Description: "Service credit for March incident", Classification: domain.ClassCredit},
	}
	if d := s.auditSLACredits(items, slaRules(99.9), nil, 100000); d != nil {
		t.Fatalf("issued credits should suppress the finding, got %+v", d)
	}
}

func TestSLACreditsNoDowntimeLanguage(t *testing.T) {
	s := newTestService(&validateOracle{})

	items := []domain.InvoiceLineItem{
		{Description: "Monthly platform fee", Classification: domain.ClassRecurring},
	}
	if d := s.auditSLACredits(items, slaRules(99.9), nil, 100000); d != nil {
		t.Fatalf("no downtime language should mean no finding, got %+v", d)
	}
}

func TestSLACreditsEvidenceCapped(t *testing.T) {
	s := newTestService(&validateOracle{})

	items := make([]domain.InvoiceLineItem, 6)
	for i := range items {
		items[i] = domain.InvoiceLineItem{
			Description:    "downtime follow-up work",
			Classification: domain.ClassOneTime,
		}
	}

	d := s.auditSLACredits(items, slaRules(99.5), nil, 100000)
	if d == nil {
		t.Fatal("expected a finding")
	}
	if len(d.InvoiceItems) != 3 {
		t.Errorf("evidence items = %d, want cap of 3", len(d.InvoiceItems))
	}
}

func TestSLACreditsClauseEvidence(t *testing.T) {
	s := newTestService(&validateOracle{})

	docs := []contract.Document{
		{Filename: "msa.pdf", Clauses: []contract.Clause{
			{Label: "service_credits", Text: "Credits of 5% per breach", Confidence: 0.9},
		}},
	}
	items := []domain.InvoiceLineItem{
		{Description: "degraded performance remediation", Classification: domain.ClassOneTime},
	}

	d := s.auditSLACredits(items, slaRules(99.9), docs, 100000)
	if d == nil {
		t.Fatal("expected a finding")
	}
	if len(d.ContractEvidence) != 1 || d.ContractEvidence[0].Label != "service_credits" {
		t.Errorf("clause evidence not attached: %+v", d.ContractEvidence)
	}
}
