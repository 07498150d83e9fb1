// Package audit implements the reconciliation engine: classified billing
// data is checked against contract rules and accepted findings are
// aggregated into an evidence-backed report.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/contractguard/auditor/internal/classify"
	"github.com/contractguard/auditor/internal/contract"
	"github.com/contractguard/auditor/internal/domain"
	"github.com/contractguard/auditor/internal/normalize"
)

// Service runs the staged audit pipeline: normalize, classify, audit,
// aggregate. Stages run in sequence; only classification fans out.
type Service struct {
	classifier *classify.Classifier
	aliases    normalize.AliasTable
	cfg        Config
}

// NewService wires the pipeline.
func NewService(classifier *classify.Classifier, aliases normalize.AliasTable, cfg Config) *Service {
	return &Service{classifier: classifier, aliases: aliases, cfg: cfg}
}

// Run executes one audit over the given billing rows. It always produces a
// report; malformed input degrades coverage rather than failing the run.
func (s *Service) Run(ctx context.Context, rows []domain.Row, rules domain.ContractRules, docs []contract.Document) *Report {
	start := time.Now()
	runID := uuid.NewString()
	log.Printf("[audit] Starting run %s: %d billing row(s)", runID, len(rows))

	// The classification cache is scoped to this run only.
	cache := classify.NewRunCache()

	log.Printf("[audit] [1/5] Summarizing billing data...")
	summary := Summarize(rows, s.aliases)

	log.Printf("[audit] [2/5] Normalizing %d row(s)...", len(rows))
	pending := s.normalizeRows(rows)

	log.Printf("[audit] [3/5] Classifying %d line item(s)...", len(pending))
	items := s.classifier.ClassifyBatch(ctx, cache, pending, rules.InvoiceKeywords)

	log.Printf("[audit] [4/5] Running audits...")
	var discrepancies []domain.Discrepancy
	if d := s.auditEscalation(ctx, items, rules, docs); d != nil {
		discrepancies = append(discrepancies, *d)
	}
	if d := s.auditSLACredits(items, rules, docs, summary.TotalBilled); d != nil {
		discrepancies = append(discrepancies, *d)
	}

	log.Printf("[audit] [5/5] Building report...")
	entries := make([]ReportEntry, 0, len(discrepancies))
	var recoverable float64
	for _, d := range discrepancies {
		entries = append(entries, s.buildEntry(d))
		recoverable += d.FinancialImpact
	}

	if len(entries) == 0 && summary.InvoiceCount == 0 {
		entries = append(entries, emptyInputEntry())
	}

	elapsed := time.Since(start).Seconds()
	log.Printf("[audit] Run %s complete: %d discrepancy(ies), recoverable=%.2f %s, %.2fs",
		runID, len(discrepancies), recoverable, rules.Currency, elapsed)

	return &Report{
		RunID:               runID,
		Discrepancies:       entries,
		RecoverableAmount:   round2(recoverable),
		Currency:            rules.Currency,
		BillingSummary:      summary,
		ClassificationStats: classificationStats(items),
		AuditTimeSeconds:    elapsed,
	}
}

// normalizeRows maps raw rows onto the canonical schema. Unparsable numbers
// default to zero and unparsable dates to nil per the engine's local
// defaulting policy.
func (s *Service) normalizeRows(rows []domain.Row) []classify.Item {
	pending := make([]classify.Item, 0, len(rows))
	for _, row := range rows {
		desc, _ := normalize.Resolve(row, s.aliases, normalize.FieldDescription)
		amountRaw, _ := normalize.Resolve(row, s.aliases, normalize.FieldAmount)
		rateRaw, _ := normalize.Resolve(row, s.aliases, normalize.FieldRate)
		dateRaw, _ := normalize.Resolve(row, s.aliases, normalize.FieldInvoiceDate)
		number, _ := normalize.Resolve(row, s.aliases, normalize.FieldInvoiceNumber)

		amount := normalize.ToAmount(amountRaw)
		rate := normalize.ToAmount(rateRaw)
		if rate == 0.0 && amount > 0 {
			rate = amount
		}

		pending = append(pending, classify.Item{
			Description:   desc,
			Amount:        amount,
			Rate:          rate,
			InvoiceDate:   normalize.ToDate(dateRaw),
			InvoiceNumber: number,
			Raw:           row,
		})
	}
	return pending
}
