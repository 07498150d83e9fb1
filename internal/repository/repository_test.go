package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/contractguard/auditor/internal/audit"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDB(":memory:")
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func insertTestRun(t *testing.T, repo *RunRepo, id string) AuditRun {
	t.Helper()
	run := AuditRun{
		ID:                id,
		CreatedAt:         time.Now().UTC(),
		Currency:          "USD",
		TotalBilled:       105000,
		InvoiceCount:      2,
		RecoverableAmount: 5000,
		DiscrepancyCount:  1,
		AuditTimeSeconds:  0.42,
		SourceFiles:       []string{"feb.csv"},
	}
	if err := repo.Insert(run); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return run
}

func TestRunRepoRoundTrip(t *testing.T) {
	repo := NewRunRepo(testDB(t))
	want := insertTestRun(t, repo, "run-1")

	got, err := repo.GetByID("run-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil {
		t.Fatal("run not found")
	}
	if got.Currency != want.Currency || got.TotalBilled != want.TotalBilled ||
		got.RecoverableAmount != want.RecoverableAmount {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if len(got.SourceFiles) != 1 || got.SourceFiles[0] != "feb.csv" {
		t.Errorf("source files = %v", got.SourceFiles)
	}
}

func TestRunRepoGetByIDMissing(t *testing.T) {
	repo := NewRunRepo(testDB(t))

	got, err := repo.GetByID("nope")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing run, got %+v", got)
	}
}

func TestRunRepoListAndTotals(t *testing.T) {
	repo := NewRunRepo(testDB(t))
	insertTestRun(t, repo, "run-1")
	insertTestRun(t, repo, "run-2")
	insertTestRun(t, repo, "run-3")

	runs, total, err := repo.List(1, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(runs) != 2 {
		t.Errorf("page size = %d, want 2", len(runs))
	}

	n, err := repo.Count()
	if err != nil || n != 3 {
		t.Errorf("Count = %d, %v; want 3", n, err)
	}

	recoverable, err := repo.TotalRecoverable()
	if err != nil {
		t.Fatalf("TotalRecoverable: %v", err)
	}
	if recoverable != 15000 {
		t.Errorf("recoverable = %v, want 15000", recoverable)
	}
}

func sampleEntries() []audit.ReportEntry {
	return []audit.ReportEntry{
		{
			Type:        "missing_escalation",
			Priority:    "high",
			Issue:       "Price escalation not applied (5%)",
			Description: "old rate still billed",
			Value:       5000,
			Confidence:  0.99,
			Evidence: []audit.Evidence{
				{Type: "invoice_line_error", Reference: "INV-001", FoundRate: 100000, Confidence: 0.95},
			},
			Recommendations: []string{"Review invoices"},
		},
		{
			Type:            "missing_sla_credits",
			Priority:        "medium",
			Issue:           "Potential missing SLA credits",
			Value:           1050,
			Confidence:      0.65,
			Evidence:        []audit.Evidence{},
			Recommendations: []string{"Review uptime logs"},
		},
	}
}

func TestDiscrepancyRepoInsertAndGetByRun(t *testing.T) {
	db := testDB(t)
	runRepo := NewRunRepo(db)
	repo := NewDiscrepancyRepo(db)
	insertTestRun(t, runRepo, "run-1")

	n, err := repo.InsertForRun("run-1", sampleEntries())
	if err != nil {
		t.Fatalf("InsertForRun: %v", err)
	}
	if n != 2 {
		t.Fatalf("inserted = %d, want 2", n)
	}

	discs, err := repo.GetByRunID("run-1")
	if err != nil {
		t.Fatalf("GetByRunID: %v", err)
	}
	if len(discs) != 2 {
		t.Fatalf("got %d discrepancies, want 2", len(discs))
	}
	for _, d := range discs {
		if d.RunID != "run-1" || d.ID == "" {
			t.Errorf("bad linkage: %+v", d)
		}
	}

	// Evidence and recommendations survive the JSON columns.
	for _, d := range discs {
		if d.Type == "missing_escalation" {
			if len(d.Evidence) != 1 || d.Evidence[0].Reference != "INV-001" {
				t.Errorf("evidence lost: %+v", d.Evidence)
			}
			if len(d.Recommendations) != 1 {
				t.Errorf("recommendations lost: %v", d.Recommendations)
			}
		}
	}
}

func TestDiscrepancyRepoFilters(t *testing.T) {
	db := testDB(t)
	runRepo := NewRunRepo(db)
	repo := NewDiscrepancyRepo(db)
	insertTestRun(t, runRepo, "run-1")
	insertTestRun(t, runRepo, "run-2")

	if _, err := repo.InsertForRun("run-1", sampleEntries()); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.InsertForRun("run-2", sampleEntries()[:1]); err != nil {
		t.Fatal(err)
	}

	discs, total, err := repo.List(DiscrepancyFilter{Type: "missing_escalation"})
	if err != nil {
		t.Fatalf("List by type: %v", err)
	}
	if total != 2 || len(discs) != 2 {
		t.Errorf("by type: total=%d len=%d, want 2/2", total, len(discs))
	}

	discs, total, err = repo.List(DiscrepancyFilter{RunID: "run-2"})
	if err != nil {
		t.Fatalf("List by run: %v", err)
	}
	if total != 1 || len(discs) != 1 {
		t.Errorf("by run: total=%d len=%d, want 1/1", total, len(discs))
	}

	discs, _, err = repo.List(DiscrepancyFilter{Priority: "medium"})
	if err != nil {
		t.Fatalf("List by priority: %v", err)
	}
	if len(discs) != 1 || discs[0].Type != "missing_sla_credits" {
		t.Errorf("by priority: %+v", discs)
	}

	future := time.Now().Add(time.Hour)
	discs, _, err = repo.List(DiscrepancyFilter{From: &future})
	if err != nil {
		t.Fatalf("List by window: %v", err)
	}
	if len(discs) != 0 {
		t.Errorf("future window should be empty, got %d", len(discs))
	}
}

func TestDiscrepancyRepoSummary(t *testing.T) {
	db := testDB(t)
	runRepo := NewRunRepo(db)
	repo := NewDiscrepancyRepo(db)
	insertTestRun(t, runRepo, "run-1")

	if _, err := repo.InsertForRun("run-1", sampleEntries()); err != nil {
		t.Fatal(err)
	}

	s, err := repo.GetSummary()
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if s.TotalCount != 2 {
		t.Errorf("count = %d, want 2", s.TotalCount)
	}
	if s.TotalImpact != 6050 {
		t.Errorf("impact = %v, want 6050", s.TotalImpact)
	}
	if s.ByType["missing_escalation"] != 1 || s.ByPriority["medium"] != 1 {
		t.Errorf("groupings wrong: %+v", s)
	}
}

func TestRunFromReport(t *testing.T) {
	report := &audit.Report{
		RunID:             "run-9",
		Discrepancies:     []audit.ReportEntry{{Type: "missing_escalation"}},
		RecoverableAmount: 5000,
		Currency:          "USD",
		BillingSummary: audit.BillingSummary{
			TotalBilled:  105000,
			InvoiceCount: 2,
			Sources:      []string{"feb.csv"},
		},
		AuditTimeSeconds: 1.5,
	}

	run := RunFromReport(report)
	if run.ID != "run-9" || run.DiscrepancyCount != 1 || run.TotalBilled != 105000 {
		t.Errorf("unexpected run: %+v", run)
	}
	if len(run.SourceFiles) != 1 || run.SourceFiles[0] != "feb.csv" {
		t.Errorf("sources = %v", run.SourceFiles)
	}
}
