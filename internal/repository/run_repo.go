package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/contractguard/auditor/internal/audit"
)

// AuditRun is the persisted summary of one engine run.
type AuditRun struct {
	ID                string    `json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	Currency          string    `json:"currency"`
	TotalBilled       float64   `json:"total_billed"`
	InvoiceCount      int       `json:"invoice_count"`
	RecoverableAmount float64   `json:"recoverable_amount"`
	DiscrepancyCount  int       `json:"discrepancy_count"`
	AuditTimeSeconds  float64   `json:"audit_time_seconds"`
	SourceFiles       []string  `json:"source_files"`
}

// RunFromReport builds the persisted run row for a finished report.
func RunFromReport(r *audit.Report) AuditRun {
	return AuditRun{
		ID:                r.RunID,
		CreatedAt:         time.Now(),
		Currency:          r.Currency,
		TotalBilled:       r.BillingSummary.TotalBilled,
		InvoiceCount:      r.BillingSummary.InvoiceCount,
		RecoverableAmount: r.RecoverableAmount,
		DiscrepancyCount:  len(r.Discrepancies),
		AuditTimeSeconds:  r.AuditTimeSeconds,
		SourceFiles:       r.BillingSummary.Sources,
	}
}

type RunRepo struct {
	db *sql.DB
}

func NewRunRepo(db *sql.DB) *RunRepo {
	return &RunRepo{db: db}
}

func (r *RunRepo) Insert(run AuditRun) error {
	sources, err := json.Marshal(run.SourceFiles)
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT INTO audit_runs
		(id, created_at, currency, total_billed, invoice_count,
		 recoverable_amount, discrepancy_count, audit_time_seconds, source_files)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		run.ID, run.CreatedAt.Format(time.RFC3339), run.Currency,
		run.TotalBilled, run.InvoiceCount, run.RecoverableAmount,
		run.DiscrepancyCount, run.AuditTimeSeconds, string(sources),
	)
	return err
}

func (r *RunRepo) GetByID(id string) (*AuditRun, error) {
	row := r.db.QueryRow(
		`SELECT id, created_at, currency, total_billed, invoice_count,
		 recoverable_amount, discrepancy_count, audit_time_seconds, source_files
		 FROM audit_runs WHERE id = ?`, id,
	)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (r *RunRepo) List(page, limit int) ([]AuditRun, int, error) {
	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM audit_runs").Scan(&total); err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	rows, err := r.db.Query(
		`SELECT id, created_at, currency, total_billed, invoice_count,
		 recoverable_amount, discrepancy_count, audit_time_seconds, source_files
		 FROM audit_runs ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var runs []AuditRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, *run)
	}
	return runs, total, rows.Err()
}

func (r *RunRepo) Count() (int, error) {
	var n int
	err := r.db.QueryRow("SELECT COUNT(*) FROM audit_runs").Scan(&n)
	return n, err
}

// TotalRecoverable sums recoverable amounts across all runs.
func (r *RunRepo) TotalRecoverable() (float64, error) {
	var total float64
	err := r.db.QueryRow("SELECT COALESCE(SUM(recoverable_amount),0) FROM audit_runs").Scan(&total)
	return total, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (*AuditRun, error) {
	var run AuditRun
	var createdAt, sources string

	err := s.Scan(
		&run.ID, &createdAt, &run.Currency, &run.TotalBilled, &run.InvoiceCount,
		&run.RecoverableAmount, &run.DiscrepancyCount, &run.AuditTimeSeconds, &sources,
	)
	if err != nil {
		return nil, err
	}

	run.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if err := json.Unmarshal([]byte(sources), &run.SourceFiles); err != nil {
		return nil, fmt.Errorf("unmarshal sources: %w", err)
	}
	return &run, nil
}
