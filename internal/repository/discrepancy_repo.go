package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/contractguard/auditor/internal/audit"
)

// StoredDiscrepancy is one persisted report entry with its run linkage.
type StoredDiscrepancy struct {
	ID              string           `json:"id"`
	RunID           string           `json:"run_id"`
	Type            string           `json:"type"`
	Priority        string           `json:"priority"`
	Issue           string           `json:"issue"`
	Description     string           `json:"description"`
	Value           float64          `json:"value"`
	Confidence      float64          `json:"confidence"`
	Evidence        []audit.Evidence `json:"evidence"`
	Recommendations []string         `json:"recommendations"`
	DetectedAt      time.Time        `json:"detected_at"`
}

type DiscrepancyRepo struct {
	db *sql.DB
}

func NewDiscrepancyRepo(db *sql.DB) *DiscrepancyRepo {
	return &DiscrepancyRepo{db: db}
}

// InsertForRun persists all report entries of a finished run.
func (r *DiscrepancyRepo) InsertForRun(runID string, entries []audit.ReportEntry) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO discrepancies
		(id, run_id, type, priority, issue, description, value, confidence,
		 evidence, recommendations, detected_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Format(time.RFC3339)
	inserted := 0
	for i := range entries {
		e := &entries[i]

		evidence, err := json.Marshal(e.Evidence)
		if err != nil {
			return inserted, fmt.Errorf("marshal evidence %d: %w", i, err)
		}
		recommendations, err := json.Marshal(e.Recommendations)
		if err != nil {
			return inserted, fmt.Errorf("marshal recommendations %d: %w", i, err)
		}

		if _, err := stmt.Exec(
			uuid.NewString(), runID, e.Type, e.Priority, e.Issue, e.Description,
			e.Value, e.Confidence, string(evidence), string(recommendations), now,
		); err != nil {
			return inserted, fmt.Errorf("insert %d: %w", i, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

type DiscrepancyFilter struct {
	RunID    string
	Type     string
	Priority string
	From     *time.Time
	To       *time.Time
	Page     int
	Limit    int
}

func (r *DiscrepancyRepo) List(f DiscrepancyFilter) ([]StoredDiscrepancy, int, error) {
	where, args := buildDiscrepancyWhere(f)

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM discrepancies"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	q := `SELECT id, run_id, type, priority, issue, description, value,
		confidence, evidence, recommendations, detected_at
		FROM discrepancies` + where + " ORDER BY detected_at DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, offset)

	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	discs, err := scanStoredDiscrepancies(rows)
	return discs, total, err
}

// GetByRunID returns all discrepancies persisted for one run.
func (r *DiscrepancyRepo) GetByRunID(runID string) ([]StoredDiscrepancy, error) {
	discs, _, err := r.List(DiscrepancyFilter{RunID: runID, Limit: 1000})
	return discs, err
}

type DiscrepancySummary struct {
	TotalCount  int            `json:"total_count"`
	TotalImpact float64        `json:"total_impact"`
	ByType      map[string]int `json:"by_type"`
	ByPriority  map[string]int `json:"by_priority"`
}

func (r *DiscrepancyRepo) GetSummary() (*DiscrepancySummary, error) {
	s := &DiscrepancySummary{
		ByType:     make(map[string]int),
		ByPriority: make(map[string]int),
	}

	if err := r.db.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(value),0) FROM discrepancies",
	).Scan(&s.TotalCount, &s.TotalImpact); err != nil {
		return nil, err
	}

	if err := scanGroupCount(r.db, "type", s.ByType); err != nil {
		return nil, err
	}
	if err := scanGroupCount(r.db, "priority", s.ByPriority); err != nil {
		return nil, err
	}

	return s, nil
}

// --- helpers ---

func buildDiscrepancyWhere(f DiscrepancyFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.RunID != "" {
		clauses = append(clauses, "run_id = ?")
		args = append(args, f.RunID)
	}
	if f.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, f.Type)
	}
	if f.Priority != "" {
		clauses = append(clauses, "priority = ?")
		args = append(args, f.Priority)
	}
	if f.From != nil {
		clauses = append(clauses, "detected_at >= ?")
		args = append(args, f.From.Format(time.RFC3339))
	}
	if f.To != nil {
		clauses = append(clauses, "detected_at <= ?")
		args = append(args, f.To.Format(time.RFC3339))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanGroupCount(db *sql.DB, col string, m map[string]int) error {
	rows, err := db.Query(
		"SELECT " + col + ", COUNT(*) FROM discrepancies GROUP BY " + col,
	)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var k string
		var v int
		if err := rows.Scan(&k, &v); err != nil {
			return err
		}
		m[k] = v
	}
	return rows.Err()
}

func scanStoredDiscrepancies(rows *sql.Rows) ([]StoredDiscrepancy, error) {
	var discs []StoredDiscrepancy
	for rows.Next() {
		var d StoredDiscrepancy
		var evidence, recommendations, detectedAt string

		err := rows.Scan(
			&d.ID, &d.RunID, &d.Type, &d.Priority, &d.Issue, &d.Description,
			&d.Value, &d.Confidence, &evidence, &recommendations, &detectedAt,
		)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal([]byte(evidence), &d.Evidence); err != nil {
			return nil, fmt.Errorf("unmarshal evidence: %w", err)
		}
		if err := json.Unmarshal([]byte(recommendations), &d.Recommendations); err != nil {
			return nil, fmt.Errorf("unmarshal recommendations: %w", err)
		}
		d.DetectedAt, _ = time.Parse(time.RFC3339, detectedAt)

		discs = append(discs, d)
	}
	return discs, rows.Err()
}
