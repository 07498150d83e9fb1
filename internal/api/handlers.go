package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/contractguard/auditor/internal/audit"
	"github.com/contractguard/auditor/internal/contract"
	"github.com/contractguard/auditor/internal/ingestion"
	"github.com/contractguard/auditor/internal/repository"

	"github.com/go-chi/chi/v5"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	auditSvc *audit.Service
	runRepo  *repository.RunRepo
	discRepo *repository.DiscrepancyRepo
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return nil
		}
	}
	return &t
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

// --- RunAudit ---

// RunAudit accepts a multipart form with billing export files under "files",
// a contract rules payload under "rules", and optional clause-bearing
// documents under "documents". It runs the engine and returns the report.
func (h *Handlers) RunAudit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	rulesJSON := r.FormValue("rules")
	if rulesJSON == "" {
		writeError(w, http.StatusBadRequest, "rules payload is required")
		return
	}
	var payload contract.RulesPayload
	if err := json.Unmarshal([]byte(rulesJSON), &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid rules payload: "+err.Error())
		return
	}

	var docs []contract.Document
	if docsJSON := r.FormValue("documents"); docsJSON != "" {
		if err := json.Unmarshal([]byte(docsJSON), &docs); err != nil {
			writeError(w, http.StatusBadRequest, "invalid documents payload: "+err.Error())
			return
		}
	}

	var files []ingestion.File
	for _, headers := range r.MultipartForm.File {
		for _, header := range headers {
			f, err := header.Open()
			if err != nil {
				log.Printf("[api] WARNING: open upload %s: %v", header.Filename, err)
				continue
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				log.Printf("[api] WARNING: read upload %s: %v", header.Filename, err)
				continue
			}
			files = append(files, ingestion.File{Name: header.Filename, Data: data})
		}
	}

	rows := ingestion.LoadFiles(files)
	rules := contract.Resolve(payload)

	report := h.auditSvc.Run(r.Context(), rows, rules, docs)

	// Persistence failures degrade to warnings; the caller still gets the
	// report it paid for.
	if err := h.runRepo.Insert(repository.RunFromReport(report)); err != nil {
		log.Printf("[api] WARNING: persist run %s: %v", report.RunID, err)
	} else if _, err := h.discRepo.InsertForRun(report.RunID, report.Discrepancies); err != nil {
		log.Printf("[api] WARNING: persist discrepancies for %s: %v", report.RunID, err)
	}

	writeJSON(w, http.StatusOK, report)
}

// --- ListRuns ---

func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	page := parseIntDefault(r.URL.Query().Get("page"), 1)
	limit := parseIntDefault(r.URL.Query().Get("limit"), 50)

	runs, total, err := h.runRepo.List(page, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// --- GetRun ---

func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.runRepo.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "audit run not found")
		return
	}

	discs, err := h.discRepo.GetByRunID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"run":           run,
		"discrepancies": discs,
	})
}

// --- ListDiscrepancies ---

func (h *Handlers) ListDiscrepancies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.DiscrepancyFilter{
		RunID:    q.Get("run_id"),
		Type:     q.Get("type"),
		Priority: q.Get("priority"),
		From:     parseTime(q.Get("from")),
		To:       parseTime(q.Get("to")),
		Page:     parseIntDefault(q.Get("page"), 1),
		Limit:    parseIntDefault(q.Get("limit"), 50),
	}

	discs, total, err := h.discRepo.List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"discrepancies": discs,
		"total":         total,
		"page":          filter.Page,
		"limit":         filter.Limit,
	})
}

// --- GetDiscrepancySummary ---

func (h *Handlers) GetDiscrepancySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.discRepo.GetSummary()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// --- GetDashboard ---

func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	runCount, err := h.runRepo.Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	totalRecoverable, err := h.runRepo.TotalRecoverable()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	summary, err := h.discRepo.GetSummary()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	recent, _, err := h.runRepo.List(1, 5)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_runs":          runCount,
		"total_recoverable":   totalRecoverable,
		"discrepancy_summary": summary,
		"recent_runs":         recent,
	})
}
