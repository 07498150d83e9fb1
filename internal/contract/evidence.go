package contract

import "github.com/contractguard/auditor/internal/domain"

// Document is one analysed contract with its extracted clauses, as produced
// by upstream extraction.
type Document struct {
	Filename string   `json:"filename"`
	Clauses  []Clause `json:"clauses"`
}

// Clause is one labelled span of contract text.
type Clause struct {
	Label      string  `json:"label"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Page       *int    `json:"page,omitempty"`
}

// ClauseReferences collects up to limit clause references matching label,
// for use as discrepancy evidence.
func ClauseReferences(docs []Document, label string, limit int) []domain.ClauseReference {
	var refs []domain.ClauseReference
	for _, doc := range docs {
		for _, clause := range doc.Clauses {
			if clause.Label != label {
				continue
			}
			refs = append(refs, domain.ClauseReference{
				Label:      label,
				Text:       clause.Text,
				File:       doc.Filename,
				Confidence: clause.Confidence,
				Page:       clause.Page,
			})
			if len(refs) >= limit {
				return refs
			}
		}
	}
	return refs
}
