package classify

import (
	"context"
	"time"

	"github.com/contractguard/auditor/internal/domain"
)

// Decision is one classification outcome: label, confidence, and a short
// rationale for the audit trail.
type Decision struct {
	Classification domain.Classification
	Confidence     float64
	Reasoning      string
}

// Validation is the oracle's judgement on a flagged discrepancy.
type Validation struct {
	IsValidError bool
	Confidence   float64
	Reason       string
	Action       string // dispute | approve | investigate | review
}

// ClassifyRequest describes one ambiguous line item for the oracle.
type ClassifyRequest struct {
	Description      string
	Amount           float64
	InvoiceDate      *time.Time
	ContractKeywords []string
}

// ValidateRequest asks the oracle whether a flagged item is a real billing
// error or legitimate variance.
type ValidateRequest struct {
	Item            domain.InvoiceLineItem
	ExpectedRate    float64
	ContractContext string
}

// Oracle is the external decision capability consulted only for ambiguous
// cases. Implementations may be slow or fail; callers degrade per item.
type Oracle interface {
	Classify(ctx context.Context, req ClassifyRequest) (Decision, error)
	Validate(ctx context.Context, req ValidateRequest) (Validation, error)
}

// Unavailable is the oracle used when no live capability is configured. Its
// answers are deterministic and conservative so the engine stays fully
// functional (and testable) without an external dependency.
type Unavailable struct{}

func (Unavailable) Classify(_ context.Context, req ClassifyRequest) (Decision, error) {
	if req.Amount > 50000 {
		return Decision{
			Classification: domain.ClassRecurring,
			Confidence:     0.6,
			Reasoning:      "large amount suggests recurring (fallback)",
		}, nil
	}
	return Decision{
		Classification: domain.ClassUnknown,
		Confidence:     0.4,
		Reasoning:      "unable to classify (oracle unavailable)",
	}, nil
}

func (Unavailable) Validate(_ context.Context, _ ValidateRequest) (Validation, error) {
	// Without an oracle every candidate stays flagged for human review.
	return Validation{
		IsValidError: true,
		Confidence:   0.7,
		Reason:       "oracle unavailable",
		Action:       "review",
	}, nil
}
