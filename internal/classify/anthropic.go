package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/contractguard/auditor/internal/domain"
)

// DefaultModel is used when ORACLE_MODEL is not set.
const DefaultModel = "claude-3-5-haiku-latest"

// AnthropicOracle answers classification and validation questions with a
// Claude model returning strict JSON.
type AnthropicOracle struct {
	client anthropic.Client
	model  string
}

// NewAnthropic builds a live oracle. An empty model selects DefaultModel.
func NewAnthropic(apiKey, model string) *AnthropicOracle {
	if model == "" {
		model = DefaultModel
	}
	return &AnthropicOracle{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

const classifySystem = "You are a billing expert. Classify invoice line items accurately. Respond with JSON only (no markdown)."

const validateSystem = "You are a billing auditor. Flag REAL errors, approve legitimate variations. Respond with JSON only (no markdown)."

func (o *AnthropicOracle) Classify(ctx context.Context, req ClassifyRequest) (Decision, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Classify this invoice line: RECURRING, ONE_TIME, CREDIT, or ADJUSTMENT?\n\n")
	fmt.Fprintf(&b, "Description: %s\nAmount: %.2f\n", req.Description, req.Amount)
	if req.InvoiceDate != nil {
		fmt.Fprintf(&b, "Date: %s\n", req.InvoiceDate.Format("2006-01-02"))
	}
	if len(req.ContractKeywords) > 0 {
		kw := req.ContractKeywords
		if len(kw) > 5 {
			kw = kw[:5]
		}
		fmt.Fprintf(&b, "Contract services: %s\n", strings.Join(kw, ", "))
	}
	b.WriteString(`
RECURRING = monthly/annual subscription, platform fee, managed service, license
ONE_TIME = setup, implementation, training, consulting, migration
ADJUSTMENT = pro-rata, partial month, correction
CREDIT = refund or service credit

JSON only: {"classification": "RECURRING|ONE_TIME|ADJUSTMENT|CREDIT", "confidence": 0.0-1.0, "reasoning": "..."}`)

	text, err := o.complete(ctx, classifySystem, b.String())
	if err != nil {
		return Decision{}, err
	}

	var payload struct {
		Classification string  `json:"classification"`
		Confidence     float64 `json:"confidence"`
		Reasoning      string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(stripFences(text)), &payload); err != nil {
		return Decision{}, fmt.Errorf("parse classify response: %w (response: %s)", err, text)
	}

	return Decision{
		Classification: mapClassification(payload.Classification),
		Confidence:     clamp01(payload.Confidence),
		Reasoning:      payload.Reasoning,
	}, nil
}

func (o *AnthropicOracle) Validate(ctx context.Context, req ValidateRequest) (Validation, error) {
	item := req.Item
	difference := req.ExpectedRate - item.Rate
	pctDiff := 0.0
	if req.ExpectedRate > 0 {
		pctDiff = difference / req.ExpectedRate * 100
	}
	dateText := "unknown"
	if item.InvoiceDate != nil {
		dateText = item.InvoiceDate.Format("2006-01-02")
	}

	prompt := fmt.Sprintf(`You are auditing a billing discrepancy. Determine if this is a REAL ERROR or FALSE POSITIVE.

INVOICE LINE:
- Date: %s
- Description: %s
- Amount Charged: %.2f
- Amount Expected: %.2f
- Difference: %.2f (%.1f%%)

CONTRACT TERMS:
%s

CRITICAL CONTEXT:
The contract states that escalation takes effect ON the effective date (not after).
An invoice dated on or after the effective date MUST use the escalated rate.

ANALYSIS:
Could this difference be explained by:
1. Pro-rata (partial period service)?
2. Service credit applied?
3. Volume discount?
4. Data entry error (wrong rate applied)?
5. Legitimate one-time adjustment?

If the invoice is dated ON or AFTER the escalation effective date AND shows the old rate with NO indication of pro-rata/adjustment, this is a REAL ERROR.

Respond with ONLY valid JSON:
{"is_valid_error": true|false, "confidence": 0.0-1.0, "reason": "brief explanation", "action": "dispute|approve|investigate"}`,
		dateText, item.Description, item.Rate, req.ExpectedRate, difference, pctDiff, req.ContractContext)

	text, err := o.complete(ctx, validateSystem, prompt)
	if err != nil {
		return Validation{}, err
	}

	var payload struct {
		IsValidError bool    `json:"is_valid_error"`
		Confidence   float64 `json:"confidence"`
		Reason       string  `json:"reason"`
		Action       string  `json:"action"`
	}
	if err := json.Unmarshal([]byte(stripFences(text)), &payload); err != nil {
		return Validation{}, fmt.Errorf("parse validate response: %w (response: %s)", err, text)
	}

	action := payload.Action
	if action == "" {
		action = "investigate"
	}
	return Validation{
		IsValidError: payload.IsValidError,
		Confidence:   clamp01(payload.Confidence),
		Reason:       payload.Reason,
		Action:       action,
	}, nil
}

func (o *AnthropicOracle) complete(ctx context.Context, system, user string) (string, error) {
	message, err := o.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(o.model),
		MaxTokens: 300,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in response")
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func mapClassification(s string) domain.Classification {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RECURRING":
		return domain.ClassRecurring
	case "ONE_TIME":
		return domain.ClassOneTime
	case "CREDIT":
		return domain.ClassCredit
	case "ADJUSTMENT":
		return domain.ClassAdjustment
	default:
		return domain.ClassUnknown
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
