package classify

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/contractguard/auditor/internal/domain"
)

// Keyword sets for the deterministic pass. Curated against real vendor
// invoices; matching is case-insensitive substring.
var (
	oneTimeKeywords = []string{
		"implementation", "setup", "onboarding", "installation", "migration",
		"training", "workshop", "initial", "one-time", "wrap-up", "kickoff",
		"consulting", "professional services", "project", "data migration",
	}
	recurringKeywords = []string{
		"monthly subscription", "annual subscription", "monthly fee", "annual fee",
		"saas", "platform", "recurring", "monthly service", "license",
		"cloud infrastructure management", "managed service", "hosting",
	}
	adjustmentKeywords = []string{
		"adjustment", "correction", "pro-rata", "prorata", "partial month",
	}
)

// cacheSize caps one run's memoized decisions. Effectively unbounded for
// realistic inputs while keeping a hard memory limit.
const cacheSize = 4096

// RunCache memoizes decisions by (description, amount) signature for the
// lifetime of a single audit run. A fresh cache is created per run; state
// must never leak across jobs or customers.
type RunCache struct {
	decisions *lru.Cache[string, Decision]
	flight    singleflight.Group
}

// NewRunCache builds an empty run-scoped cache.
func NewRunCache() *RunCache {
	decisions, _ := lru.New[string, Decision](cacheSize)
	return &RunCache{decisions: decisions}
}

func cacheKey(description string, amount float64) string {
	return strings.ToLower(strings.TrimSpace(description)) + "_" +
		strconv.FormatFloat(amount, 'f', -1, 64)
}

// Item is a normalized billing row awaiting classification.
type Item struct {
	Description   string
	Amount        float64
	Rate          float64
	InvoiceDate   *time.Time
	InvoiceNumber string
	Raw           domain.Row
}

// Classifier turns normalized rows into classified line items using a fast
// deterministic pass with an oracle fallback for ambiguous descriptions.
type Classifier struct {
	oracle      Oracle
	concurrency int
}

// New builds a classifier around the given oracle. concurrency bounds the
// number of in-flight oracle calls during batch classification.
func New(oracle Oracle, concurrency int) *Classifier {
	if oracle == nil {
		oracle = Unavailable{}
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Classifier{oracle: oracle, concurrency: concurrency}
}

// deterministic handles the obvious cases without any external call.
func deterministic(description string, amount float64) Decision {
	desc := strings.ToLower(description)

	if amount < 0 {
		return Decision{domain.ClassCredit, 0.99, "negative amount indicates credit/refund"}
	}
	for _, kw := range oneTimeKeywords {
		if strings.Contains(desc, kw) {
			return Decision{domain.ClassOneTime, 0.95, "matched one-time keyword: " + kw}
		}
	}
	for _, kw := range recurringKeywords {
		if strings.Contains(desc, kw) {
			return Decision{domain.ClassRecurring, 0.95, "matched recurring keyword: " + kw}
		}
	}
	for _, kw := range adjustmentKeywords {
		if strings.Contains(desc, kw) {
			return Decision{domain.ClassAdjustment, 0.90, "matched adjustment keyword: " + kw}
		}
	}

	return Decision{domain.ClassUnknown, 0.3, "ambiguous description"}
}

// ClassifyOne classifies a single line item, memoizing by signature. Oracle
// failures degrade to a conservative unknown; they never propagate.
func (c *Classifier) ClassifyOne(ctx context.Context, cache *RunCache, item Item, contractKeywords []string) Decision {
	key := cacheKey(item.Description, item.Amount)
	if d, ok := cache.decisions.Get(key); ok {
		return d
	}

	if d := deterministic(item.Description, item.Amount); d.Classification != domain.ClassUnknown {
		cache.decisions.Add(key, d)
		return d
	}

	// Collapse concurrent misses on the same signature so a batch asks the
	// oracle at most once per distinct (description, amount) pair.
	v, _, _ := cache.flight.Do(key, func() (any, error) {
		if d, ok := cache.decisions.Get(key); ok {
			return d, nil
		}

		d, err := c.oracle.Classify(ctx, ClassifyRequest{
			Description:      item.Description,
			Amount:           item.Amount,
			InvoiceDate:      item.InvoiceDate,
			ContractKeywords: contractKeywords,
		})
		if err != nil {
			log.Printf("[classify] WARNING: oracle classify failed for %q: %v", truncate(item.Description, 40), err)
			d = Decision{domain.ClassUnknown, 0.4, "classification failed: " + err.Error()}
		}

		cache.decisions.Add(key, d)
		return d, nil
	})
	return v.(Decision)
}

// ClassifyBatch classifies all items, fanning ambiguous ones out to the
// oracle with bounded parallelism. Results keep positional correspondence
// with the input.
func (c *Classifier) ClassifyBatch(ctx context.Context, cache *RunCache, items []Item, contractKeywords []string) []domain.InvoiceLineItem {
	decisions := make([]Decision, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i := range items {
		i := i
		g.Go(func() error {
			decisions[i] = c.ClassifyOne(gctx, cache, items[i], contractKeywords)
			return nil
		})
	}
	// Workers never return errors; failures degrade per item.
	_ = g.Wait()

	out := make([]domain.InvoiceLineItem, len(items))
	for i, item := range items {
		out[i] = domain.InvoiceLineItem{
			Description:    item.Description,
			Amount:         item.Amount,
			Rate:           item.Rate,
			InvoiceDate:    item.InvoiceDate,
			InvoiceNumber:  item.InvoiceNumber,
			Classification: decisions[i].Classification,
			Confidence:     decisions[i].Confidence,
			Raw:            item.Raw,
		}
	}

	logSummary(out)
	return out
}

// ValidateDiscrepancy applies the cheap auto-approvals before consulting the
// oracle about a flagged item. Oracle failure degrades to "flag for review".
func (c *Classifier) ValidateDiscrepancy(ctx context.Context, item domain.InvoiceLineItem, expectedRate float64, contractContext string, roundingTolerance float64) Validation {
	difference := expectedRate - item.Rate

	if difference < roundingTolerance && difference > -roundingTolerance {
		return Validation{false, 0.95, "rounding difference within tolerance", "approve"}
	}
	if item.Classification == domain.ClassAdjustment {
		return Validation{false, 0.90, "legitimate adjustment (pro-rata or partial)", "approve"}
	}

	v, err := c.oracle.Validate(ctx, ValidateRequest{
		Item:            item,
		ExpectedRate:    expectedRate,
		ContractContext: contractContext,
	})
	if err != nil {
		log.Printf("[classify] WARNING: oracle validate failed for %q: %v", truncate(item.Description, 40), err)
		return Validation{true, 0.5, "validation failed: " + err.Error(), "review"}
	}
	return v
}

func logSummary(items []domain.InvoiceLineItem) {
	counts := map[domain.Classification]int{}
	for i := range items {
		counts[items[i].Classification]++
	}
	log.Printf("[classify] Classification: %d recurring, %d one-time, %d credits, %d adjustments, %d unknown",
		counts[domain.ClassRecurring], counts[domain.ClassOneTime],
		counts[domain.ClassCredit], counts[domain.ClassAdjustment], counts[domain.ClassUnknown])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
