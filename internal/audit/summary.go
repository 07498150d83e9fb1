package audit

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/contractguard/auditor/internal/domain"
	"github.com/contractguard/auditor/internal/normalize"
)

// CustomerSummary totals billing per customer.
type CustomerSummary struct {
	Customer     string  `json:"customer"`
	Total        float64 `json:"total"`
	InvoiceCount int     `json:"invoice_count"`
	AvgInvoice   float64 `json:"avg_invoice"`
}

// BillingSummary describes the billing data an audit covered.
type BillingSummary struct {
	TotalBilled    float64           `json:"total_billed"`
	InvoiceCount   int               `json:"invoice_count"`
	AvgInvoice     float64           `json:"avg_invoice"`
	LargestInvoice float64           `json:"largest_invoice"`
	Customers      []CustomerSummary `json:"customers"`
	Sources        []string          `json:"sources"`
}

// Summarize computes billing statistics over the raw rows. Zero-amount rows
// are excluded from the totals.
func Summarize(rows []domain.Row, aliases normalize.AliasTable) BillingSummary {
	var amounts []float64
	customerAmounts := map[string][]float64{}
	sourceSet := map[string]bool{}

	for _, row := range rows {
		if src := row[domain.SourceFileKey]; src != "" {
			sourceSet[src] = true
		}

		raw, _ := normalize.Resolve(row, aliases, normalize.FieldAmount)
		amount := normalize.ToAmount(raw)
		if amount == 0.0 {
			continue
		}
		amounts = append(amounts, amount)

		customer := "Unspecified"
		if c, ok := normalize.Resolve(row, aliases, normalize.FieldCustomer); ok && strings.TrimSpace(c) != "" {
			customer = strings.TrimSpace(c)
		}
		customerAmounts[customer] = append(customerAmounts[customer], amount)
	}

	summary := BillingSummary{InvoiceCount: len(amounts)}

	var total float64
	for _, a := range amounts {
		total += a
		if a > summary.LargestInvoice {
			summary.LargestInvoice = a
		}
	}
	summary.TotalBilled = round2(total)
	if len(amounts) > 0 {
		summary.AvgInvoice = round2(total / float64(len(amounts)))
	}

	for customer, vals := range customerAmounts {
		var sum float64
		for _, v := range vals {
			sum += v
		}
		summary.Customers = append(summary.Customers, CustomerSummary{
			Customer:     customer,
			Total:        round2(sum),
			InvoiceCount: len(vals),
			AvgInvoice:   round2(sum / float64(len(vals))),
		})
	}
	sort.Slice(summary.Customers, func(i, j int) bool {
		return summary.Customers[i].Total > summary.Customers[j].Total
	})

	for src := range sourceSet {
		summary.Sources = append(summary.Sources, src)
	}
	sort.Strings(summary.Sources)

	return summary
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
