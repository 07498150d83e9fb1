// Command generate writes sample billing exports for manual audit runs:
// a CSV and an XLSX covering the same vendor account, including rows that
// should and should not trigger findings.
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

type billingRow struct {
	invoiceNumber string
	invoiceDate   string
	customer      string
	description   string
	amount        string
	rate          string
}

func main() {
	baseDir := findTestdataDir()

	// Contract: base 100000, 5% escalation effective 2025-01-01.
	rows := []billingRow{
		// Pre-escalation months at the old rate: legitimate.
		{"INV-2024-011", "2024-11-01", "Acme Corp", "Cloud Infrastructure Management - Monthly Service", "100000", "100000"},
		{"INV-2024-012", "2024-12-01", "Acme Corp", "Cloud Infrastructure Management - Monthly Service", "100000", "100000"},
		// Post-escalation months still at the old rate: missed escalation.
		{"INV-2025-001", "2025-01-01", "Acme Corp", "Cloud Infrastructure Management - Monthly Service", "100000", "100000"},
		{"INV-2025-002", "2025-02-01", "Acme Corp", "Cloud Infrastructure Management - Monthly Service", "100000", "100000"},
		// Pro-rata partial month: must not be flagged.
		{"INV-2025-003", "2025-03-01", "Acme Corp", "Platform fee - partial month (15 days)", "52500", "52500"},
		// One-time work.
		{"INV-2025-004", "2025-03-10", "Acme Corp", "Data migration workshop", "18000", "18000"},
		// Downtime reference with no matching credit line.
		{"INV-2025-005", "2025-03-15", "Acme Corp", "Incident response - service outage remediation", "4500", "4500"},
		// Ambiguous description left for the oracle.
		{"INV-2025-006", "2025-03-20", "Acme Corp", "Q1 engineering retainer", "60000", "60000"},
	}

	if err := writeCSV(filepath.Join(baseDir, "billing_sample.csv"), rows); err != nil {
		fmt.Fprintf(os.Stderr, "write csv: %v\n", err)
		os.Exit(1)
	}
	if err := writeXLSX(filepath.Join(baseDir, "billing_sample.xlsx"), rows); err != nil {
		fmt.Fprintf(os.Stderr, "write xlsx: %v\n", err)
		os.Exit(1)
	}
	if err := writeRules(filepath.Join(baseDir, "rules_sample.json")); err != nil {
		fmt.Fprintf(os.Stderr, "write rules: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote billing_sample.csv, billing_sample.xlsx, rules_sample.json to %s\n", baseDir)
}

func writeCSV(path string, rows []billingRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"InvoiceNumber", "Invoice_Date", "Customer", "Item_Desc", "Amount", "Rate"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{r.invoiceNumber, r.invoiceDate, r.customer, r.description, r.amount, r.rate}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeXLSX(path string, rows []billingRow) error {
	wb := excelize.NewFile()
	defer wb.Close()

	sheet := wb.GetSheetName(0)
	// Different header aliases than the CSV, on purpose: both must normalize
	// to the same canonical fields.
	header := []string{"Invoice", "Date", "Client", "Description", "Total", "Unit Price"}
	for col, name := range header {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := wb.SetCellValue(sheet, cell, name); err != nil {
			return err
		}
	}
	for i, r := range rows {
		values := []string{r.invoiceNumber, r.invoiceDate, r.customer, r.description, r.amount, r.rate}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := wb.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return wb.SaveAs(path)
}

func writeRules(path string) error {
	rules := map[string]any{
		"base_amount":          100000,
		"escalation_rate":      0.05,
		"effective_start_date": "2025-01-01",
		"currency":             "USD",
		"invoice_keywords":     []string{"cloud infrastructure", "platform"},
		"exclusion_keywords":   []string{"tax"},
		"sla_uptime":           99.9,
		"service_credit_rate":  0.05,
	}
	data, err := json.MarshalIndent(rules, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func findTestdataDir() string {
	candidates := []string{"testdata", filepath.Join("..", "..", "testdata"), "."}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c
		}
	}
	return "."
}
