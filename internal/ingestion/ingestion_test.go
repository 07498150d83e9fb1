package ingestion

import (
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/contractguard/auditor/internal/domain"
)

func TestReadDelimitedCSV(t *testing.T) {
	data := []byte("InvoiceNumber,Invoice_Date,Item_Desc,Amount\n" +
		"INV-001,2025-01-01,Monthly subscription,100000\n" +
		"INV-002,2025-02-01,Setup fee,5000\n")

	rows, err := ReadDelimited(data, ',', "march.csv")
	if err != nil {
		t.Fatalf("ReadDelimited: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["Item_Desc"] != "Monthly subscription" {
		t.Errorf("unexpected description: %q", rows[0]["Item_Desc"])
	}
	if rows[1][domain.SourceFileKey] != "march.csv" {
		t.Errorf("missing source tag: %v", rows[1])
	}
}

func TestReadDelimitedBOMAndRaggedRows(t *testing.T) {
	data := []byte("\xef\xbb\xbfAmount,Description\n100,\n200,hosting,extra\n")

	rows, err := ReadDelimited(data, ',', "export.csv")
	if err != nil {
		t.Fatalf("ReadDelimited: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	// BOM must not corrupt the first header.
	if rows[0]["Amount"] != "100" {
		t.Errorf("BOM corrupted header: %v", rows[0])
	}
	// Cells beyond the header are dropped, not an error.
	if rows[1]["Description"] != "hosting" {
		t.Errorf("unexpected description: %v", rows[1])
	}
}

func TestReadDelimitedTSV(t *testing.T) {
	data := []byte("Amount\tDescription\n100\tplatform fee\n")

	rows, err := ReadDelimited(data, '\t', "export.tsv")
	if err != nil {
		t.Fatalf("ReadDelimited: %v", err)
	}
	if len(rows) != 1 || rows[0]["Description"] != "platform fee" {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestReadDelimitedEmpty(t *testing.T) {
	rows, err := ReadDelimited(nil, ',', "empty.csv")
	if err != nil {
		t.Fatalf("ReadDelimited: %v", err)
	}
	if rows != nil {
		t.Fatalf("expected no rows, got %v", rows)
	}
}

func TestReadWorkbook(t *testing.T) {
	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	cells := map[string]string{
		"A1": "Invoice", "B1": "Date", "C1": "Description", "D1": "Total",
		"A2": "INV-001", "B2": "2025-01-01", "C2": "Managed service", "D2": "100000",
	}
	for ref, v := range cells {
		if err := wb.SetCellValue(sheet, ref, v); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := wb.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	rows, err := ReadWorkbook(buf.Bytes(), "billing.xlsx")
	if err != nil {
		t.Fatalf("ReadWorkbook: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0]["Description"] != "Managed service" || rows[0]["Total"] != "100000" {
		t.Errorf("unexpected row: %v", rows[0])
	}
	if rows[0][domain.SourceFileKey] != "billing.xlsx" {
		t.Errorf("missing source tag: %v", rows[0])
	}
}

func TestLoadFileUnsupportedExtensionSkips(t *testing.T) {
	rows := LoadFile(File{Name: "contract.pdf", Data: []byte("%PDF-1.4")})
	if rows != nil {
		t.Fatalf("expected skip for unsupported file, got %v", rows)
	}
}

func TestLoadFileCorruptWorkbookSkips(t *testing.T) {
	rows := LoadFile(File{Name: "broken.xlsx", Data: []byte("not a zip")})
	if rows != nil {
		t.Fatalf("expected skip for corrupt workbook, got %v", rows)
	}
}

func TestLoadFilesMixedSources(t *testing.T) {
	csvFile := File{Name: "a.csv", Data: []byte("Amount\n100\n")}
	badFile := File{Name: "b.docx", Data: []byte("ignored")}

	rows := LoadFiles([]File{csvFile, badFile})
	if len(rows) != 1 {
		t.Fatalf("expected 1 row from the readable file, got %d", len(rows))
	}
}
