package ingestion

import (
	"bytes"
	"fmt"
	"log"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/contractguard/auditor/internal/domain"
)

// ReadWorkbook parses the active sheet of an xlsx workbook into row maps
// keyed by the header row. Cell values arrive already formatted as strings,
// so dates and times are format-uniform with the delimited readers.
func ReadWorkbook(data []byte, sourceName string) ([]domain.Row, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		if err := wb.Close(); err != nil {
			log.Printf("[ingestion] WARNING: close workbook %s: %v", sourceName, err)
		}
	}()

	sheetName := wb.GetSheetName(0)
	raw, err := wb.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheetName, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	header := make([]string, len(raw[0]))
	for i, cell := range raw[0] {
		name := strings.TrimSpace(cell)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		header[i] = name
	}

	var rows []domain.Row
	for _, record := range raw[1:] {
		row := domain.Row{}
		for i, cell := range record {
			if i >= len(header) {
				break
			}
			row[header[i]] = cell
		}
		row[domain.SourceFileKey] = sourceName
		rows = append(rows, row)
	}

	return rows, nil
}
