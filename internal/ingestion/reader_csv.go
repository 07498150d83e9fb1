package ingestion

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/contractguard/auditor/internal/domain"
)

// ReadDelimited parses a delimited text export (CSV, TSV) into row maps
// keyed by the header row. Each row is tagged with its source file name.
func ReadDelimited(data []byte, delimiter rune, sourceName string) ([]domain.Row, error) {
	// Strip a UTF-8 BOM; several vendor export tools prepend one.
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []domain.Row
	lineNum := 1
	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		row := domain.Row{}
		for i, cell := range record {
			if i >= len(header) || header[i] == "" {
				continue
			}
			row[header[i]] = cell
		}
		row[domain.SourceFileKey] = sourceName
		rows = append(rows, row)
	}

	return rows, nil
}
