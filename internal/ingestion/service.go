package ingestion

import (
	"log"
	"path/filepath"
	"strings"

	"github.com/contractguard/auditor/internal/domain"
)

// File is one uploaded billing export.
type File struct {
	Name string
	Data []byte
}

// LoadFile reads a single billing export into row maps based on its
// extension. Unsupported or unreadable files yield no rows and a warning;
// they never fail a run.
func LoadFile(f File) []domain.Row {
	var rows []domain.Row
	var err error

	switch strings.ToLower(filepath.Ext(f.Name)) {
	case ".csv":
		rows, err = ReadDelimited(f.Data, ',', f.Name)
	case ".tsv":
		rows, err = ReadDelimited(f.Data, '\t', f.Name)
	case ".xlsx", ".xlsm":
		rows, err = ReadWorkbook(f.Data, f.Name)
	default:
		log.Printf("[ingestion] WARNING: no reader for %s, skipping", f.Name)
		return nil
	}

	if err != nil {
		log.Printf("[ingestion] WARNING: failed to read %s, skipping: %v", f.Name, err)
		return nil
	}
	return rows
}

// LoadFiles reads all billing exports for a run. Individual file failures
// degrade to skips so the remaining sources still process.
func LoadFiles(files []File) []domain.Row {
	var rows []domain.Row
	for _, f := range files {
		rows = append(rows, LoadFile(f)...)
	}
	log.Printf("[ingestion] Loaded %d billing rows from %d file(s)", len(rows), len(files))
	return rows
}
