package domain

import "time"

// Classification is the nature of one billing line item.
type Classification string

const (
	ClassRecurring  Classification = "recurring"
	ClassOneTime    Classification = "one_time"
	ClassCredit     Classification = "credit"
	ClassAdjustment Classification = "adjustment"
	ClassUnknown    Classification = "unknown"
)

// SourceFileKey tags each ingested row with its originating file name so
// evidence can be traced back to the upload.
const SourceFileKey = "__source_file"

// Row is one raw billing row as read from a source file: the file's own
// column names mapped to cell values, plus the SourceFileKey tag.
type Row map[string]string

// InvoiceLineItem is a normalized, classified billing row.
type InvoiceLineItem struct {
	Description    string
	Amount         float64
	Rate           float64 // falls back to Amount when no explicit rate column exists
	InvoiceDate    *time.Time
	InvoiceNumber  string
	Classification Classification
	Confidence     float64
	Raw            Row
}

// IsOnOrAfter reports whether the item carries a parseable date on or after
// cutoff. Items with no parseable date never qualify.
func (i *InvoiceLineItem) IsOnOrAfter(cutoff time.Time) bool {
	return i.InvoiceDate != nil && !i.InvoiceDate.Before(cutoff)
}

// IsLikelyRecurring reports whether the item can be trusted as a recurring
// charge for audit purposes.
func (i *InvoiceLineItem) IsLikelyRecurring() bool {
	return i.Classification == ClassRecurring && i.Confidence > 0.7
}
