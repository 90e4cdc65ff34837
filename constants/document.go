package constants

import "strings"

// DocumentType is the label that selects an extractor and a storage table.
type DocumentType string

const (
	Invoice DocumentType = "invoice"
	Receipt DocumentType = "receipt"
)

// DocumentTypes lists the supported labels in display order.
var DocumentTypes = []DocumentType{Invoice, Receipt}

// ParseDocumentType matches a label case-insensitively after trimming whitespace.
func ParseDocumentType(label string) (DocumentType, bool) {
	switch DocumentType(strings.ToLower(strings.TrimSpace(label))) {
	case Invoice:
		return Invoice, true
	case Receipt:
		return Receipt, true
	default:
		return "", false
	}
}

func (d DocumentType) String() string { return string(d) }

// Table returns the storage table for the document type.
func (d DocumentType) Table() (string, bool) {
	switch d {
	case Invoice:
		return "invoices", true
	case Receipt:
		return "receipts", true
	default:
		return "", false
	}
}
