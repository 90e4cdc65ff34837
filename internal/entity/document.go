package entity

import (
	"time"

	"github.com/joseph-ayodele/docs-extractor/constants"
)

// LineItem is one product line of a document. Its identity is its position in the parent list.
type LineItem struct {
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
}

// ExtractedRecord is what a type-specific extractor hands on. Amount,
// TotalAmount and Date hold the model's values untouched (number, string or
// nil); normalization decides what they mean.
type ExtractedRecord struct {
	VendorName   *string
	Amount       any
	Products     []LineItem
	TotalAmount  any
	Date         any
	DocumentType constants.DocumentType
}

// DocumentFields are the validated values written to storage. Nil pointers
// reach the database as NULL.
type DocumentFields struct {
	DocumentType  constants.DocumentType
	VendorName    *string
	Amount        *float64
	TotalAmount   *float64
	Products      []LineItem
	ProductsJSON  []byte
	Date          time.Time
	DateDefaulted bool
}

// StoredDocument is a persisted invoice or receipt row.
type StoredDocument struct {
	ID            int64                  `json:"id"`
	DocumentType  constants.DocumentType `json:"document_type"`
	VendorName    string                 `json:"vendor_name"`
	Amount        float64                `json:"amount"`
	Products      []LineItem             `json:"products"`
	TotalAmount   float64                `json:"total_amount"`
	Date          time.Time              `json:"date"`
	DateDefaulted bool                   `json:"date_defaulted"`
	CreatedAt     time.Time              `json:"created_at"`
	FilePath      *string                `json:"file_path,omitempty"`
}
