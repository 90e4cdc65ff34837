// Package normalize turns an extracted record into the validated fields the
// storage layer writes.
package normalize

import (
	"strings"
	"time"

	"github.com/joseph-ayodele/docs-extractor/internal/common"
	"github.com/joseph-ayodele/docs-extractor/internal/entity"
)

// Normalize coerces the record's date and amounts and serializes its products.
// A missing or unparseable date becomes now with DateDefaulted set. Missing
// vendor or amounts are left nil so the storage constraints reject them.
func Normalize(rec entity.ExtractedRecord, now time.Time) (entity.DocumentFields, error) {
	fields := entity.DocumentFields{
		DocumentType: rec.DocumentType,
		Amount:       Amount(rec.Amount),
		TotalAmount:  Amount(rec.TotalAmount),
		Products:     rec.Products,
	}
	if rec.VendorName != nil {
		v := strings.TrimSpace(*rec.VendorName)
		fields.VendorName = &v
	}
	if fields.Products == nil {
		fields.Products = []entity.LineItem{}
	}

	b, err := ProductsJSON(fields.Products)
	if err != nil {
		return entity.DocumentFields{}, common.NewAppError(common.CodeValidation, "serialize products", err)
	}
	fields.ProductsJSON = b

	if ts, ok := Date(rec.Date); ok {
		fields.Date = ts
	} else {
		fields.Date = now.UTC()
		fields.DateDefaulted = true
	}
	return fields, nil
}
