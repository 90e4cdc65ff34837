package export

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docs-extractor/constants"
	"github.com/joseph-ayodele/docs-extractor/internal/common"
	"github.com/joseph-ayodele/docs-extractor/internal/entity"
)

// Lister reads stored rows of one document type.
type Lister interface {
	List(ctx context.Context, docType constants.DocumentType) ([]*entity.StoredDocument, error)
}

// Service produces XLSX bytes for exports.
type Service struct {
	docs   Lister
	logger *slog.Logger
}

func NewService(docs Lister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, logger: logger}
}

var headers = []string{
	"ID",
	"Vendor",
	"Date",
	"Amount",
	"Total Amount",
	"Items",
	"Date Defaulted",
	"File Path",
	"Created At",
}

// SheetName is the worksheet holding rows of docType.
func SheetName(docType constants.DocumentType) string {
	switch docType {
	case constants.Invoice:
		return "Invoices"
	case constants.Receipt:
		return "Receipts"
	default:
		return docType.String()
	}
}

// ExportXLSX returns a workbook with one sheet per document type.
func (s *Service) ExportXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	counts := make(map[constants.DocumentType]int, len(constants.DocumentTypes))
	for i, docType := range constants.DocumentTypes {
		docs, err := s.docs.List(ctx, docType)
		if err != nil {
			return nil, common.WrapError(err, "list "+docType.String())
		}
		sheet := SheetName(docType)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
		if err := writeSheet(f, sheet, docs); err != nil {
			return nil, fmt.Errorf("write sheet %s: %w", sheet, err)
		}
		counts[docType] = len(docs)
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"invoices", counts[constants.Invoice],
		"receipts", counts[constants.Receipt],
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, docs []*entity.StoredDocument) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for i, d := range docs {
		filePath := ""
		if d.FilePath != nil {
			filePath = *d.FilePath
		}
		values := []any{
			d.ID,
			d.VendorName,
			d.Date.Format("2006-01-02"),
			d.Amount,
			d.TotalAmount,
			truncate(items(d.Products), 140),
			strconv.FormatBool(d.DateDefaulted),
			filePath,
			d.CreatedAt.Format(time.RFC3339),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 8)  // id
	_ = f.SetColWidth(sheet, "B", "B", 28) // vendor
	_ = f.SetColWidth(sheet, "C", "C", 12) // date
	_ = f.SetColWidth(sheet, "D", "E", 14) // amounts
	_ = f.SetColWidth(sheet, "F", "F", 48) // items
	_ = f.SetColWidth(sheet, "H", "H", 60) // path
	_ = f.SetColWidth(sheet, "I", "I", 22) // created
	return nil
}

// items renders products as "Widget x2; Bolt".
func items(products []entity.LineItem) string {
	parts := make([]string, 0, len(products))
	for _, p := range products {
		s := p.Name
		if p.Quantity != 1 {
			s += " x" + strconv.FormatFloat(p.Quantity, 'f', -1, 64)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "; ")
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
