// Package extract turns document text into an extracted record, one
// extractor per document type, behind a router keyed on the type label.
package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/docs-extractor/constants"
	"github.com/joseph-ayodele/docs-extractor/internal/common"
	"github.com/joseph-ayodele/docs-extractor/internal/entity"
	"github.com/joseph-ayodele/docs-extractor/internal/llm"
	"github.com/joseph-ayodele/docs-extractor/internal/normalize"
)

// Extractor reads one kind of document.
type Extractor interface {
	DocumentType() constants.DocumentType
	Extract(ctx context.Context, text string) (entity.ExtractedRecord, error)
}

type Options struct {
	// MaxPromptTokens caps the document text sent to the model; 0 disables truncation.
	MaxPromptTokens int
	// Encoding is the tiktoken encoding used for the cap (default cl100k_base).
	Encoding string
}

// LLMExtractor asks a completion service for the document fields.
type LLMExtractor struct {
	docType   constants.DocumentType
	completer llm.Completer
	opts      Options
	logger    *slog.Logger
}

func NewLLMExtractor(docType constants.DocumentType, completer llm.Completer, opts Options, logger *slog.Logger) *LLMExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMExtractor{docType: docType, completer: completer, opts: opts, logger: logger}
}

func NewInvoiceExtractor(completer llm.Completer, opts Options, logger *slog.Logger) *LLMExtractor {
	return NewLLMExtractor(constants.Invoice, completer, opts, logger)
}

func NewReceiptExtractor(completer llm.Completer, opts Options, logger *slog.Logger) *LLMExtractor {
	return NewLLMExtractor(constants.Receipt, completer, opts, logger)
}

func (e *LLMExtractor) DocumentType() constants.DocumentType { return e.docType }

// Extract makes exactly one model call. The returned record always carries
// this extractor's document type, whatever the model said.
func (e *LLMExtractor) Extract(ctx context.Context, text string) (entity.ExtractedRecord, error) {
	start := time.Now()
	runID := common.RunIDFromContext(ctx)

	if e.completer == nil {
		return entity.ExtractedRecord{}, common.ServiceUnavailableError("no completion service configured", nil)
	}

	body := text
	if e.opts.MaxPromptTokens > 0 {
		cut, err := llm.TruncateToTokens(text, e.opts.MaxPromptTokens, e.opts.Encoding)
		if err != nil {
			e.logger.Warn("extract.truncate.skipped", "run_id", runID, "error", err)
		} else if len(cut) < len(text) {
			e.logger.Info("extract.truncate.applied", "run_id", runID,
				"max_tokens", e.opts.MaxPromptTokens, "text_len", len(text), "kept_len", len(cut))
			body = cut
		}
	}

	e.logger.Info("extract.start", "run_id", runID, "type", e.docType, "text_len", len(text))

	raw, err := e.completer.Complete(ctx, llm.BuildExtractionPrompt(e.docType, body))
	if err != nil {
		e.logger.Error("extract.complete.failed", "run_id", runID, "type", e.docType, "error", err)
		if common.CodeOf(err) == common.CodeInternal {
			err = common.ServiceUnavailableError("completion failed", err)
		}
		return entity.ExtractedRecord{}, err
	}

	data, err := llm.ParseResponse(raw)
	if err != nil {
		e.logger.Error("extract.parse.failed", "run_id", runID, "type", e.docType, "raw_len", len(raw), "error", err)
		return entity.ExtractedRecord{}, err
	}
	if err := llm.ValidateJSONAgainstSchema(llm.BuildDocumentJSONSchema(), data); err != nil {
		e.logger.Error("extract.schema.failed", "run_id", runID, "type", e.docType, "error", err)
		return entity.ExtractedRecord{}, common.MalformedResponseError("model output has the wrong shape", err)
	}

	rec := entity.ExtractedRecord{
		VendorName:   vendorName(data["vendor_name"]),
		Amount:       data["amount"],
		Products:     normalize.Products(data["products"]),
		TotalAmount:  data["total_amount"],
		Date:         data["date"],
		DocumentType: e.docType,
	}

	e.logger.Info("extract.ok",
		"run_id", runID,
		"type", e.docType,
		"products", len(rec.Products),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}

// vendorName reads the already validated vendor_name, which is a string or null.
func vendorName(v any) *string {
	if s, ok := v.(string); ok {
		return &s
	}
	return nil
}
