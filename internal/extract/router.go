package extract

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/docs-extractor/constants"
	"github.com/joseph-ayodele/docs-extractor/internal/common"
	"github.com/joseph-ayodele/docs-extractor/internal/entity"
	"github.com/joseph-ayodele/docs-extractor/internal/llm"
)

// Router dispatches text to the extractor registered for a document type label.
type Router struct {
	extractors map[constants.DocumentType]Extractor
	logger     *slog.Logger
}

func NewRouter(logger *slog.Logger, extractors ...Extractor) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	m := make(map[constants.DocumentType]Extractor, len(extractors))
	for _, x := range extractors {
		m[x.DocumentType()] = x
	}
	return &Router{extractors: m, logger: logger}
}

// NewDefaultRouter registers the invoice and receipt extractors on one completer.
func NewDefaultRouter(completer llm.Completer, opts Options, logger *slog.Logger) *Router {
	return NewRouter(logger,
		NewInvoiceExtractor(completer, opts, logger),
		NewReceiptExtractor(completer, opts, logger),
	)
}

// Route matches label case-insensitively. Unknown labels fail with
// UNSUPPORTED_TYPE before any extractor runs.
func (r *Router) Route(ctx context.Context, text, label string) (entity.ExtractedRecord, error) {
	docType, ok := constants.ParseDocumentType(label)
	if !ok {
		return entity.ExtractedRecord{}, common.UnsupportedTypef("unknown document type: %q", label)
	}
	x, ok := r.extractors[docType]
	if !ok {
		return entity.ExtractedRecord{}, common.UnsupportedTypef("no extractor registered for %q", docType)
	}
	r.logger.Debug("extract.route", "run_id", common.RunIDFromContext(ctx), "type", docType)
	return x.Extract(ctx, text)
}
