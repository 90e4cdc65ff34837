// Package pipeline runs one document, or a directory of them, from upload to
// stored row.
package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/docs-extractor/constants"
	"github.com/joseph-ayodele/docs-extractor/internal/common"
	"github.com/joseph-ayodele/docs-extractor/internal/entity"
	"github.com/joseph-ayodele/docs-extractor/internal/normalize"
	"github.com/joseph-ayodele/docs-extractor/internal/ocr"
	"github.com/joseph-ayodele/docs-extractor/internal/repository"
	"github.com/joseph-ayodele/docs-extractor/internal/storage"
)

// TextSource turns a document file into plain text.
type TextSource interface {
	Extract(ctx context.Context, path string) (ocr.ExtractionResult, error)
}

// Router picks the extractor for a document type label.
type Router interface {
	Route(ctx context.Context, text, label string) (entity.ExtractedRecord, error)
}

// dirStore is a Store that keeps its copies in a local directory.
type dirStore interface {
	Dir() string
}

// Report is the outcome of ProcessFile. The embedded Result is what callers
// print; the rest describes how far the run got.
type Report struct {
	entity.Result
	RunID      string
	SourcePath string
	Location   string
	Method     string
	Pages      int
	Fields     *entity.DocumentFields
	Elapsed    time.Duration
}

type Processor struct {
	text   TextSource
	router Router
	repo   repository.DocumentRepository
	store  storage.Store
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Processor)

// WithClock replaces time.Now as the source of defaulted dates.
func WithClock(now func() time.Time) Option { return func(p *Processor) { p.now = now } }

func NewProcessor(
	text TextSource,
	router Router,
	repo repository.DocumentRepository,
	store storage.Store,
	logger *slog.Logger,
	opts ...Option,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		text:   text,
		router: router,
		repo:   repo,
		store:  store,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessFile stores the upload, extracts its text, routes it to the extractor
// for label, normalizes the record and saves it. The returned error is nil
// exactly when the report's Result is a success.
func (p *Processor) ProcessFile(ctx context.Context, path, label string) (Report, error) {
	start := time.Now()
	ctx = common.WithRunID(ctx, common.RunIDFromContext(ctx))
	rep := Report{RunID: common.RunIDFromContext(ctx), SourcePath: path}

	abs, err := filepath.Abs(path)
	if err != nil {
		return p.fail(ctx, rep, start, "resolve", common.NotFoundf("resolve path %q: %v", path, err))
	}
	rep.SourcePath = abs
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return p.fail(ctx, rep, start, "resolve", common.NotFoundf("file not found: %s", abs))
	}

	docType, ok := constants.ParseDocumentType(label)
	if !ok {
		return p.fail(ctx, rep, start, "route", common.UnsupportedTypef("unsupported document type: %q", label))
	}
	rep.DocumentType = docType
	p.logger.Info("pipeline.start", "run_id", rep.RunID, "path", abs, "type", docType)

	stored, err := p.store.Put(ctx, abs)
	if err != nil {
		return p.fail(ctx, rep, start, "store", err)
	}
	rep.Location = stored.Location

	text, err := p.text.Extract(ctx, stored.LocalPath)
	if err != nil {
		return p.fail(ctx, rep, start, "text", err)
	}
	rep.Method, rep.Pages = text.Method, text.Pages

	rec, err := p.router.Route(ctx, text.Text, docType.String())
	if err != nil {
		return p.fail(ctx, rep, start, "extract", err)
	}

	fields, err := normalize.Normalize(rec, p.now())
	if err != nil {
		return p.fail(ctx, rep, start, "normalize", err)
	}
	rep.Fields = &fields
	if fields.DateDefaulted {
		p.logger.Warn("pipeline.normalize.date_defaulted", "run_id", rep.RunID, "raw_date", rec.Date)
	}

	rep.Result = p.repo.Save(ctx, repository.SaveRequest{Fields: fields, FilePath: stored.Location})
	rep.Elapsed = time.Since(start)
	if !rep.OK() {
		p.logger.Error("pipeline.save.failed", "run_id", rep.RunID, "code", rep.Code, "message", rep.Message,
			"elapsed_ms", rep.Elapsed.Milliseconds())
		return rep, rep.Err()
	}

	p.logger.Info("pipeline.ok",
		"run_id", rep.RunID,
		"type", docType,
		"id", rep.ID,
		"location", rep.Location,
		"method", rep.Method,
		"elapsed_ms", rep.Elapsed.Milliseconds(),
	)
	return rep, nil
}

func (p *Processor) fail(ctx context.Context, rep Report, start time.Time, stage string, err error) (Report, error) {
	rep.Result = entity.Failure(rep.DocumentType, err)
	rep.Elapsed = time.Since(start)
	p.logger.Error("pipeline."+stage+".failed",
		"run_id", common.RunIDFromContext(ctx),
		"path", rep.SourcePath,
		"code", rep.Code,
		"error", err,
		"elapsed_ms", rep.Elapsed.Milliseconds(),
	)
	return rep, err
}

// FileResult is the per-file outcome of ProcessDirectory.
type FileResult struct {
	Path   string
	Report Report
	Err    string
}

// DirStats summarizes a directory run.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}

// ProcessDirectory walks root and runs ProcessFile, one file at a time, on
// every file with an allowed extension. The store's own upload directory is
// never walked. Per-file failures are recorded and
// the walk continues; only a cancelled context stops it early.
func (p *Processor) ProcessDirectory(ctx context.Context, root, label string, skipHidden bool) ([]FileResult, DirStats, error) {
	var stats DirStats
	if _, ok := constants.ParseDocumentType(label); !ok {
		return nil, stats, common.UnsupportedTypef("unsupported document type: %q", label)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, stats, common.NotFoundf("directory not found: %s", root)
	}

	uploadDir := p.uploadDir()

	var results []FileResult
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			stats.Scanned++
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && uploadDir != "" && sameDir(path, uploadDir) {
				p.logger.Debug("pipeline.directory.skip_uploads", "path", path)
				return filepath.SkipDir
			}
			return nil
		}
		stats.Scanned++
		if !constants.IsAllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		rep, err := p.ProcessFile(common.WithRunID(ctx, ""), path, label)
		if err != nil {
			results = append(results, FileResult{Path: path, Report: rep, Err: err.Error()})
			stats.Failed++
			return nil
		}
		results = append(results, FileResult{Path: path, Report: rep})
		stats.Succeeded++
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return results, stats, err
		}
		return results, stats, common.WrapError(err, "walk")
	}

	p.logger.Info("pipeline.directory.ok",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
	)
	return results, stats, nil
}

// uploadDir is the absolute directory the store copies into, or "".
func (p *Processor) uploadDir() string {
	ds, ok := p.store.(dirStore)
	if !ok || ds.Dir() == "" {
		return ""
	}
	abs, err := filepath.Abs(ds.Dir())
	if err != nil {
		return ""
	}
	return abs
}

func sameDir(path, absDir string) bool {
	abs, err := filepath.Abs(path)
	return err == nil && abs == absDir
}

func isHidden(path string) bool {
	base := filepath.Base(path)
	return len(base) > 1 && base[0] == '.'
}
