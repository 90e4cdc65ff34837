// Package ocr turns a PDF or image file into raw text.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/docs-extractor/constants"
	"github.com/joseph-ayodele/docs-extractor/internal/common"
)

const (
	popplerHint   = "install poppler (e.g. apt install poppler-utils) and add it to PATH or set POPPLER_PATH"
	tesseractHint = "install tesseract (e.g. apt install tesseract-ocr) and add it to PATH or set TESSERACT_CMD"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	// PopplerPath is a directory holding pdftotext and pdftoppm. It applies
	// to whichever of the two is left at its default name.
	PopplerPath string

	TesseractLang string // default "eng"
	TessdataDir   string
	PSM           int // e.g., 6 is good for uniform block of text

	DPI      int // rasterization DPI for scanned PDFs, default 300
	MaxPages int // 0 = no limit

	EnhanceImages bool // grayscale/contrast/sharpen before OCR
}

type ExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | constants.IMAGE
	Method     string // "pdf-text" | "pdf-ocr" | "image-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
}

// Recognizer reads the text of a single image file.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

type Extractor struct {
	cfg        Config
	runner     Runner
	recognizer Recognizer // nil -> tesseract via runner
	lookPath   func(string) (string, error)
	logger     *slog.Logger
}

type Option func(*Extractor)

func WithRunner(r Runner) Option { return func(e *Extractor) { e.runner = r } }

func WithRecognizer(r Recognizer) Option { return func(e *Extractor) { e.recognizer = r } }

// WithLookPath replaces exec.LookPath when checking for external tools.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(e *Extractor) { e.lookPath = fn }
}

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = popplerTool(cfg.PopplerPath, "pdftotext")
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = popplerTool(cfg.PopplerPath, "pdftoppm")
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	e := &Extractor{cfg: cfg, runner: ExecRunner{Logger: logger}, lookPath: exec.LookPath, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func popplerTool(dir, name string) string {
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// Extract picks a strategy based on file extension: PDFs try their text
// layer first, everything else is OCR'd as an image.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	runID := common.RunIDFromContext(ctx)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ExtractionResult{}, common.NotFoundf("document not found: %s", path)
		}
		return ExtractionResult{}, common.ConversionError("stat "+path, err)
	}
	if info.IsDir() {
		return ExtractionResult{}, common.NotFoundf("not a file: %s", path)
	}

	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("starting ocr extraction", "run_id", runID, "path", path, "method", "auto", "ext", ext)

	var res ExtractionResult
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err = e.extractPDF(ctx, path)
	default:
		res, err = e.extractImage(ctx, path)
	}
	res.Duration = time.Since(start)
	if err != nil {
		e.logger.Error("ocr.extract.failed", "run_id", runID, "path", path, "error", err,
			"elapsed_ms", res.Duration.Milliseconds())
		return res, err
	}

	res.Text = Normalize(res.Text)
	res.Language = e.cfg.TesseractLang
	e.logger.Info("ocr.extract.ok",
		"run_id", runID,
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"text_len", len(res.Text),
		"warnings", len(res.Warnings),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// requireTool resolves name on PATH, failing with DEPENDENCY when it is missing.
func (e *Extractor) requireTool(name, hint string) (string, error) {
	p, err := e.lookPath(name)
	if err != nil {
		return "", common.DependencyError(fmt.Sprintf("%s not found; %s", filepath.Base(name), hint), err)
	}
	return p, nil
}

func (e *Extractor) recognize(ctx context.Context, imagePath string) (string, error) {
	if e.recognizer != nil {
		return e.recognizer.Recognize(ctx, imagePath)
	}
	return e.tesseractOCR(ctx, imagePath)
}
