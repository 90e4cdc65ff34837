package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/docs-extractor/constants"
	"github.com/joseph-ayodele/docs-extractor/internal/common"
)

const pageBreak = "\n\f\n"

func (e *Extractor) extractPDF(ctx context.Context, path string) (ExtractionResult, error) {
	text, pages, err := e.pdfToText(ctx, path)
	if err == nil && strings.TrimSpace(text) != "" {
		return ExtractionResult{Text: text, Pages: pages, SourceType: constants.PDF, Method: "pdf-text"}, nil
	}

	var warns []string
	if err != nil {
		e.logger.Warn("pdf text layer unavailable; falling back to ocr", "path", path, "error", err)
		warns = append(warns, err.Error())
	} else {
		e.logger.Debug("pdf text layer empty; falling back to ocr", "path", path)
	}

	text, pages, w, err := e.pdfToOCR(ctx, path)
	warns = append(warns, w...)
	if err != nil {
		return ExtractionResult{SourceType: constants.PDF, Warnings: warns}, err
	}
	return ExtractionResult{Text: text, Pages: pages, SourceType: constants.PDF, Method: "pdf-ocr", Warnings: warns}, nil
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (text string, pages int, err error) {
	bin, err := e.requireTool(e.cfg.Pdftotext, popplerHint)
	if err != nil {
		return "", 0, err
	}
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, bin, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, fmt.Errorf("pdftotext: %w: %s", err, strings.TrimSpace(string(errb)))
	}
	text = string(out)
	// A form-feed \f is used as page separator by default
	pages = strings.Count(strings.TrimRight(text, "\f\n"), "\f") + 1
	return text, pages, nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	bin, err := e.requireTool(e.cfg.Pdftoppm, popplerHint)
	if err != nil {
		return "", 0, nil, err
	}

	tmpDir, err := os.MkdirTemp("", "docx-pp-*")
	if err != nil {
		return "", 0, nil, common.ConversionError("create render dir", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", rmErr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png [-f 1 -l N] <in.pdf> <tmp/page>
	args := []string{"-r", strconv.Itoa(e.cfg.DPI), "-png"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-f", "1", "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	args = append(args, path, prefix)
	if _, errb, err := e.runner.Run(ctx, bin, args...); err != nil {
		return "", 0, nil, common.ConversionError("pdftoppm failed: "+strings.TrimSpace(string(errb)), err)
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sortPages(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, nil, common.ConversionError("pdftoppm produced no page images", nil)
	}

	var b strings.Builder
	var warns []string
	recognized := 0
	for i, img := range matches {
		txt, err := e.recognize(ctx, img)
		if err != nil {
			if common.CodeOf(err) == common.CodeDependency {
				return "", 0, warns, err
			}
			e.logger.Warn("page ocr failed", "path", path, "page", i+1, "error", err)
			warns = append(warns, fmt.Sprintf("page %d: %v", i+1, err))
			continue
		}
		if b.Len() > 0 {
			b.WriteString(pageBreak) // keep a clear page break marker
		}
		b.WriteString(txt)
		recognized++
	}
	if recognized == 0 {
		return "", len(matches), warns, common.ConversionError(fmt.Sprintf("ocr failed on all %d rendered pages", len(matches)), nil)
	}
	return b.String(), len(matches), warns, nil
}

// sortPages orders rendered page files by their trailing page number.
func sortPages(paths []string) {
	num := func(p string) int {
		base := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		n, err := strconv.Atoi(base[strings.LastIndex(base, "-")+1:])
		if err != nil {
			return -1
		}
		return n
	}
	sort.SliceStable(paths, func(i, j int) bool {
		ni, nj := num(paths[i]), num(paths[j])
		if ni != nj {
			return ni < nj
		}
		return paths[i] < paths[j]
	})
}
