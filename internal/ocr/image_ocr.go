package ocr

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/docs-extractor/constants"
	"github.com/joseph-ayodele/docs-extractor/internal/common"
)

var reBoxNoise = regexp.MustCompile(`(?m)^\s*[_\-]{3,}\s*$`)

func (e *Extractor) extractImage(ctx context.Context, path string) (ExtractionResult, error) {
	var warns []string
	src := path
	if e.cfg.EnhanceImages {
		out, cleanup, err := enhanceForOCR(path)
		if err != nil {
			e.logger.Warn("image enhancement failed; using original", "path", path, "error", err)
			warns = append(warns, err.Error())
		} else {
			defer cleanup()
			src = out
		}
	}

	txt, err := e.recognize(ctx, src)
	if err != nil {
		return ExtractionResult{SourceType: constants.IMAGE, Warnings: warns}, err
	}
	return ExtractionResult{
		Text:       txt,
		Pages:      1,
		SourceType: constants.IMAGE,
		Method:     "image-ocr",
		Warnings:   warns,
	}, nil
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, error) {
	bin, err := e.requireTool(e.cfg.Tesseract, tesseractHint)
	if err != nil {
		return "", err
	}
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, bin, args...)
	if err != nil {
		return "", common.ConversionError("tesseract failed: "+strings.TrimSpace(string(errb)), err)
	}

	// minor cleanup of obvious line noise
	return reBoxNoise.ReplaceAllString(string(out), ""), nil
}
