package ocr

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// enhanceForOCR writes a grayscale, contrast-boosted, sharpened PNG copy of
// path to a temp dir. Call cleanup when the copy is no longer needed.
func enhanceForOCR(path string) (out string, cleanup func(), err error) {
	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return "", nil, fmt.Errorf("open image: %w", err)
	}

	img := imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.5)

	dir, err := os.MkdirTemp("", "docx-enh-*")
	if err != nil {
		return "", nil, err
	}
	cleanup = func() { _ = os.RemoveAll(dir) }

	out = filepath.Join(dir, "enhanced.png")
	if err := imaging.Save(img, out); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("save enhanced image: %w", err)
	}
	return out, cleanup, nil
}
