package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Stored describes where an upload was kept.
type Stored struct {
	// Location is persisted as the document's file_path.
	Location string
	// LocalPath is the file text extraction reads.
	LocalPath string
}

// Store keeps a copy of every input document before extraction.
type Store interface {
	Put(ctx context.Context, srcPath string) (Stored, error)
}

// StoredName is the upload name for src: "<mtime-unix>_<basename>".
func StoredName(src string, info os.FileInfo) string {
	return fmt.Sprintf("%d_%s", info.ModTime().Unix(), filepath.Base(src))
}
