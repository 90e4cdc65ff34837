package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/docs-extractor/internal/common"
)

// LocalStore copies uploads into a directory on disk.
type LocalStore struct {
	dir    string
	logger *slog.Logger
}

func NewLocalStore(dir string, logger *slog.Logger) *LocalStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalStore{dir: dir, logger: logger}
}

// Dir is the directory uploads are copied into.
func (s *LocalStore) Dir() string { return s.dir }

// EnsureDir creates the upload directory if it is missing.
func (s *LocalStore) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return common.PersistenceError("create upload dir "+s.dir, err)
	}
	return nil
}

// Put copies src to <dir>/<mtime>_<basename>, keeping the modification time.
func (s *LocalStore) Put(ctx context.Context, src string) (Stored, error) {
	start := time.Now()
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return Stored{}, common.NotFoundf("file not found: %s", src)
		}
		return Stored{}, common.PersistenceError("stat "+src, err)
	}
	if err := ctx.Err(); err != nil {
		return Stored{}, err
	}
	if err := s.EnsureDir(); err != nil {
		return Stored{}, err
	}

	dst := filepath.Join(s.dir, StoredName(src, info))
	if err := copyFile(src, dst); err != nil {
		s.logger.Error("storage.put.failed", "src", src, "dst", dst, "error", err)
		return Stored{}, common.PersistenceError("copy upload to "+dst, err)
	}
	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		s.logger.Warn("storage.put.chtimes_failed", "dst", dst, "error", err)
	}

	s.logger.Info("storage.put.ok",
		"run_id", common.RunIDFromContext(ctx),
		"dst", dst,
		"bytes", info.Size(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Stored{Location: dst, LocalPath: dst}, nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = io.Copy(out, in)
	return err
}
