package ocr

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"time"

	"github.com/joseph-ayodele/docs-extractor/internal/common"
)

// Runner executes an external tool and returns its captured output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs tools on the host.
type ExecRunner struct {
	Logger *slog.Logger
}

const maxLoggedStderr = 4 << 10

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	start := time.Now()
	err := cmd.Run()
	attrs := []any{
		"run_id", common.RunIDFromContext(ctx),
		"tool", name,
		"args", args,
		"elapsed_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			attrs = append(attrs, "exit_code", exitErr.ExitCode())
		}
		logger.Error("ocr.exec.failed", append(attrs, "error", err, "stderr", tail(stderr.Bytes(), maxLoggedStderr))...)
		return stdout.Bytes(), stderr.Bytes(), err
	}
	logger.Debug("ocr.exec.ok", append(attrs, "stdout_bytes", stdout.Len())...)
	return stdout.Bytes(), stderr.Bytes(), nil
}

// tail keeps the last n bytes of b, where tools print the actual error.
func tail(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return "..." + string(b[len(b)-n:])
}
