package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// ErrToolMissing means pdftotext, pdftoppm or tesseract is not on PATH.
var ErrToolMissing = errors.New("ocr tool not installed")

// Runner executes the external OCR tools. Tests substitute a stub.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	logger *slog.Logger
}

// Run returns ctx.Err() when the tool was killed by the acquisition deadline,
// and otherwise folds the last stderr line into the error.
func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		r.logger.Error("ocr.exec.missing", "cmd", name)
		return nil, nil, fmt.Errorf("%w: %s", ErrToolMissing, name)
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	err := cmd.Run()
	elapsed := time.Since(start).Milliseconds()
	if err == nil {
		r.logger.Debug("ocr.exec.ok", "cmd", name, "elapsed_ms", elapsed, "stdout_bytes", stdout.Len())
		return stdout.Bytes(), stderr.Bytes(), nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	} else if msg := lastLine(stderr.String()); msg != "" {
		err = fmt.Errorf("%w: %s", err, msg)
	}
	r.logger.Error("ocr.exec.failed",
		"cmd", name,
		"args", strings.Join(args, " "),
		"elapsed_ms", elapsed,
		"error", err,
		"stderr", truncate(stderr.String(), 8<<10),
	)
	return stdout.Bytes(), stderr.Bytes(), err
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return truncate(strings.TrimSpace(s), 200)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
