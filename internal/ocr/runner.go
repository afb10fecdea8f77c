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
	"unicode/utf8"
)

// ErrProgramMissing is returned when a helper binary vanished after the
// capability probe found it.
var ErrProgramMissing = errors.New("ocr helper program missing")

const stderrCap = 8 << 10

// Runner executes helper programs; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type commandRunner struct {
	logger *slog.Logger
}

func (r commandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout bytes.Buffer
	stderr := &cappedBuffer{limit: stderrCap}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	began := time.Now()
	err := cmd.Run()
	attrs := []any{
		"program", name,
		"argc", len(args),
		"elapsed_ms", time.Since(began).Milliseconds(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		r.logger.Debug("ocr.run.ok", append(attrs, "stdout_bytes", stdout.Len())...)
		return stdout.Bytes(), stderr.Bytes(), nil
	case errors.Is(err, exec.ErrNotFound):
		r.logger.Error("ocr.run.missing", attrs...)
		return nil, nil, fmt.Errorf("%s: %w", name, ErrProgramMissing)
	case ctx.Err() != nil:
		r.logger.Warn("ocr.run.cancelled", attrs...)
		return nil, stderr.Bytes(), ctx.Err()
	case errors.As(err, &exitErr):
		attrs = append(attrs, "exit_code", exitErr.ExitCode())
	}
	r.logger.Error("ocr.run.failed", append(attrs,
		"error", err,
		"stderr", stderr.String(),
		"stderr_dropped", stderr.dropped,
	)...)
	return stdout.Bytes(), stderr.Bytes(), err
}

// cappedBuffer keeps the first limit bytes written and counts the rest.
type cappedBuffer struct {
	bytes.Buffer
	limit   int
	dropped int
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	room := b.limit - b.Len()
	if room <= 0 {
		b.dropped += len(p)
		return len(p), nil
	}
	if len(p) > room {
		b.dropped += len(p) - room
		b.Buffer.Write(p[:room])
		return len(p), nil
	}
	return b.Buffer.Write(p)
}

// clip shortens s to at most max bytes on a rune boundary.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut]) + " [clipped]"
}
