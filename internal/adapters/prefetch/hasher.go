// Package prefetch computes artifact digests by running nix-prefetch-url.
package prefetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/felixgeelhaar/plugmirror/internal/domain/mirror"
	"github.com/felixgeelhaar/plugmirror/internal/ports"
)

// DefaultCommand is the hashing program.
const DefaultCommand = "nix-prefetch-url"

// ErrCommandNotFound is returned when the hashing program cannot be started.
var ErrCommandNotFound = errors.New("hashing command not found")

// Hasher implements mirror.Hasher over a CommandRunner.
type Hasher struct {
	runner  ports.CommandRunner
	command string
	args    []string
	timeout time.Duration
}

var _ mirror.Hasher = (*Hasher)(nil)

// Option configures a Hasher.
type Option func(*Hasher)

// WithCommand replaces the program name and its leading arguments. The
// artifact URL is always appended last.
func WithCommand(command string, args ...string) Option {
	return func(h *Hasher) {
		if command != "" {
			h.command = command
		}
		h.args = args
	}
}

// WithTimeout bounds each invocation. An artifact whose hashing times out
// is reported as unavailable.
func WithTimeout(d time.Duration) Option {
	return func(h *Hasher) {
		h.timeout = d
	}
}

// New creates a Hasher.
func New(runner ports.CommandRunner, opts ...Option) *Hasher {
	h := &Hasher{runner: runner, command: DefaultCommand}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Command returns the configured program name.
func (h *Hasher) Command() string {
	return h.command
}

// Hash runs the program for url and returns its trimmed stdout.
func (h *Hasher) Hash(ctx context.Context, url string) (string, error) {
	runCtx := ctx
	if h.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	args := append(append([]string{}, h.args...), url)
	result, err := h.runner.Run(runCtx, h.command, args...)
	if err != nil {
		if isCommandNotFound(err) {
			return "", fmt.Errorf("%w: %s: %w", ErrCommandNotFound, h.command, err)
		}
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s timed out after %s", mirror.ErrArtifactUnavailable, h.command, h.timeout)
		}
		return "", fmt.Errorf("running %s: %w", h.command, err)
	}

	if !result.Success() {
		return "", fmt.Errorf("%w: %s exited with code %d: %s",
			mirror.ErrArtifactUnavailable, h.command, result.ExitCode, lastLine(result.Stderr))
	}

	digest := strings.TrimSpace(result.Stdout)
	if digest == "" {
		return "", fmt.Errorf("%w: %s printed no digest", mirror.ErrArtifactUnavailable, h.command)
	}
	return digest, nil
}

// isCommandNotFound reports whether an error indicates a missing executable.
func isCommandNotFound(err error) bool {
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
		return true
	}
	var pathErr *os.PathError
	return errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist)
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
