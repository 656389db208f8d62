package shell

import (
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds a single command
const DefaultTimeout = 30 * time.Second

// exitMarker is echoed after every adb command so the exit status survives
// devices whose adb shell does not propagate it
const exitMarker = "__exit:"

// Result is the outcome of a command that actually ran
type Result struct {
	Lines    []string // Standard output, one entry per line, CR stripped
	ExitCode int
}

// OK reports whether the command exited with status 0
func (r Result) OK() bool {
	return r.ExitCode == 0
}

// Runner executes a command string on the privileged channel.
// A non-nil error means the channel itself could not be used;
// a command that ran and failed is reported through Result.ExitCode.
type Runner interface {
	Run(ctx context.Context, command string) (Result, error)
}

// ErrChannel is returned when the command channel cannot be reached
var ErrChannel = errors.New("command channel unavailable")

// execFunc runs a binary and returns its stdout
type execFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runBinary(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Quote single-quotes s for a POSIX shell
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// withTimeout applies d to ctx unless d is zero
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultTimeout
	}
	return context.WithTimeout(ctx, d)
}

// splitLines turns raw output into trimmed-right lines without the trailing empty line
func splitLines(out []byte) []string {
	text := strings.ReplaceAll(string(out), "\r\n", "\n")
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return lines
}

// extractExit removes the exit marker line and returns the remaining lines and status
func extractExit(lines []string) ([]string, int, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		if !strings.HasPrefix(lines[i], exitMarker) {
			continue
		}
		code, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(lines[i], exitMarker)))
		if err != nil {
			return lines, 0, false
		}
		rest := append(lines[:i:i], lines[i+1:]...)
		return rest, code, true
	}
	return lines, 0, false
}
