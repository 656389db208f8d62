package shell

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Local runs commands on the current host, for use directly on the device
type Local struct {
	Root    bool
	Timeout time.Duration

	exec execFunc
}

// NewLocal creates a local runner
func NewLocal(root bool) *Local {
	return &Local{Root: root, Timeout: DefaultTimeout, exec: runBinary}
}

// Run executes command through su or sh
func (l *Local) Run(ctx context.Context, command string) (Result, error) {
	ctx, cancel := withTimeout(ctx, l.Timeout)
	defer cancel()

	run := l.exec
	if run == nil {
		run = runBinary
	}

	name := "sh"
	if l.Root {
		name = "su"
	}

	out, err := run(ctx, name, "-c", command)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			return Result{Lines: splitLines(out), ExitCode: exitErr.ExitCode()}, nil
		}
		return Result{}, fmt.Errorf("%w: %s: %w", ErrChannel, name, err)
	}
	return Result{Lines: splitLines(out)}, nil
}
