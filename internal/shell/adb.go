package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ADB runs commands on a device through `adb shell`
type ADB struct {
	Path    string        // adb binary; empty means look it up in PATH
	Serial  string        // Device serial; empty means the only attached device
	Root    bool          // Wrap commands in `su -c`
	Timeout time.Duration // Per-command timeout

	exec execFunc
}

// NewADB creates an adb runner
func NewADB(path, serial string, root bool) *ADB {
	return &ADB{
		Path:    path,
		Serial:  serial,
		Root:    root,
		Timeout: DefaultTimeout,
		exec:    runBinary,
	}
}

// Binary returns the adb executable to use
func (a *ADB) Binary() string {
	if a.Path != "" {
		return a.Path
	}
	if sdk := os.Getenv("ANDROID_HOME"); sdk != "" {
		candidate := filepath.Join(sdk, "platform-tools", "adb")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return "adb"
}

// Args builds the adb argument list for command
func (a *ADB) Args(command string) []string {
	var args []string
	if strings.TrimSpace(a.Serial) != "" {
		args = append(args, "-s", a.Serial)
	}
	if a.Root {
		command = "su -c " + Quote(command)
	}
	return append(args, "shell", command+"; echo "+exitMarker+"$?")
}

// Run executes command on the device
func (a *ADB) Run(ctx context.Context, command string) (Result, error) {
	ctx, cancel := withTimeout(ctx, a.Timeout)
	defer cancel()

	run := a.exec
	if run == nil {
		run = runBinary
	}

	out, err := run(ctx, a.Binary(), a.Args(command)...)
	lines, code, ok := extractExit(splitLines(out))
	if !ok {
		// No marker means the device shell never ran the command
		if err == nil {
			err = errors.New("missing exit status in adb output")
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			err = fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Result{}, fmt.Errorf("%w: adb: %w", ErrChannel, err)
	}
	return Result{Lines: lines, ExitCode: code}, nil
}
