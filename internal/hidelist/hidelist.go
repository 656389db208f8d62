package hidelist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hidectl/internal/models"
	"hidectl/internal/shell"
)

// Errors returned by the gateway. Wrapped errors carry the detail.
var (
	ErrUnavailable    = errors.New("hide-list unavailable")
	ErrParse          = errors.New("malformed hide-list output")
	ErrMutationFailed = errors.New("hide-list mutation failed")
)

// DefaultTool is the MagiskHide command line tool
const DefaultTool = "magiskhide"

// Gateway queries and mutates the MagiskHide list through a privileged shell
type Gateway struct {
	runner shell.Runner
	tool   string
}

// New creates a gateway that runs tool through runner
func New(runner shell.Runner, tool string) *Gateway {
	if strings.TrimSpace(tool) == "" {
		tool = DefaultTool
	}
	return &Gateway{runner: runner, tool: tool}
}

// List returns the current set of hidden packages
func (g *Gateway) List(ctx context.Context) (models.HideSet, error) {
	res, err := g.runner.Run(ctx, g.tool+" --ls")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if !res.OK() {
		return nil, fmt.Errorf("%w: %s --ls exited with %d%s", ErrUnavailable, g.tool, res.ExitCode, detail(res.Lines))
	}
	return Parse(res.Lines)
}

// Parse converts `--ls` output into a HideSet. Both the bare
// `package` form and the `package|process` form are accepted.
func Parse(lines []string) (models.HideSet, error) {
	set := models.NewHideSet()
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pkg, _, _ := strings.Cut(line, "|")
		pkg = strings.TrimSpace(pkg)
		if !models.ValidPackageID(pkg) {
			return nil, fmt.Errorf("%w: line %d: %q", ErrParse, i+1, line)
		}
		set.Add(pkg)
	}
	return set, nil
}

// Add flags pkg as hidden
func (g *Gateway) Add(ctx context.Context, pkg string) error {
	return g.mutate(ctx, "--add", pkg)
}

// Remove clears the hidden flag of pkg
func (g *Gateway) Remove(ctx context.Context, pkg string) error {
	return g.mutate(ctx, "--rm", pkg)
}

// Set adds or removes pkg depending on hidden
func (g *Gateway) Set(ctx context.Context, pkg string, hidden bool) error {
	if hidden {
		return g.Add(ctx, pkg)
	}
	return g.Remove(ctx, pkg)
}

// Status reports whether MagiskHide is enabled on the device
func (g *Gateway) Status(ctx context.Context) (bool, error) {
	res, err := g.runner.Run(ctx, g.tool+" --status")
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return res.OK(), nil
}

func (g *Gateway) mutate(ctx context.Context, flag, pkg string) error {
	// The package id is interpolated into a root shell command
	if !models.ValidPackageID(pkg) {
		return fmt.Errorf("%w: invalid package id %q", ErrMutationFailed, pkg)
	}
	res, err := g.runner.Run(ctx, g.tool+" "+flag+" "+pkg)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrMutationFailed, flag, pkg, err)
	}
	if !res.OK() {
		return fmt.Errorf("%w: %s %s exited with %d%s", ErrMutationFailed, flag, pkg, res.ExitCode, detail(res.Lines))
	}
	return nil
}

func detail(lines []string) string {
	msg := strings.TrimSpace(strings.Join(lines, " "))
	if msg == "" {
		return ""
	}
	return ": " + msg
}
