package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"hidectl/internal/shell"
)

// Record is an installed application as reported by the platform
type Record struct {
	PackageID string
	Enabled   bool
	LabelRef  string // Key for the label resolver; empty when none
	RawLabel  string // Label usable without resolution
}

// Registry enumerates installed applications
type Registry interface {
	Installed(ctx context.Context) ([]Record, error)
}

// PackageManager enumerates packages with `pm list packages` over a shell runner
type PackageManager struct {
	runner shell.Runner
	user   int // Android user id; negative means the current user
}

// NewPackageManager creates a registry backed by runner
func NewPackageManager(runner shell.Runner, user int) *PackageManager {
	return &PackageManager{runner: runner, user: user}
}

// Installed returns all packages for the configured user
func (p *PackageManager) Installed(ctx context.Context) ([]Record, error) {
	all, err := p.list(ctx)
	if err != nil {
		return nil, err
	}
	disabled, err := p.list(ctx, "-d")
	if err != nil {
		return nil, err
	}
	off := make(map[string]bool, len(disabled))
	for _, name := range disabled {
		off[name] = true
	}

	records := make([]Record, 0, len(all))
	for _, name := range all {
		records = append(records, Record{
			PackageID: name,
			Enabled:   !off[name],
			LabelRef:  name,
			RawLabel:  LabelFromPackage(name),
		})
	}
	return records, nil
}

func (p *PackageManager) list(ctx context.Context, flags ...string) ([]string, error) {
	args := append([]string{"pm", "list", "packages"}, flags...)
	if p.user >= 0 {
		args = append(args, "--user", strconv.Itoa(p.user))
	}
	command := strings.Join(args, " ")

	res, err := p.runner.Run(ctx, command)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", command, err)
	}
	if !res.OK() {
		return nil, fmt.Errorf("%s: exited with %d", command, res.ExitCode)
	}
	return ParsePackages(res.Lines), nil
}

// ParsePackages extracts names from `package:<name>` lines
func ParsePackages(lines []string) []string {
	var names []string
	for _, line := range lines {
		pos := strings.Index(line, "package:")
		if pos < 0 {
			continue
		}
		name := strings.TrimSpace(line[pos+len("package:"):])
		// -f output is package:/path/base.apk=name
		if eq := strings.LastIndex(name, "="); eq >= 0 {
			name = name[eq+1:]
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// skipSegments are package id parts that carry no naming information
var skipSegments = map[string]bool{
	"com": true, "org": true, "net": true, "io": true, "de": true,
	"android": true, "app": true, "apps": true, "mobile": true,
}

// LabelFromPackage derives a readable label from a package id
// (com.google.android.youtube -> "Google Youtube")
func LabelFromPackage(pkg string) string {
	parts := strings.Split(pkg, ".")
	var meaningful []string
	for _, p := range parts {
		if !skipSegments[strings.ToLower(p)] && len(p) > 1 {
			meaningful = append(meaningful, p)
		}
	}
	if len(meaningful) == 0 {
		meaningful = parts[len(parts)-1:]
	}
	for i, p := range meaningful {
		r := []rune(p)
		if len(r) == 0 {
			continue
		}
		r[0] = unicode.ToUpper(r[0])
		meaningful[i] = string(r)
	}
	return strings.Join(meaningful, " ")
}
