package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"hidectl/internal/models"

	"github.com/charmbracelet/log"
	"golang.org/x/text/language"
)

// ErrLoadFailed is returned when the platform enumeration fails
var ErrLoadFailed = errors.New("catalog load failed")

// defaultWorkers bounds concurrent label lookups
const defaultWorkers = 8

// LabelResolver resolves a locale-specific label for a label reference
type LabelResolver interface {
	Resolve(ctx context.Context, ref string, tag language.Tag) (string, error)
}

// Loader builds the application catalog
type Loader struct {
	Registry Registry
	Resolver LabelResolver     // Optional
	Locale   language.Tag
	Deny     func(string) bool // Extra deny predicate on top of the fixed list; optional
	Workers  int
	Logger   *log.Logger
}

// NewLoader creates a loader with default settings
func NewLoader(registry Registry, resolver LabelResolver, locale language.Tag) *Loader {
	return &Loader{
		Registry: registry,
		Resolver: resolver,
		Locale:   locale,
		Workers:  defaultWorkers,
		Logger:   log.Default(),
	}
}

// Load enumerates installed applications, drops denied, disabled and
// duplicate packages, and resolves labels. Order follows enumeration.
func (l *Loader) Load(ctx context.Context) ([]models.AppEntry, error) {
	records, err := l.Registry.Installed(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	seen := make(map[string]bool, len(records))
	kept := make([]Record, 0, len(records))
	for _, r := range records {
		if r.PackageID == "" || seen[r.PackageID] {
			continue
		}
		seen[r.PackageID] = true
		if !r.Enabled || models.IsDenied(r.PackageID) {
			continue
		}
		if l.Deny != nil && l.Deny(r.PackageID) {
			continue
		}
		kept = append(kept, r)
	}

	entries := make([]models.AppEntry, len(kept))
	workers := l.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i := range kept {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			r := kept[idx]
			entries[idx] = models.AppEntry{
				PackageID: r.PackageID,
				Label:     l.label(ctx, r),
				Enabled:   true,
			}
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return entries, nil
}

// label resolves the display label of r, degrading to the raw label
func (l *Loader) label(ctx context.Context, r Record) string {
	fallback := r.RawLabel
	if fallback == "" {
		fallback = r.PackageID
	}
	if l.Resolver == nil || r.LabelRef == "" {
		return fallback
	}

	label, err := l.Resolver.Resolve(ctx, r.LabelRef, l.Locale)
	if err != nil || label == "" {
		if l.Logger != nil {
			l.Logger.Debug("label resolution failed", "package", r.PackageID, "err", err)
		}
		return fallback
	}
	return label
}
