// Package ranking orders and filters catalog entries. Every function is pure:
// inputs are never modified and results are freshly allocated.
package ranking

import (
	"slices"
	"strings"

	"hidectl/internal/models"

	"golang.org/x/text/cases"
)

// Fold returns the case-folded form of s
func Fold(s string) string {
	return cases.Fold().String(s)
}

// StateFunc reports the hide state of a package
type StateFunc func(pkg string) models.HideState

// Rank orders catalog with hidden entries first, then by case-folded label.
// The sort is stable, so equal keys keep catalog order.
func Rank(catalog []models.AppEntry, state StateFunc) []models.ViewEntry {
	type keyed struct {
		entry models.ViewEntry
		label string
	}

	// A Caser is stateful and must not be shared across goroutines
	fold := cases.Fold()
	rows := make([]keyed, len(catalog))
	for i, e := range catalog {
		st := models.Visible
		if state != nil {
			st = state(e.PackageID)
		}
		rows[i] = keyed{
			entry: models.ViewEntry{AppEntry: e, State: st},
			label: fold.String(e.DisplayLabel()),
		}
	}

	slices.SortStableFunc(rows, func(a, b keyed) int {
		ah, bh := a.entry.Hidden(), b.entry.Hidden()
		if ah != bh {
			if ah {
				return -1
			}
			return 1
		}
		return strings.Compare(a.label, b.label)
	})

	out := make([]models.ViewEntry, len(rows))
	for i, r := range rows {
		out[i] = r.entry
	}
	return out
}

// Match reports whether text occurs, ignoring case, in the label or package id of e
func Match(e models.AppEntry, text string) bool {
	return match(cases.Fold(), e, Fold(strings.TrimSpace(text)))
}

func match(fold cases.Caser, e models.AppEntry, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(fold.String(e.Label), needle) || strings.Contains(fold.String(e.PackageID), needle)
}

// Filter keeps the entries matching text, preserving order.
// Blank text keeps everything.
func Filter(entries []models.ViewEntry, text string) []models.ViewEntry {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(text))
	out := make([]models.ViewEntry, 0, len(entries))
	for _, e := range entries {
		if match(fold, e.AppEntry, needle) {
			out = append(out, e)
		}
	}
	return out
}

// Build ranks catalog and applies the filter, producing a ViewState
func Build(version uint64, catalog []models.AppEntry, state StateFunc, text string) *models.ViewState {
	return &models.ViewState{
		Version: version,
		Filter:  text,
		Entries: Filter(Rank(catalog, state), text),
		Total:   len(catalog),
	}
}

// HideSetState adapts a HideSet into a StateFunc without pending states
func HideSetState(set models.HideSet) StateFunc {
	return func(pkg string) models.HideState {
		if set.Has(pkg) {
			return models.Hidden
		}
		return models.Visible
	}
}
