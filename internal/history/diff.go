package history

import (
	"fmt"
	"strings"

	"hidectl/internal/models"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Change is the difference between two hide-list snapshots
type Change struct {
	Added   []string
	Removed []string
	Unified string
}

// Empty reports whether the snapshots were identical
func (c *Change) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}

// Summary returns a short description of the change
func (c *Change) Summary() string {
	if c.Empty() {
		return "no changes"
	}
	var parts []string
	if len(c.Added) > 0 {
		parts = append(parts, pluralize(len(c.Added), "hidden"))
	}
	if len(c.Removed) > 0 {
		parts = append(parts, pluralize(len(c.Removed), "unhidden"))
	}
	return strings.Join(parts, ", ")
}

func pluralize(n int, verb string) string {
	if n == 1 {
		return "1 app " + verb
	}
	return fmt.Sprintf("%d apps %s", n, verb)
}

// Diff compares two snapshots line by line
func Diff(prev, cur models.HideSet) *Change {
	oldText, newText := Format(prev), Format(cur)

	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffMain(chars1, chars2, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	change := &Change{}
	var b strings.Builder
	b.WriteString("--- previous\n+++ current\n")

	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				change.Added = append(change.Added, line)
				b.WriteString("+" + line + "\n")
			case diffmatchpatch.DiffDelete:
				change.Removed = append(change.Removed, line)
				b.WriteString("-" + line + "\n")
			default:
				b.WriteString(" " + line + "\n")
			}
		}
	}

	if change.Empty() {
		return &Change{}
	}
	change.Unified = b.String()
	return change
}
