package models

// ViewEntry is one row of a ViewState
type ViewEntry struct {
	AppEntry
	State HideState
}

// Hidden reports whether the row is displayed as hidden
func (e ViewEntry) Hidden() bool {
	return e.State.Hidden()
}

// ViewState is an immutable, ordered snapshot read by the presentation layer.
// A published ViewState is never modified; every change produces a new one.
type ViewState struct {
	Version uint64
	Filter  string
	Entries []ViewEntry
	Total   int // Catalog size before filtering
}

// Len returns the number of rows
func (v *ViewState) Len() int {
	if v == nil {
		return 0
	}
	return len(v.Entries)
}

// At returns the row at index i
func (v *ViewState) At(i int) (ViewEntry, bool) {
	if v == nil || i < 0 || i >= len(v.Entries) {
		return ViewEntry{}, false
	}
	return v.Entries[i], true
}

// Find returns the index of the row for pkg, or -1
func (v *ViewState) Find(pkg string) int {
	if v == nil {
		return -1
	}
	for i, e := range v.Entries {
		if e.PackageID == pkg {
			return i
		}
	}
	return -1
}

// HiddenCount returns the number of rows displayed as hidden
func (v *ViewState) HiddenCount() int {
	if v == nil {
		return 0
	}
	n := 0
	for _, e := range v.Entries {
		if e.Hidden() {
			n++
		}
	}
	return n
}
