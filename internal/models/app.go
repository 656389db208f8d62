package models

import (
	"regexp"
	"sort"
)

// AppEntry represents one installed application relevant to hiding
type AppEntry struct {
	PackageID string // Unique identifier within one catalog snapshot
	Label     string // Locale-resolved display name
	Enabled   bool   // Disabled apps never reach the catalog
}

// DisplayLabel returns the label, falling back to the package id
func (a AppEntry) DisplayLabel() string {
	if a.Label == "" {
		return a.PackageID
	}
	return a.Label
}

// HideState is the hidden status of a single entry as shown to the user
type HideState int

const (
	Visible HideState = iota
	Hidden
	PendingHide   // Hide requested, gateway has not answered yet
	PendingUnhide // Unhide requested, gateway has not answered yet
)

// Hidden reports whether the entry is displayed as hidden
func (s HideState) Hidden() bool {
	return s == Hidden || s == PendingHide
}

// Pending reports whether a gateway mutation is in flight
func (s HideState) Pending() bool {
	return s == PendingHide || s == PendingUnhide
}

// String returns the string representation of the state
func (s HideState) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case PendingHide:
		return "pending-hide"
	case PendingUnhide:
		return "pending-unhide"
	default:
		return "visible"
	}
}

// HideSet is the set of package ids flagged hidden
type HideSet map[string]struct{}

// NewHideSet creates a HideSet from the given ids
func NewHideSet(ids ...string) HideSet {
	s := make(HideSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership
func (s HideSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add adds id to the set
func (s HideSet) Add(id string) {
	s[id] = struct{}{}
}

// Remove removes id from the set
func (s HideSet) Remove(id string) {
	delete(s, id)
}

// Set adds or removes id
func (s HideSet) Set(id string, hidden bool) {
	if hidden {
		s.Add(id)
	} else {
		s.Remove(id)
	}
}

// Clone returns an independent copy
func (s HideSet) Clone() HideSet {
	c := make(HideSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// Sorted returns the members in lexical order
func (s HideSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// packageIDPattern matches Android application ids, plus the bare "android" system package
var packageIDPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(\.[A-Za-z0-9_]+)*$`)

// ValidPackageID reports whether id looks like an Android package name
func ValidPackageID(id string) bool {
	return len(id) <= 255 && packageIDPattern.MatchString(id)
}
