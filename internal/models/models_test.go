package models

import (
	"reflect"
	"testing"
)

func TestHideSet_Basics(t *testing.T) {
	s := NewHideSet("com.a", "com.b")

	if !s.Has("com.a") || !s.Has("com.b") {
		t.Fatal("expected both members present")
	}
	if s.Has("com.c") {
		t.Error("com.c should not be a member")
	}

	s.Add("com.c")
	s.Remove("com.a")
	if s.Has("com.a") || !s.Has("com.c") {
		t.Errorf("unexpected membership after add/remove: %v", s.Sorted())
	}

	s.Set("com.d", true)
	s.Set("com.b", false)
	if got := s.Sorted(); !reflect.DeepEqual(got, []string{"com.c", "com.d"}) {
		t.Errorf("Sorted() = %v", got)
	}
}

func TestHideSet_CloneIsIndependent(t *testing.T) {
	s := NewHideSet("com.a")
	c := s.Clone()
	c.Add("com.b")

	if s.Has("com.b") {
		t.Error("mutating clone must not affect original")
	}
	if !c.Has("com.a") {
		t.Error("clone should carry original members")
	}
}

func TestHideState(t *testing.T) {
	tests := []struct {
		state   HideState
		hidden  bool
		pending bool
		name    string
	}{
		{Visible, false, false, "visible"},
		{Hidden, true, false, "hidden"},
		{PendingHide, true, true, "pending-hide"},
		{PendingUnhide, false, true, "pending-unhide"},
	}

	for _, tt := range tests {
		if tt.state.Hidden() != tt.hidden {
			t.Errorf("%s.Hidden() = %v, want %v", tt.name, tt.state.Hidden(), tt.hidden)
		}
		if tt.state.Pending() != tt.pending {
			t.Errorf("%s.Pending() = %v, want %v", tt.name, tt.state.Pending(), tt.pending)
		}
		if tt.state.String() != tt.name {
			t.Errorf("String() = %q, want %q", tt.state.String(), tt.name)
		}
	}
}

func TestValidPackageID(t *testing.T) {
	valid := []string{"android", "com.whatsapp", "org.telegram.messenger", "com.app_2.x"}
	invalid := []string{"", "1com.app", "com..app", "com.app;reboot", "com app", ".com", "com.app."}

	for _, id := range valid {
		if !ValidPackageID(id) {
			t.Errorf("ValidPackageID(%q) = false, want true", id)
		}
	}
	for _, id := range invalid {
		if ValidPackageID(id) {
			t.Errorf("ValidPackageID(%q) = true, want false", id)
		}
	}
}

func TestIsDenied(t *testing.T) {
	if !IsDenied("com.google.android.webview") {
		t.Error("webview must be denied")
	}
	if IsDenied("com.whatsapp") {
		t.Error("com.whatsapp must not be denied")
	}

	list := DenyList()
	list[0] = "mutated"
	if IsDenied("mutated") {
		t.Error("DenyList() must return a copy")
	}
}

func TestViewState_Accessors(t *testing.T) {
	v := &ViewState{Entries: []ViewEntry{
		{AppEntry: AppEntry{PackageID: "com.b", Label: "B"}, State: Hidden},
		{AppEntry: AppEntry{PackageID: "com.a"}, State: Visible},
	}}

	if v.Len() != 2 {
		t.Fatalf("Len() = %d", v.Len())
	}
	if e, ok := v.At(0); !ok || e.PackageID != "com.b" || !e.Hidden() {
		t.Errorf("At(0) = %+v, %v", e, ok)
	}
	if _, ok := v.At(2); ok {
		t.Error("At(2) should be out of range")
	}
	if v.Find("com.a") != 1 || v.Find("com.x") != -1 {
		t.Error("Find returned wrong index")
	}
	if v.HiddenCount() != 1 {
		t.Errorf("HiddenCount() = %d", v.HiddenCount())
	}
	if e, _ := v.At(1); e.DisplayLabel() != "com.a" {
		t.Errorf("DisplayLabel() should fall back to package id, got %q", e.DisplayLabel())
	}

	var nilView *ViewState
	if nilView.Len() != 0 || nilView.Find("x") != -1 {
		t.Error("nil ViewState should behave as empty")
	}
}
