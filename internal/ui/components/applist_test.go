package components

import (
	"fmt"
	"strings"
	"testing"

	"hidectl/internal/models"
)

func viewOf(n int) *models.ViewState {
	v := &models.ViewState{Version: 1, Total: n}
	for i := 0; i < n; i++ {
		v.Entries = append(v.Entries, models.ViewEntry{
			AppEntry: models.AppEntry{PackageID: fmt.Sprintf("com.app%d", i), Label: fmt.Sprintf("App %d", i)},
		})
	}
	return v
}

func TestNewAppList(t *testing.T) {
	list := NewAppList()

	if list.Cursor != 0 {
		t.Errorf("Expected cursor at 0, got %d", list.Cursor)
	}
	if list.Rows.Len() != 0 {
		t.Errorf("Expected no rows, got %d", list.Rows.Len())
	}
	if _, ok := list.Current(); ok {
		t.Error("Current should report nothing for an empty list")
	}
	if !strings.Contains(list.View(), "No apps found") {
		t.Error("empty list should say no apps found")
	}
}

func TestAppList_Navigation(t *testing.T) {
	list := NewAppList()
	list.SetView(viewOf(3))

	list.MoveUp()
	if list.Cursor != 0 {
		t.Errorf("cursor should stay at 0, got %d", list.Cursor)
	}
	list.MoveDown()
	list.MoveDown()
	list.MoveDown()
	if list.Cursor != 2 {
		t.Errorf("cursor should stop at 2, got %d", list.Cursor)
	}
	list.GoToFirst()
	if list.Cursor != 0 {
		t.Errorf("GoToFirst: cursor = %d", list.Cursor)
	}
	list.GoToLast()
	if list.Cursor != 2 {
		t.Errorf("GoToLast: cursor = %d", list.Cursor)
	}
}

func TestAppList_Paging(t *testing.T) {
	list := NewAppList()
	list.Height = 8 // page of 5
	list.SetView(viewOf(12))

	list.PageDown()
	if list.Cursor != 5 {
		t.Errorf("PageDown: cursor = %d, want 5", list.Cursor)
	}
	list.PageDown()
	list.PageDown()
	if list.Cursor != 11 {
		t.Errorf("PageDown past end: cursor = %d, want 11", list.Cursor)
	}
	list.PageUp()
	list.PageUp()
	list.PageUp()
	if list.Cursor != 0 {
		t.Errorf("PageUp past start: cursor = %d, want 0", list.Cursor)
	}
}

func TestAppList_SetViewFollowsPackage(t *testing.T) {
	list := NewAppList()
	list.SetView(viewOf(3))
	list.Cursor = 1 // com.app1

	// com.app1 moves to the front after being hidden
	next := viewOf(3)
	next.Entries[0], next.Entries[1] = next.Entries[1], next.Entries[0]
	next.Entries[0].State = models.Hidden
	list.SetView(next)

	cur, ok := list.Current()
	if !ok || cur.PackageID != "com.app1" || list.Cursor != 0 {
		t.Errorf("cursor should follow com.app1, got %d (%+v)", list.Cursor, cur)
	}
}

func TestAppList_SetViewClampsCursor(t *testing.T) {
	list := NewAppList()
	list.SetView(viewOf(5))
	list.Cursor = 4

	list.SetView(viewOf(2))
	if list.Cursor != 1 {
		t.Errorf("cursor should clamp to 1, got %d", list.Cursor)
	}

	list.SetView(nil)
	if list.Cursor != 0 || list.Rows == nil {
		t.Errorf("nil view should reset, cursor = %d", list.Cursor)
	}
}

func TestAppList_View(t *testing.T) {
	list := NewAppList()
	v := viewOf(2)
	v.Entries[0].State = models.Hidden
	v.Entries[1].State = models.PendingHide
	list.SetView(v)

	out := list.View()
	for _, want := range []string{"App 0", "com.app0", "App 1", "com.app1", "2 hidden, 2 shown"} {
		if !strings.Contains(out, want) {
			t.Errorf("View missing %q:\n%s", want, out)
		}
	}
}

func TestAppList_ViewNoMatch(t *testing.T) {
	list := NewAppList()
	list.SetView(&models.ViewState{Filter: "zzz", Total: 4})

	if !strings.Contains(list.View(), `No apps match "zzz"`) {
		t.Errorf("View should report the unmatched filter:\n%s", list.View())
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("a very long label here", 10); got != "a very ..." {
		t.Errorf("truncate = %q", got)
	}
}
