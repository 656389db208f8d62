package history

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"hidectl/internal/models"

	"github.com/go-git/go-git/v5"
)

func openTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "history"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	r.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return r
}

func TestOpen_InitialisesRepository(t *testing.T) {
	r := openTestRecorder(t)

	if _, err := git.PlainOpen(r.Path); err != nil {
		t.Fatalf("history dir is not a git repository: %v", err)
	}

	// Reopening uses the existing repository
	if _, err := Open(r.Path); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
}

func TestLast_EmptyHistory(t *testing.T) {
	r := openTestRecorder(t)

	if _, err := r.Last(); !errors.Is(err, ErrNoHistory) {
		t.Errorf("Last() err = %v, want ErrNoHistory", err)
	}
	log, err := r.Log(5)
	if err != nil || len(log) != 0 {
		t.Errorf("Log on empty history = %v, %v", log, err)
	}
}

func TestRecord_CommitsAndSkipsUnchanged(t *testing.T) {
	r := openTestRecorder(t)
	set := models.NewHideSet("com.b", "com.a")

	changed, err := r.Record(set, "")
	if err != nil || !changed {
		t.Fatalf("first Record = %v, %v", changed, err)
	}

	changed, err = r.Record(set.Clone(), "again")
	if err != nil {
		t.Fatalf("second Record failed: %v", err)
	}
	if changed {
		t.Error("recording an unchanged set should be a no-op")
	}

	last, err := r.Last()
	if err != nil {
		t.Fatalf("Last failed: %v", err)
	}
	if !reflect.DeepEqual(last.Sorted(), []string{"com.a", "com.b"}) {
		t.Errorf("Last = %v", last.Sorted())
	}

	log, err := r.Log(10)
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if len(log) != 1 || log[0].Message != "Snapshot: 2 hidden" {
		t.Errorf("Log = %+v", log)
	}
}

func TestRecord_NewSnapshotOnChange(t *testing.T) {
	r := openTestRecorder(t)

	if _, err := r.Record(models.NewHideSet("com.a"), "first"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Record(models.NewHideSet("com.a", "com.c"), "second"); err != nil {
		t.Fatal(err)
	}

	log, err := r.Log(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(log) != 2 || log[0].Message != "second" || log[1].Message != "first" {
		t.Errorf("Log = %+v", log)
	}
	if len(log[0].Hash) != 7 {
		t.Errorf("short hash = %q", log[0].Hash)
	}

	limited, _ := r.Log(1)
	if len(limited) != 1 {
		t.Errorf("Log(1) returned %d entries", len(limited))
	}
}

func TestLog_ReportsUnreadableHistory(t *testing.T) {
	r := openTestRecorder(t)
	if _, err := r.Record(models.NewHideSet("com.a"), "first"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Record(models.NewHideSet("com.b"), "second"); err != nil {
		t.Fatal(err)
	}

	repo, err := git.PlainOpen(r.Path)
	if err != nil {
		t.Fatal(err)
	}
	head, err := repo.Head()
	if err != nil {
		t.Fatal(err)
	}
	c, err := repo.CommitObject(head.Hash())
	if err != nil {
		t.Fatal(err)
	}
	parent := c.ParentHashes[0].String()
	if err := os.Remove(filepath.Join(r.Path, ".git", "objects", parent[:2], parent[2:])); err != nil {
		t.Fatalf("remove parent commit: %v", err)
	}

	reopened, err := Open(r.Path)
	if err != nil {
		t.Fatal(err)
	}
	if log, err := reopened.Log(10); err == nil {
		t.Errorf("Log with a missing commit = %+v, want error", log)
	}
}

func TestFormatAndParse(t *testing.T) {
	set := models.NewHideSet("org.z", "com.a")
	text := Format(set)
	if text != "com.a\norg.z\n" {
		t.Errorf("Format = %q", text)
	}

	parsed := Parse("# header\n\ncom.a\n  org.z  \n")
	if !reflect.DeepEqual(parsed.Sorted(), []string{"com.a", "org.z"}) {
		t.Errorf("Parse = %v", parsed.Sorted())
	}

	if Format(models.NewHideSet()) != "" {
		t.Error("empty set should format as empty text")
	}
}

func TestDiff(t *testing.T) {
	prev := models.NewHideSet("com.a", "com.b", "com.c")
	cur := models.NewHideSet("com.a", "com.c", "com.d")

	change := Diff(prev, cur)

	if !reflect.DeepEqual(change.Added, []string{"com.d"}) {
		t.Errorf("Added = %v", change.Added)
	}
	if !reflect.DeepEqual(change.Removed, []string{"com.b"}) {
		t.Errorf("Removed = %v", change.Removed)
	}
	for _, want := range []string{"--- previous", "+++ current", "-com.b", "+com.d", " com.a"} {
		if !strings.Contains(change.Unified, want) {
			t.Errorf("Unified missing %q:\n%s", want, change.Unified)
		}
	}
	if change.Summary() != "1 app hidden, 1 app unhidden" {
		t.Errorf("Summary = %q", change.Summary())
	}
}

func TestDiff_Identical(t *testing.T) {
	change := Diff(models.NewHideSet("com.a"), models.NewHideSet("com.a"))
	if !change.Empty() || change.Unified != "" {
		t.Errorf("identical sets should produce an empty change, got %+v", change)
	}
	if change.Summary() != "no changes" {
		t.Errorf("Summary = %q", change.Summary())
	}
}

func TestDiff_FromEmpty(t *testing.T) {
	change := Diff(nil, models.NewHideSet("com.a", "com.b"))
	if !reflect.DeepEqual(change.Added, []string{"com.a", "com.b"}) || len(change.Removed) != 0 {
		t.Errorf("change = %+v", change)
	}
	if change.Summary() != "2 apps hidden" {
		t.Errorf("Summary = %q", change.Summary())
	}
}

func TestRenderer_KeepsContent(t *testing.T) {
	r := NewRenderer()
	text := Diff(models.NewHideSet("com.a"), models.NewHideSet("com.b")).Unified

	out := r.Render(text)

	if got, want := strings.Count(out, "\n"), strings.Count(text, "\n"); got != want {
		t.Errorf("rendered %d lines, want %d", got, want)
	}
	for _, pkg := range []string{"com.a", "com.b"} {
		if !strings.Contains(out, pkg) {
			t.Errorf("rendered output missing %s", pkg)
		}
	}
	if r.Render("") != "" {
		t.Error("empty input should render empty")
	}
}
