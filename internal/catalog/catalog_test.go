package catalog

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"hidectl/internal/shell"

	"golang.org/x/text/language"
)

type fakeRegistry struct {
	records []Record
	err     error
}

func (f *fakeRegistry) Installed(ctx context.Context) ([]Record, error) {
	return f.records, f.err
}

type fakeResolver map[string]string

func (f fakeResolver) Resolve(ctx context.Context, ref string, tag language.Tag) (string, error) {
	if label, ok := f[ref]; ok {
		return label, nil
	}
	return "", errors.New("not found")
}

func ids(t *testing.T, entries []Record) []string {
	t.Helper()
	var out []string
	for _, e := range entries {
		out = append(out, e.PackageID)
	}
	return out
}

func TestLoader_ExcludesDeniedDisabledAndDuplicates(t *testing.T) {
	reg := &fakeRegistry{records: []Record{
		{PackageID: "com.z", Enabled: true, RawLabel: "Zeta"},
		{PackageID: "com.google.android.webview", Enabled: true},
		{PackageID: "com.off", Enabled: false},
		{PackageID: "com.a", Enabled: true, RawLabel: "Alpha"},
		{PackageID: "com.z", Enabled: true, RawLabel: "Duplicate"},
		{PackageID: "com.user.denied", Enabled: true},
	}}
	l := NewLoader(reg, nil, language.English)
	l.Deny = func(pkg string) bool { return pkg == "com.user.denied" }

	entries, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	var got []string
	for _, e := range entries {
		got = append(got, e.PackageID+"="+e.Label)
	}
	want := []string{"com.z=Zeta", "com.a=Alpha"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() = %v, want %v", got, want)
	}
}

func TestLoader_LabelResolutionFallsBack(t *testing.T) {
	reg := &fakeRegistry{records: []Record{
		{PackageID: "com.a", Enabled: true, LabelRef: "com.a", RawLabel: "raw a"},
		{PackageID: "com.b", Enabled: true, LabelRef: "com.b", RawLabel: "raw b"},
		{PackageID: "com.c", Enabled: true, LabelRef: "com.c"},
	}}
	l := NewLoader(reg, fakeResolver{"com.a": "Resolved A"}, language.English)
	l.Workers = 2

	entries, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Label != "Resolved A" {
		t.Errorf("entries[0].Label = %q", entries[0].Label)
	}
	if entries[1].Label != "raw b" {
		t.Errorf("entries[1].Label = %q, want raw fallback", entries[1].Label)
	}
	if entries[2].Label != "com.c" {
		t.Errorf("entries[2].Label = %q, want package id fallback", entries[2].Label)
	}
}

func TestLoader_PreservesOrderUnderConcurrency(t *testing.T) {
	var records []Record
	for _, c := range "abcdefghijklmnopqrstuvwxyz" {
		records = append(records, Record{PackageID: "com." + string(c), Enabled: true, LabelRef: "x"})
	}
	l := NewLoader(&fakeRegistry{records: records}, fakeResolver{}, language.English)
	l.Workers = 4

	entries, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for i, e := range entries {
		if e.PackageID != records[i].PackageID {
			t.Fatalf("entries[%d] = %s, want %s", i, e.PackageID, records[i].PackageID)
		}
	}
}

func TestLoader_RegistryFailure(t *testing.T) {
	l := NewLoader(&fakeRegistry{err: errors.New("pm died")}, nil, language.English)

	_, err := l.Load(context.Background())
	if !errors.Is(err, ErrLoadFailed) {
		t.Fatalf("expected ErrLoadFailed, got %v", err)
	}
}

type scriptedRunner map[string]shell.Result

func (s scriptedRunner) Run(ctx context.Context, command string) (shell.Result, error) {
	res, ok := s[command]
	if !ok {
		return shell.Result{}, shell.ErrChannel
	}
	return res, nil
}

func TestPackageManager_Installed(t *testing.T) {
	runner := scriptedRunner{
		"pm list packages --user 0": {Lines: []string{
			"package:com.whatsapp",
			"package:com.android.settings",
			"package:org.disabled.app",
		}},
		"pm list packages -d --user 0": {Lines: []string{"package:org.disabled.app"}},
	}
	pm := NewPackageManager(runner, 0)

	records, err := pm.Installed(context.Background())
	if err != nil {
		t.Fatalf("Installed() error = %v", err)
	}
	if got := ids(t, records); !reflect.DeepEqual(got, []string{"com.whatsapp", "com.android.settings", "org.disabled.app"}) {
		t.Errorf("ids = %v", got)
	}
	if !records[0].Enabled || records[2].Enabled {
		t.Errorf("enabled flags wrong: %+v", records)
	}
	if records[0].LabelRef != "com.whatsapp" || records[0].RawLabel != "Whatsapp" {
		t.Errorf("unexpected label fields: %+v", records[0])
	}
}

func TestPackageManager_Failure(t *testing.T) {
	pm := NewPackageManager(scriptedRunner{"pm list packages": {ExitCode: 255}}, -1)

	if _, err := pm.Installed(context.Background()); err == nil || !strings.Contains(err.Error(), "exited with 255") {
		t.Fatalf("expected exit failure, got %v", err)
	}
}

func TestParsePackages(t *testing.T) {
	lines := []string{
		"package:com.a",
		"package:/data/app/~~x==/com.b-1/base.apk=com.b",
		"WARNING: linker noise",
		"",
	}
	got := ParsePackages(lines)
	if !reflect.DeepEqual(got, []string{"com.a", "com.b"}) {
		t.Errorf("ParsePackages = %v", got)
	}
}

func TestLabelFromPackage(t *testing.T) {
	tests := map[string]string{
		"com.google.android.youtube": "Google Youtube",
		"com.whatsapp":               "Whatsapp",
		"org.telegram.messenger":     "Telegram Messenger",
		"com.android":                "Android",
		"android":                    "Android",
	}
	for in, want := range tests {
		if got := LabelFromPackage(in); got != want {
			t.Errorf("LabelFromPackage(%q) = %q, want %q", in, got, want)
		}
	}
}
