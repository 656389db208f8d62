package shell

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestQuote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"magiskhide --ls", `'magiskhide --ls'`},
		{"it's", `'it'\''s'`},
		{"", `''`},
	}
	for _, tt := range tests {
		if got := Quote(tt.in); got != tt.want {
			t.Errorf("Quote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestSplitLines(t *testing.T) {
	got := splitLines([]byte("a\r\nb\n\nc\n"))
	want := []string{"a", "b", "", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitLines = %q, want %q", got, want)
	}
	if splitLines(nil) != nil {
		t.Error("empty output should give nil lines")
	}
}

func TestADB_Args(t *testing.T) {
	a := NewADB("", "emulator-5554", true)
	got := a.Args("magiskhide --ls")
	want := []string{"-s", "emulator-5554", "shell", `su -c 'magiskhide --ls'; echo __exit:$?`}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Args = %q, want %q", got, want)
	}

	a = NewADB("", "", false)
	got = a.Args("pm list packages")
	want = []string{"shell", "pm list packages; echo __exit:$?"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Args = %q, want %q", got, want)
	}
}

func TestADB_Run_ParsesExitStatus(t *testing.T) {
	a := NewADB("/opt/adb", "", true)
	var gotName string
	a.exec = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotName = name
		return []byte("com.a\r\ncom.b\r\n__exit:0\r\n"), nil
	}

	res, err := a.Run(context.Background(), "magiskhide --ls")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if gotName != "/opt/adb" {
		t.Errorf("binary = %q, want /opt/adb", gotName)
	}
	if !res.OK() {
		t.Errorf("expected exit 0, got %d", res.ExitCode)
	}
	if !reflect.DeepEqual(res.Lines, []string{"com.a", "com.b"}) {
		t.Errorf("Lines = %q", res.Lines)
	}
}

func TestADB_Run_NonZeroExit(t *testing.T) {
	a := NewADB("adb", "", true)
	a.exec = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("Permission denied\n__exit:1\n"), nil
	}

	res, err := a.Run(context.Background(), "magiskhide --add com.a")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", res.ExitCode)
	}
}

func TestADB_Run_ChannelFailure(t *testing.T) {
	a := NewADB("adb", "", true)
	a.exec = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("error: no devices/emulators found")
	}

	_, err := a.Run(context.Background(), "magiskhide --ls")
	if !errors.Is(err, ErrChannel) {
		t.Fatalf("expected ErrChannel, got %v", err)
	}
}

func TestADB_Run_MissingMarker(t *testing.T) {
	a := NewADB("adb", "", false)
	a.exec = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("garbage\n"), nil
	}

	if _, err := a.Run(context.Background(), "true"); !errors.Is(err, ErrChannel) {
		t.Fatalf("expected ErrChannel, got %v", err)
	}
}

func TestLocal_Run(t *testing.T) {
	l := NewLocal(false)

	res, err := l.Run(context.Background(), "echo one; echo two")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !reflect.DeepEqual(res.Lines, []string{"one", "two"}) {
		t.Errorf("Lines = %q", res.Lines)
	}

	res, err = l.Run(context.Background(), "exit 3")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
}

func TestLocal_Run_MissingBinary(t *testing.T) {
	l := NewLocal(true)
	l.exec = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New(`exec: "su": executable file not found in $PATH`)
	}

	if _, err := l.Run(context.Background(), "id"); !errors.Is(err, ErrChannel) {
		t.Fatalf("expected ErrChannel, got %v", err)
	}
}
