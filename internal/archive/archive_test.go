package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/tecnobros/battly-setup/internal/progress"
	"github.com/tecnobros/battly-setup/internal/types"
)

type entry struct {
	name    string
	content string
}

func buildZip(t *testing.T, entries []entry) *bytes.Reader {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatalf("Create(%q) error = %v", e.name, err)
		}
		if _, err := w.Write([]byte(e.content)); err != nil {
			t.Fatalf("Write(%q) error = %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func expand(t *testing.T, r *bytes.Reader, dest string, opts Options) (*Result, error) {
	t.Helper()
	return Expand(context.Background(), r, r.Size(), dest, opts)
}

func TestResolve(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name    string
		entry   string
		want    string
		wantErr bool
	}{
		{name: "plain file", entry: "app.exe", want: filepath.Join(root, "app.exe")},
		{name: "nested", entry: "resources/app.asar", want: filepath.Join(root, "resources", "app.asar")},
		{name: "directory", entry: "locales/", want: filepath.Join(root, "locales")},
		{name: "backslash separator", entry: `resources\app.asar`, want: filepath.Join(root, "resources", "app.asar")},
		{name: "inner dotdot stays inside", entry: "a/../b.txt", want: filepath.Join(root, "b.txt")},
		{name: "parent", entry: "../evil.txt", wantErr: true},
		{name: "nested escape", entry: "a/../../evil.txt", wantErr: true},
		{name: "backslash escape", entry: `..\evil.txt`, wantErr: true},
		{name: "absolute", entry: "/etc/evil", wantErr: true},
		{name: "empty", entry: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(root, tt.entry)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsafePath) {
					t.Errorf("Resolve(%q) error = %v, want ErrUnsafePath", tt.entry, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.entry, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %s, want %s", tt.entry, got, tt.want)
			}
		})
	}
}

func TestExpandRoundTrip(t *testing.T) {
	entries := []entry{
		{name: "Battly Launcher 4 Hytale.exe", content: "MZ binary"},
		{name: "resources/", content: ""},
		{name: "resources/app.asar", content: "asar contents"},
		{name: "locales/en-US.pak", content: "english"},
		{name: "locales/es-ES.pak", content: "spanish"},
	}
	dest := filepath.Join(t.TempDir(), "install")

	result, err := expand(t, buildZip(t, entries), dest, Options{})
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}

	if len(result.Files) != 4 {
		t.Errorf("Files = %v, want 4 entries", result.Files)
	}
	if len(result.Dirs) != 1 {
		t.Errorf("Dirs = %v, want 1 entry", result.Dirs)
	}

	var found int
	err = filepath.WalkDir(dest, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			found++
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if found != 4 {
		t.Errorf("destination holds %d files, want 4", found)
	}

	for _, e := range entries {
		if e.content == "" {
			continue
		}
		got, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(e.name)))
		if err != nil {
			t.Errorf("missing %s: %v", e.name, err)
			continue
		}
		if string(got) != e.content {
			t.Errorf("%s = %q, want %q", e.name, got, e.content)
		}
	}
}

func TestExpandSkipsTraversal(t *testing.T) {
	base := t.TempDir()
	dest := filepath.Join(base, "install")

	entries := []entry{
		{name: "first.txt", content: "1"},
		{name: "../evil.txt", content: "pwned"},
		{name: "nested/../../evil2.txt", content: "pwned"},
		{name: "last.txt", content: "2"},
	}

	result, err := expand(t, buildZip(t, entries), dest, Options{})
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}

	if len(result.Skipped) != 2 {
		t.Errorf("Skipped = %v, want 2 entries", result.Skipped)
	}
	for _, name := range []string{"evil.txt", "evil2.txt"} {
		if _, err := os.Stat(filepath.Join(base, name)); !os.IsNotExist(err) {
			t.Errorf("%s should not have been written", name)
		}
	}
	for _, name := range []string{"first.txt", "last.txt"} {
		if _, err := os.Stat(filepath.Join(dest, name)); err != nil {
			t.Errorf("%s should have been extracted: %v", name, err)
		}
	}
}

func TestExpandOverwrites(t *testing.T) {
	dest := t.TempDir()
	path := filepath.Join(dest, "config.json")
	if err := os.WriteFile(path, []byte("a much longer previous content"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := expand(t, buildZip(t, []entry{{name: "config.json", content: "{}"}}), dest, Options{}); err != nil {
		t.Fatalf("Expand() error = %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "{}" {
		t.Errorf("content = %q, want %q", got, "{}")
	}
}

func TestExpandMalformed(t *testing.T) {
	r := bytes.NewReader([]byte("this is not a zip archive"))
	_, err := Expand(context.Background(), r, r.Size(), t.TempDir(), Options{})
	if err == nil {
		t.Error("expected error for malformed archive")
	}
}

func TestExpandWriteFailureIsFatal(t *testing.T) {
	dest := t.TempDir()
	// A directory where a file entry should go cannot be opened for writing.
	if err := os.MkdirAll(filepath.Join(dest, "blocked"), 0755); err != nil {
		t.Fatal(err)
	}

	entries := []entry{
		{name: "blocked", content: "x"},
		{name: "after.txt", content: "y"},
	}
	if _, err := expand(t, buildZip(t, entries), dest, Options{}); err == nil {
		t.Fatal("expected error when a file cannot be written")
	}
	if _, err := os.Stat(filepath.Join(dest, "after.txt")); !os.IsNotExist(err) {
		t.Error("expansion should stop at the first write failure")
	}
}

func TestExpandCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := buildZip(t, []entry{{name: "a.txt", content: "a"}})
	dest := t.TempDir()

	_, err := Expand(ctx, r, r.Size(), dest, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expand() error = %v, want context.Canceled", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "a.txt")); !os.IsNotExist(err) {
		t.Error("no entry should be written after cancellation")
	}
}

func TestExpandProgress(t *testing.T) {
	var entries []entry
	for i := 0; i < 25; i++ {
		entries = append(entries, entry{name: fmt.Sprintf("file%02d.bin", i), content: "x"})
	}

	type report struct {
		fraction float64
		status   types.StatusKey
	}
	var reports []report
	up := progress.UpdaterFunc(func(f float64, s types.StatusKey, _ string) {
		reports = append(reports, report{f, s})
	})

	if _, err := expand(t, buildZip(t, entries), t.TempDir(), DefaultOptions(up)); err != nil {
		t.Fatalf("Expand() error = %v", err)
	}

	want := []report{
		{0.6, types.StatusExtracting},
		{0.6 + 0.3*10/25, types.StatusInstalling},
		{0.6 + 0.3*20/25, types.StatusInstalling},
		{0.9, types.StatusInstalling},
	}
	if len(reports) != len(want) {
		t.Fatalf("got %d reports, want %d: %v", len(reports), len(want), reports)
	}
	for i := range want {
		if reports[i].status != want[i].status {
			t.Errorf("report %d status = %s, want %s", i, reports[i].status, want[i].status)
		}
		if diff := reports[i].fraction - want[i].fraction; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("report %d fraction = %v, want %v", i, reports[i].fraction, want[i].fraction)
		}
	}
}

func TestExpandFile(t *testing.T) {
	r := buildZip(t, []entry{{name: "a.txt", content: "a"}})
	data := make([]byte, r.Size())
	if _, err := r.ReadAt(data, 0); err != nil {
		t.Fatal(err)
	}

	staging := filepath.Join(t.TempDir(), "payload.zip")
	if err := os.WriteFile(staging, data, 0644); err != nil {
		t.Fatal(err)
	}

	dest := t.TempDir()
	result, err := ExpandFile(context.Background(), staging, dest, Options{})
	if err != nil {
		t.Fatalf("ExpandFile() error = %v", err)
	}
	if len(result.Files) != 1 || result.Files[0] != "a.txt" {
		t.Errorf("Files = %v", result.Files)
	}
}
