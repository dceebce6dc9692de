package staging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touch(t *testing.T, dir, name string, age time.Duration, now time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(name), 0644); err != nil {
		t.Fatal(err)
	}
	mtime := now.Add(-age)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestHelperName(t *testing.T) {
	if got := HelperName("1a2b3c4d"); got != "battly-cleanup-1a2b3c4d.exe" {
		t.Errorf("HelperName() = %s", got)
	}
}

func TestManager_List(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	newest := touch(t, dir, "battly-payload-111.zip", time.Minute, now)
	oldest := touch(t, dir, "battly-cleanup-abcd.exe", 3*time.Hour, now)
	touch(t, dir, "unrelated.zip", 5*time.Hour, now)
	touch(t, dir, "OperaSetup.exe", 5*time.Hour, now)
	if err := os.Mkdir(filepath.Join(dir, "battly-payload-dir.zip"), 0755); err != nil {
		t.Fatal(err)
	}

	files, err := NewManager(dir).List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("List() = %v, want 2 files", files)
	}
	if files[0].Path != newest || files[1].Path != oldest {
		t.Errorf("List() order = [%s %s], want newest first", files[0].Path, files[1].Path)
	}
}

func TestManager_ListMissingDir(t *testing.T) {
	files, err := NewManager(filepath.Join(t.TempDir(), "missing")).List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(files) != 0 {
		t.Errorf("List() = %v, want empty", files)
	}
}

func TestManager_Prune(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	fresh := touch(t, dir, "battly-payload-fresh.zip", 5*time.Minute, now)
	stale := touch(t, dir, "battly-payload-stale.zip", 2*time.Hour, now)
	helper := touch(t, dir, "battly-cleanup-old.exe", 24*time.Hour, now)
	other := touch(t, dir, "keep-me.txt", 48*time.Hour, now)

	m := NewManager(dir)
	m.now = func() time.Time { return now }

	result, err := m.Prune(DefaultMaxAge)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if result.Kept != 1 {
		t.Errorf("Kept = %d, want 1", result.Kept)
	}
	if len(result.Deleted) != 2 {
		t.Errorf("Deleted = %v, want 2", result.Deleted)
	}

	for _, path := range []string{stale, helper} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("%s should have been pruned", path)
		}
	}
	for _, path := range []string{fresh, other} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("%s should remain: %v", path, err)
		}
	}
}

func TestManager_PruneNegativeAge(t *testing.T) {
	if _, err := NewManager(t.TempDir()).Prune(-time.Second); err == nil {
		t.Error("expected error for negative max age")
	}
}
