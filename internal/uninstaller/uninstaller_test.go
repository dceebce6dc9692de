package uninstaller

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/tecnobros/battly-setup/internal/config"
	"github.com/tecnobros/battly-setup/internal/platform"
	"github.com/tecnobros/battly-setup/internal/registrar"
	"github.com/tecnobros/battly-setup/internal/types"
)

type fakeRegistry struct {
	records   map[string]registrar.Record
	deleteErr error
}

func (f *fakeRegistry) Write(rec registrar.Record) error {
	f.records[rec.Key] = rec
	return nil
}

func (f *fakeRegistry) Read(key string) (registrar.Record, error) {
	rec, ok := f.records[key]
	if !ok {
		return registrar.Record{}, registrar.ErrNotFound
	}
	return rec, nil
}

func (f *fakeRegistry) Delete(key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.records, key)
	return nil
}

type fileShortcuts struct {
	removeErr error
}

func (fileShortcuts) Create(link registrar.Link) error {
	return os.WriteFile(link.Path, []byte(link.Target), 0644)
}

func (f fileShortcuts) Remove(path string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// inlineScheduler deletes immediately, standing in for the helper.
type inlineScheduler struct {
	called bool
	err    error
}

func (s *inlineScheduler) Schedule(root string) error {
	s.called = true
	if s.err != nil {
		return s.err
	}
	return Cleanup(context.Background(), root, 0, 0)
}

type recorder struct {
	events []types.Event
}

func (r *recorder) Track(e types.Event, _ map[string]any) {
	r.events = append(r.events, e)
}

type installed struct {
	u         *Uninstaller
	registry  *fakeRegistry
	scheduler *inlineScheduler
	shortcuts []string
}

func newInstalled(t *testing.T) *installed {
	t.Helper()

	base := t.TempDir()
	locs := platform.Locations{
		LocalAppData: filepath.Join(base, "Local"),
		Desktop:      filepath.Join(base, "Desktop"),
		StartMenu:    filepath.Join(base, "Programs"),
		Temp:         filepath.Join(base, "Temp"),
	}
	target := config.NewTarget(locs.LocalAppData)

	for _, dir := range []string{locs.Desktop, locs.StartMenu, filepath.Join(target.Root, "resources")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(target.Executable(), []byte("MZ"), 0755); err != nil {
		t.Fatal(err)
	}

	reg := &fakeRegistry{records: map[string]registrar.Record{}}
	if err := reg.Write(registrar.RecordFor(target)); err != nil {
		t.Fatal(err)
	}

	paths := registrar.ShortcutPaths(locs, target)
	for _, p := range paths {
		if err := (fileShortcuts{}).Create(registrar.Link{Path: p, Target: target.Executable()}); err != nil {
			t.Fatal(err)
		}
	}

	sched := &inlineScheduler{}
	return &installed{
		u: &Uninstaller{
			Target:    target,
			Locations: locs,
			Registry:  reg,
			Shortcuts: fileShortcuts{},
			Scheduler: sched,
		},
		registry:  reg,
		scheduler: sched,
		shortcuts: paths,
	}
}

func TestRunRemovesEverything(t *testing.T) {
	in := newInstalled(t)
	rec := &recorder{}
	in.u.Recorder = rec

	if err := in.u.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, p := range in.shortcuts {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("shortcut %s still exists", p)
		}
	}
	if _, err := registrar.Lookup(in.registry, in.u.Target); !errors.Is(err, registrar.ErrNotFound) {
		t.Errorf("registration record still present: %v", err)
	}
	if _, err := os.Stat(in.u.Target.Root); !os.IsNotExist(err) {
		t.Error("install root still exists")
	}

	want := []types.Event{types.EventUninstallStarted, types.EventUninstallComplete}
	if !reflect.DeepEqual(rec.events, want) {
		t.Errorf("events = %v, want %v", rec.events, want)
	}
}

func TestRunMissingArtifactsIsNotAnError(t *testing.T) {
	in := newInstalled(t)
	for _, p := range in.shortcuts {
		_ = os.Remove(p)
	}

	if err := in.u.Run(context.Background()); err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

func TestRunContinuesAfterFailures(t *testing.T) {
	in := newInstalled(t)
	in.u.Shortcuts = fileShortcuts{removeErr: errors.New("locked")}
	in.registry.deleteErr = errors.New("access denied")

	err := in.u.Run(context.Background())
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if !in.scheduler.called {
		t.Error("deferred deletion must still be scheduled")
	}
	for _, want := range []string{"locked", "access denied"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %q", err, want)
		}
	}
}

func TestRunSchedulerFailure(t *testing.T) {
	in := newInstalled(t)
	in.scheduler.err = errors.New("no temp dir")

	err := in.u.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "deferred deletion") {
		t.Errorf("Run() error = %v, want deferred deletion failure", err)
	}
}

type fakeStarter struct {
	name string
	args []string
	err  error
}

func (f *fakeStarter) Start(name string, args ...string) (int, error) {
	f.name, f.args = name, args
	return 99, f.err
}

func TestHelperSchedulerSchedule(t *testing.T) {
	tmp := t.TempDir()
	starter := &fakeStarter{}
	var copied string

	s := &HelperScheduler{
		TempDir: tmp,
		Delay:   3 * time.Second,
		PID:     1234,
		Starter: starter,
		Copy: func(dst string) error {
			copied = dst
			return os.WriteFile(dst, []byte("helper"), 0755)
		},
	}

	root := filepath.Join("C:", "Local", config.AppFolderName)
	if err := s.Schedule(root); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	if filepath.Dir(copied) != tmp {
		t.Errorf("helper staged at %s, want inside %s", copied, tmp)
	}
	if starter.name != copied {
		t.Errorf("started %s, want %s", starter.name, copied)
	}
	want := []string{"cleanup", "--path", root, "--wait-pid", "1234", "--delay", "3s"}
	if !reflect.DeepEqual(starter.args, want) {
		t.Errorf("args = %v, want %v", starter.args, want)
	}
}

func TestHelperSchedulerStartFailureRemovesHelper(t *testing.T) {
	tmp := t.TempDir()
	s := &HelperScheduler{
		TempDir: tmp,
		Starter: &fakeStarter{err: errors.New("blocked")},
		Copy: func(dst string) error {
			return os.WriteFile(dst, []byte("helper"), 0755)
		},
	}

	if err := s.Schedule(filepath.Join(tmp, config.AppFolderName)); err == nil {
		t.Fatal("expected error")
	}
	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("helper should be removed, found %d entries", len(entries))
	}
}

func TestCleanupRemovesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), config.AppFolderName)
	if err := os.MkdirAll(filepath.Join(root, "a", "b"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "a", "b", "c.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Cleanup(context.Background(), root, 0, 10*time.Millisecond); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Error("root still exists")
	}
}

func TestCleanupMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), config.AppFolderName)
	if err := Cleanup(context.Background(), root, 0, 0); err != nil {
		t.Errorf("Cleanup() of a missing root error = %v", err)
	}
}

func TestCleanupRefusesOtherPaths(t *testing.T) {
	dir := t.TempDir()
	for _, path := range []string{dir, "relative/" + config.AppFolderName, ""} {
		if err := Cleanup(context.Background(), path, 0, 0); err == nil {
			t.Errorf("Cleanup(%q) should refuse", path)
		}
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("refused directory was touched: %v", err)
	}
}

func TestCleanupWaitsForProcess(t *testing.T) {
	root := filepath.Join(t.TempDir(), config.AppFolderName)
	if err := os.MkdirAll(root, 0755); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// The current process never exits during the test.
	if err := Cleanup(ctx, root, os.Getpid(), 0); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Cleanup() error = %v, want deadline exceeded", err)
	}
	if _, err := os.Stat(root); err != nil {
		t.Error("root must not be removed while the process is alive")
	}
}

func TestHelperArgs(t *testing.T) {
	got := HelperArgs("root", 7, DefaultDelay)
	want := []string{"cleanup", "--path", "root", "--wait-pid", "7", "--delay", "2s"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("HelperArgs() = %v, want %v", got, want)
	}
}
