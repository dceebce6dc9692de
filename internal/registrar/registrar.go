// Package registrar makes an installed application visible to the operating
// system: it places the uninstaller, writes the registration record and
// creates shortcuts.
package registrar

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/tecnobros/battly-setup/internal/config"
	"github.com/tecnobros/battly-setup/internal/platform"
	"github.com/tecnobros/battly-setup/internal/progress"
	"github.com/tecnobros/battly-setup/internal/types"
)

// ShortcutsFraction is the overall progress reported before shortcuts are
// created.
const ShortcutsFraction = 0.95

// Registrar runs the registration sub-steps. Each sub-step is best-effort.
type Registrar struct {
	Registry   Registry
	Shortcuts  Shortcuts
	Locations  platform.Locations
	Executable func() (string, error)
	// Version, when known, is recorded as the installed DisplayVersion.
	Version string
}

// New creates a registrar backed by the platform's primitives.
func New(locs platform.Locations) *Registrar {
	return &Registrar{
		Registry:   NewRegistry(),
		Shortcuts:  NewShortcuts(),
		Locations:  locs,
		Executable: os.Executable,
	}
}

// Register copies the running binary into the install root as the
// uninstaller, writes the registration record and creates shortcuts. A
// failure in one sub-step never prevents the others; every failure is
// returned as a warning.
func (r *Registrar) Register(ctx context.Context, target config.Target, rep progress.Tracker) []error {
	var warnings []error

	if err := r.copyUninstaller(target); err != nil {
		log.Warnf("failed to place uninstaller: %v", err)
		warnings = append(warnings, err)
	}

	rec := RecordFor(target)
	rec.DisplayVersion = r.Version
	if err := r.Registry.Write(rec); err != nil {
		log.Warnf("failed to write registration record: %v", err)
		warnings = append(warnings, fmt.Errorf("registration record: %w", err))
	} else {
		rep.Track(types.EventUninstallerRegistered)
	}

	if err := ctx.Err(); err != nil {
		return append(warnings, err)
	}

	rep.Report(ShortcutsFraction, types.StatusShortcuts, "")
	created, errs := r.createShortcuts(target)
	warnings = append(warnings, errs...)
	if created > 0 {
		rep.Track(types.EventShortcutsCreated)
	}

	return warnings
}

// copyUninstaller copies the running executable to the target's
// uninstaller path.
func (r *Registrar) copyUninstaller(target config.Target) error {
	exe, err := r.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate running executable: %w", err)
	}
	if err := copyFile(exe, target.Uninstaller()); err != nil {
		return fmt.Errorf("failed to copy uninstaller: %w", err)
	}
	log.Debugf("copied %s to %s", exe, target.Uninstaller())
	return nil
}

func (r *Registrar) createShortcuts(target config.Target) (int, []error) {
	var (
		created int
		errs    []error
	)
	for _, path := range ShortcutPaths(r.Locations, target) {
		if !platform.Exists(filepath.Dir(path)) {
			log.Debugf("skipping shortcut %s: location does not exist", path)
			continue
		}
		link := Link{
			Path:        path,
			Target:      target.Executable(),
			Icon:        target.Executable(),
			WorkingDir:  target.Root,
			Description: target.DisplayName,
		}
		if err := r.Shortcuts.Create(link); err != nil {
			log.Warnf("failed to create shortcut %s: %v", path, err)
			errs = append(errs, fmt.Errorf("shortcut %s: %w", path, err))
			continue
		}
		created++
	}
	return created, errs
}

// ShortcutPaths returns the desktop and start-menu shortcut paths for the
// target. Unknown locations are omitted.
func ShortcutPaths(locs platform.Locations, target config.Target) []string {
	var paths []string
	for _, dir := range []string{locs.Desktop, locs.StartMenu} {
		if dir == "" {
			continue
		}
		paths = append(paths, filepath.Join(dir, target.ShortcutFile()))
	}
	return paths
}

// copyFile copies src to dst with executable permissions, replacing dst.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer func() {
		if cerr := in.Close(); cerr != nil {
			log.Warnf("failed to close source file %s: %v", src, cerr)
		}
	}()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", dst, err)
	}

	out, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0755)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", dst, cerr)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return nil
}

// CopyExecutable copies the running executable to dst. It is used to stage
// the deferred-deletion helper outside the install root.
func CopyExecutable(dst string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate running executable: %w", err)
	}
	return copyFile(exe, dst)
}

// Lookup reads the registration record for the target. It returns
// ErrNotFound when the application is not registered.
func Lookup(reg Registry, target config.Target) (Record, error) {
	return reg.Read(target.FolderName)
}
