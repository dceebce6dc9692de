// Package uninstaller reverses an install: it removes shortcuts and the
// registration record, then schedules deletion of the install root.
package uninstaller

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/tecnobros/battly-setup/internal/config"
	"github.com/tecnobros/battly-setup/internal/platform"
	"github.com/tecnobros/battly-setup/internal/registrar"
	"github.com/tecnobros/battly-setup/internal/telemetry"
	"github.com/tecnobros/battly-setup/internal/types"
)

// Scheduler arranges for a directory to be deleted after this process
// exits.
type Scheduler interface {
	Schedule(root string) error
}

// Uninstaller runs the uninstall steps. Every step is best-effort.
type Uninstaller struct {
	Target    config.Target
	Locations platform.Locations
	Registry  registrar.Registry
	Shortcuts registrar.Shortcuts
	Scheduler Scheduler
	Recorder  telemetry.Recorder
}

// Run removes the shortcuts, deletes the registration record and schedules
// deferred deletion of the install root. A failing step never prevents
// the next one; all failures are returned together.
func (u *Uninstaller) Run(ctx context.Context) error {
	rec := u.Recorder
	if rec == nil {
		rec = telemetry.Noop{}
	}

	log.Infof("uninstalling %s from %s", u.Target.DisplayName, u.Target.Root)
	rec.Track(types.EventUninstallStarted, nil)

	var merr *multierror.Error

	for _, path := range registrar.ShortcutPaths(u.Locations, u.Target) {
		if err := u.Shortcuts.Remove(path); err != nil {
			log.Warnf("failed to remove shortcut: %v", err)
			merr = multierror.Append(merr, err)
			continue
		}
		log.Debugf("removed shortcut %s", path)
	}

	if err := u.Registry.Delete(u.Target.FolderName); err != nil {
		log.Warnf("failed to delete registration record: %v", err)
		merr = multierror.Append(merr, fmt.Errorf("registration record: %w", err))
	}

	if err := ctx.Err(); err != nil {
		return multierror.Append(merr, err).ErrorOrNil()
	}

	if err := u.Scheduler.Schedule(u.Target.Root); err != nil {
		log.Warnf("failed to schedule removal of %s: %v", u.Target.Root, err)
		merr = multierror.Append(merr, fmt.Errorf("deferred deletion: %w", err))
	}

	err := merr.ErrorOrNil()
	props := map[string]any{"errors": 0}
	if merr != nil {
		props["errors"] = len(merr.Errors)
	}
	rec.Track(types.EventUninstallComplete, props)
	return err
}
