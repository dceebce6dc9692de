// Package bundle provisions the optional third-party application offered
// during install.
package bundle

import (
	"context"
	"fmt"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/tecnobros/battly-setup/internal/progress"
	"github.com/tecnobros/battly-setup/internal/types"
)

const (
	// InstallerName is the file the bundle installer is downloaded to.
	InstallerName = "OperaSetup.exe"

	// Fraction is the overall progress reported when provisioning starts.
	Fraction = 0.98
)

// SilentArgs run the bundle installer without user interaction, without
// launching it afterwards and for the current user only.
var SilentArgs = []string{"/silent", "/launch=0", "/allusers=0"}

// Downloader fetches a URL to a local file.
type Downloader interface {
	Download(ctx context.Context, url, dst string, up progress.Updater) error
}

// Starter launches a detached process.
type Starter interface {
	Start(name string, args ...string) (int, error)
}

// Provisioner downloads and launches the bundle installer.
type Provisioner struct {
	URL        string
	TempDir    string
	Downloader Downloader
	Starter    Starter
}

// Provision downloads the bundle installer to the temp directory and starts
// it detached. It does not wait for the installer. The returned error is a
// warning: callers must not fail the install because of it.
func (p *Provisioner) Provision(ctx context.Context, rep progress.Tracker) error {
	rep.Report(Fraction, types.StatusOpera, "")

	dst := filepath.Join(p.TempDir, InstallerName)
	// The download reports into no range of its own.
	if err := p.Downloader.Download(ctx, p.URL, dst, progress.Nop); err != nil {
		return fmt.Errorf("failed to download bundle installer: %w", err)
	}

	pid, err := p.Starter.Start(dst, SilentArgs...)
	if err != nil {
		return fmt.Errorf("failed to launch bundle installer: %w", err)
	}

	log.Infof("bundle installer launched with PID %d", pid)
	rep.Track(types.EventOperaInstalled)
	return nil
}
