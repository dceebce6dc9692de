// Package platform detects the host platform and resolves the well-known
// per-user folders the installer writes to.
package platform

import (
	"fmt"
	"os"
	"runtime"
)

// Host identifies the machine the installer runs on.
type Host struct {
	OS   string
	Arch string
}

// Detect returns the running host.
func Detect() Host {
	return Host{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

// String returns e.g. "windows/amd64".
func (h Host) String() string {
	return h.OS + "/" + h.Arch
}

// CanRegister reports whether the registry record and shell shortcuts can
// be written here. Elsewhere the pipeline still runs but those steps report
// ErrUnsupported.
func (h Host) CanRegister() bool {
	return h.OS == "windows"
}

// Locations holds the well-known folders resolved once per run.
type Locations struct {
	LocalAppData string // per-user, non-roaming application data
	Desktop      string // user desktop
	StartMenu    string // per-user start menu programs folder
	Temp         string // scratch space outside the install directory
}

// Resolve looks up the well-known folders for the current user.
func Resolve() (Locations, error) {
	locs, err := resolve()
	if err != nil {
		return Locations{}, err
	}
	if locs.LocalAppData == "" {
		return Locations{}, fmt.Errorf("no local application data directory found")
	}
	if locs.Temp == "" {
		locs.Temp = os.TempDir()
	}
	return locs, nil
}

// Exists reports whether dir is an existing directory. Empty paths never
// exist.
func Exists(dir string) bool {
	if dir == "" {
		return false
	}
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}
