package registrar

import (
	"errors"

	"github.com/tecnobros/battly-setup/internal/config"
)

// UninstallKeyPrefix is the per-user registry path under which
// registration records live.
const UninstallKeyPrefix = `Software\Microsoft\Windows\CurrentVersion\Uninstall\`

var (
	// ErrUnsupported is returned by OS primitives on platforms without a
	// registry or shell link support.
	ErrUnsupported = errors.New("not supported on this platform")

	// ErrNotFound is returned by Registry.Read when no record exists.
	ErrNotFound = errors.New("registration record not found")
)

// Record is the installed-application registration record.
type Record struct {
	Key             string `json:"key" yaml:"key"`
	DisplayName     string `json:"display_name" yaml:"display_name"`
	Publisher       string `json:"publisher" yaml:"publisher"`
	UninstallString string `json:"uninstall_string" yaml:"uninstall_string"`
	InstallLocation string `json:"install_location" yaml:"install_location"`
	DisplayIcon     string `json:"display_icon" yaml:"display_icon"`
	DisplayVersion  string `json:"display_version,omitempty" yaml:"display_version,omitempty"`
	NoModify        bool   `json:"no_modify" yaml:"no_modify"`
	NoRepair        bool   `json:"no_repair" yaml:"no_repair"`
}

// RecordFor builds the registration record for an install target.
func RecordFor(target config.Target) Record {
	return Record{
		Key:             target.FolderName,
		DisplayName:     target.DisplayName,
		Publisher:       target.Publisher,
		UninstallString: target.UninstallCommand(),
		InstallLocation: target.Root,
		DisplayIcon:     target.Executable(),
		NoModify:        true,
		NoRepair:        true,
	}
}

// Registry writes, reads and deletes registration records.
type Registry interface {
	Write(rec Record) error
	Read(key string) (Record, error)
	Delete(key string) error
}

// Link describes a shell shortcut.
type Link struct {
	Path        string
	Target      string
	Icon        string
	WorkingDir  string
	Description string
}

// Shortcuts creates and removes shell shortcuts.
type Shortcuts interface {
	Create(link Link) error
	Remove(path string) error
}
