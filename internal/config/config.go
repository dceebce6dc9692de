// Package config resolves the install target and loads the optional Setupfile.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tecnobros/battly-setup/internal/platform"
)

// Fixed product identity. None of these are user-configurable.
const (
	AppFolderName   = "BattlyLauncher4Hytale"
	DisplayName     = "Battly Launcher"
	Publisher       = "TecnoBros"
	ExecutableName  = "Battly Launcher 4 Hytale.exe"
	UninstallerName = "uninstall.exe"
	ShortcutName    = "Battly Launcher"
	UninstallFlag   = "--uninstall"
)

// Default endpoints, overridable through a Setupfile.
const (
	DefaultPayloadURL      = "https://github.com/1ly4s0/Battly4Hytale/releases/latest/download/BattlyLauncher-win.zip"
	DefaultBundleURL       = "https://net.geo.opera.com/opera/stable/windows?utm_source=battly&utm_medium=installer&utm_campaign=battly_installer"
	DefaultTelemetryHost   = "https://analytics-hytale.battlylauncher.com"
	DefaultTelemetryAppKey = "A-SH-8633750963"
	DefaultLogLevel        = "info"
)

// ErrNoSetupfile is returned by FindSetupfile when no file exists in any of
// the searched locations.
var ErrNoSetupfile = errors.New("no Setupfile found")

// Target describes where and under which identity the application is
// installed. Root is always derived from the user's local application
// data directory.
type Target struct {
	Root            string `json:"root" yaml:"root"`
	FolderName      string `json:"folder_name" yaml:"folder_name"`
	ExecutableName  string `json:"executable_name" yaml:"executable_name"`
	UninstallerName string `json:"uninstaller_name" yaml:"uninstaller_name"`
	DisplayName     string `json:"display_name" yaml:"display_name"`
	Publisher       string `json:"publisher" yaml:"publisher"`
	ShortcutName    string `json:"shortcut_name" yaml:"shortcut_name"`
}

// NewTarget derives the install target from the local application data
// directory.
func NewTarget(localAppData string) Target {
	return Target{
		Root:            filepath.Join(localAppData, AppFolderName),
		FolderName:      AppFolderName,
		ExecutableName:  ExecutableName,
		UninstallerName: UninstallerName,
		DisplayName:     DisplayName,
		Publisher:       Publisher,
		ShortcutName:    ShortcutName,
	}
}

// Executable returns the path of the installed application executable.
func (t Target) Executable() string {
	return filepath.Join(t.Root, t.ExecutableName)
}

// Uninstaller returns the path the installer copies itself to.
func (t Target) Uninstaller() string {
	return filepath.Join(t.Root, t.UninstallerName)
}

// UninstallCommand returns the command line stored in the registration
// record.
func (t Target) UninstallCommand() string {
	return fmt.Sprintf(`"%s" %s`, t.Uninstaller(), UninstallFlag)
}

// ShortcutFile returns the file name of a shortcut artifact.
func (t Target) ShortcutFile() string {
	return t.ShortcutName + ".lnk"
}

// TelemetryConfig configures the analytics sink.
type TelemetryConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty" toml:"enabled,omitempty" json:"enabled,omitempty"`
	Host    string `yaml:"host,omitempty" toml:"host,omitempty" json:"host,omitempty"`
	AppKey  string `yaml:"app_key,omitempty" toml:"app_key,omitempty" json:"app_key,omitempty"`
}

// IsEnabled returns true unless telemetry was explicitly disabled.
func (t TelemetryConfig) IsEnabled() bool {
	return t.Enabled == nil || *t.Enabled
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level,omitempty" toml:"level,omitempty" json:"level,omitempty"`
	File  string `yaml:"file,omitempty" toml:"file,omitempty" json:"file,omitempty"`
}

// Setupfile represents the parsed configuration file.
type Setupfile struct {
	PayloadURL string          `yaml:"payload_url,omitempty" toml:"payload_url,omitempty" json:"payload_url,omitempty"`
	BundleURL  string          `yaml:"bundle_url,omitempty" toml:"bundle_url,omitempty" json:"bundle_url,omitempty"`
	Telemetry  TelemetryConfig `yaml:"telemetry" toml:"telemetry" json:"telemetry"`
	Log        LogConfig       `yaml:"log" toml:"log" json:"log"`
}

// Default returns a Setupfile holding the built-in defaults.
func Default() *Setupfile {
	s := &Setupfile{}
	s.applyDefaults()
	return s
}

func (s *Setupfile) applyDefaults() {
	if s.PayloadURL == "" {
		s.PayloadURL = DefaultPayloadURL
	}
	if s.BundleURL == "" {
		s.BundleURL = DefaultBundleURL
	}
	if s.Telemetry.Host == "" {
		s.Telemetry.Host = DefaultTelemetryHost
	}
	if s.Telemetry.AppKey == "" {
		s.Telemetry.AppKey = DefaultTelemetryAppKey
	}
	if s.Log.Level == "" {
		s.Log.Level = DefaultLogLevel
	}
}

// Config is everything resolved once at startup and threaded through the
// orchestrators.
type Config struct {
	Target    Target
	Locations platform.Locations
	Setup     *Setupfile
	SetupPath string // empty when running on defaults
}

// Resolve resolves the well-known folders, derives the target and loads the
// Setupfile if one exists.
func Resolve(explicitPath string) (*Config, error) {
	locs, err := platform.Resolve()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Target:    NewTarget(locs.LocalAppData),
		Locations: locs,
		Setup:     Default(),
	}

	path, err := FindSetupfile(explicitPath)
	if errors.Is(err, ErrNoSetupfile) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	setup, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.Setup = setup
	cfg.SetupPath = path
	return cfg, nil
}

// FindSetupfile searches for a Setupfile in the standard locations.
// Returns ErrNoSetupfile if none exists.
func FindSetupfile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("specified Setupfile not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	// Check BATTLY_SETUPFILE environment variable
	if envPath := os.Getenv("BATTLY_SETUPFILE"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	exe, err := os.Executable()
	if err != nil {
		return "", ErrNoSetupfile
	}
	dir := filepath.Dir(exe)

	fileNames := []string{
		"setup.toml",
		"setup.yaml",
		"setup.yml",
		"setup.json",
	}

	for _, name := range fileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", ErrNoSetupfile
}

// Load reads and parses a Setupfile from the given path.
func Load(path string) (*Setupfile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read Setupfile: %w", err)
	}

	format := detectFormat(path, content)
	if format == FormatUnknown {
		return nil, fmt.Errorf("unable to detect file format for %s", path)
	}

	setup, err := parse(content, format)
	if err != nil {
		return nil, err
	}

	if err := Validate(setup); err != nil {
		return nil, err
	}

	return setup, nil
}
