//go:build !windows

package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

func resolve() (Locations, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Locations{}, fmt.Errorf("failed to determine home directory: %w", err)
	}

	// XDG_DATA_HOME or default
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = filepath.Join(home, ".local", "share")
	}

	desktop := os.Getenv("XDG_DESKTOP_DIR")
	if desktop == "" {
		desktop = filepath.Join(home, "Desktop")
	}

	return Locations{
		LocalAppData: dataHome,
		Desktop:      desktop,
		StartMenu:    filepath.Join(dataHome, "applications"),
		Temp:         os.TempDir(),
	}, nil
}
