//go:build windows

package platform

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

func resolve() (Locations, error) {
	localAppData, err := windows.KnownFolderPath(windows.FOLDERID_LocalAppData, 0)
	if err != nil {
		return Locations{}, fmt.Errorf("failed to resolve LocalAppData: %w", err)
	}

	// Desktop and start menu are optional: shortcut creation skips
	// locations that cannot be resolved.
	desktop, err := windows.KnownFolderPath(windows.FOLDERID_Desktop, 0)
	if err != nil {
		log.Warnf("failed to resolve desktop folder: %v", err)
		desktop = ""
	}
	startMenu, err := windows.KnownFolderPath(windows.FOLDERID_Programs, 0)
	if err != nil {
		log.Warnf("failed to resolve start menu folder: %v", err)
		startMenu = ""
	}

	return Locations{
		LocalAppData: localAppData,
		Desktop:      desktop,
		StartMenu:    startMenu,
		Temp:         os.TempDir(),
	}, nil
}
