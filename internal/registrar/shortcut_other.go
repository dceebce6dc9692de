//go:build !windows

package registrar

import (
	"fmt"
	"os"
)

// unsupportedShortcuts cannot create shell links but still removes files.
type unsupportedShortcuts struct{}

// NewShortcuts returns the shortcut implementation for the current platform.
func NewShortcuts() Shortcuts {
	return unsupportedShortcuts{}
}

func (unsupportedShortcuts) Create(Link) error { return ErrUnsupported }

func (unsupportedShortcuts) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove shortcut %s: %w", path, err)
	}
	return nil
}
