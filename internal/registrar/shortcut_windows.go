package registrar

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
	log "github.com/sirupsen/logrus"
)

// sFalse is returned by CoInitializeEx when COM is already initialized on
// the thread.
const sFalse = 0x00000001

// ShellLinks creates .lnk files through the WScript.Shell automation object.
type ShellLinks struct{}

// NewShortcuts returns the shortcut implementation for the current platform.
func NewShortcuts() Shortcuts {
	return ShellLinks{}
}

// Create implements Shortcuts.
func (ShellLinks) Create(link Link) error {
	// COM apartments are per OS thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		var oleErr *ole.OleError
		if !errors.As(err, &oleErr) || oleErr.Code() != sFalse {
			return fmt.Errorf("failed to initialize COM: %w", err)
		}
	}
	defer ole.CoUninitialize()

	unknown, err := oleutil.CreateObject("WScript.Shell")
	if err != nil {
		return fmt.Errorf("failed to create WScript.Shell: %w", err)
	}
	defer unknown.Release()

	shell, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return fmt.Errorf("failed to query shell interface: %w", err)
	}
	defer shell.Release()

	lnk, err := oleutil.CallMethod(shell, "CreateShortcut", link.Path)
	if err != nil {
		return fmt.Errorf("failed to create shortcut: %w", err)
	}
	linkDisp := lnk.ToIDispatch()
	defer linkDisp.Release()

	props := []struct {
		name  string
		value string
	}{
		{"TargetPath", link.Target},
		{"WorkingDirectory", link.WorkingDir},
		{"IconLocation", link.Icon},
		{"Description", link.Description},
	}
	for _, p := range props {
		if p.value == "" {
			continue
		}
		if _, err := oleutil.PutProperty(linkDisp, p.name, p.value); err != nil {
			return fmt.Errorf("failed to set shortcut %s: %w", p.name, err)
		}
	}

	if _, err := oleutil.CallMethod(linkDisp, "Save"); err != nil {
		return fmt.Errorf("failed to save shortcut: %w", err)
	}

	log.Debugf("created shortcut %s -> %s", link.Path, link.Target)
	return nil
}

// Remove implements Shortcuts. A missing file is not an error.
func (ShellLinks) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove shortcut %s: %w", path, err)
	}
	return nil
}
