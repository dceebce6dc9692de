package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/tecnobros/battly-setup/internal/process"
	"github.com/tecnobros/battly-setup/internal/registrar"
	"github.com/tecnobros/battly-setup/internal/uninstaller"
)

// uninstallResult is written when an uninstall completes.
type uninstallResult struct {
	Root   string   `json:"root" yaml:"root"`
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

func (r uninstallResult) String() string {
	if len(r.Errors) == 0 {
		return fmt.Sprintf("Uninstalled. %s will be removed once this program exits.", r.Root)
	}
	return fmt.Sprintf("Uninstalled with %d error(s):\n  - %s", len(r.Errors), strings.Join(r.Errors, "\n  - "))
}

func runUninstall(cmd *cobra.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	a.pruneScratch()

	cfg := a.cfg
	u := &uninstaller.Uninstaller{
		Target:    cfg.Target,
		Locations: cfg.Locations,
		Registry:  registrar.NewRegistry(),
		Shortcuts: registrar.NewShortcuts(),
		Scheduler: &uninstaller.HelperScheduler{
			TempDir: cfg.Locations.Temp,
			PID:     os.Getpid(),
			Starter: process.Detached{},
			Copy:    registrar.CopyExecutable,
		},
		Recorder: a.recorder,
	}

	res := uninstallResult{Root: cfg.Target.Root}
	runErr := u.Run(commandContext(cmd))
	if merr, ok := runErr.(*multierror.Error); ok {
		for _, e := range merr.Errors {
			res.Errors = append(res.Errors, e.Error())
		}
	} else if runErr != nil {
		res.Errors = append(res.Errors, runErr.Error())
	}

	if !quiet || runErr != nil {
		if err := a.out.Write(res); err != nil {
			return err
		}
	}
	// Individual failures are reported above; uninstall is best-effort.
	return nil
}
