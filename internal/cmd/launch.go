package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tecnobros/battly-setup/internal/process"
)

func newLaunchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "launch",
		Short: "Start the installed launcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if launch(a) {
				a.printf("Started %s\n", a.cfg.Target.DisplayName)
			}
			return nil
		},
	}
}

// launch starts the installed executable detached from this process and
// reports whether it did. A missing install or a failed start is only
// reported; the launch path always exits 0.
func launch(a *app) bool {
	name := a.cfg.Target.DisplayName
	exe := a.cfg.Target.Executable()
	if _, err := os.Stat(exe); err != nil {
		log.Warnf("not launching %s: %v", name, err)
		a.printf("%s is not installed.\n", name)
		return false
	}

	pid, err := process.Detached{}.Start(exe)
	if err != nil {
		log.Warnf("failed to launch %s: %v", exe, err)
		a.printf("Could not start %s: %v\n", name, err)
		return false
	}
	log.Infof("launched %s (PID %d)", exe, pid)
	return true
}
