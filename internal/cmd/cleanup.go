package cmd

import (
	"context"
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tecnobros/battly-setup/internal/config"
	"github.com/tecnobros/battly-setup/internal/logging"
	"github.com/tecnobros/battly-setup/internal/uninstaller"
)

var (
	cleanupPath  string
	cleanupPID   int
	cleanupDelay time.Duration
)

// newCleanupCmd is run by the detached helper the uninstaller starts from
// the temp directory.
func newCleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    uninstaller.CleanupCommand,
		Short:  "Remove an install directory after the uninstaller exits",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			closer, err := logging.Init(logOptions(config.Default(), cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()

			// The working directory must not pin the directory being removed.
			if err := os.Chdir(os.TempDir()); err != nil {
				log.Warnf("failed to change directory: %v", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			if err := uninstaller.Cleanup(ctx, cleanupPath, cleanupPID, cleanupDelay); err != nil {
				log.Errorf("cleanup failed: %v", err)
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cleanupPath, "path", "", "Directory to remove")
	cmd.Flags().IntVar(&cleanupPID, "wait-pid", 0, "Process to wait for")
	cmd.Flags().DurationVar(&cleanupDelay, "delay", uninstaller.DefaultDelay, "Delay after the process exits")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}
