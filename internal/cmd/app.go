package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tecnobros/battly-setup/internal/config"
	"github.com/tecnobros/battly-setup/internal/logging"
	"github.com/tecnobros/battly-setup/internal/output"
	"github.com/tecnobros/battly-setup/internal/staging"
	"github.com/tecnobros/battly-setup/internal/telemetry"
)

const telemetryFlushTimeout = 3 * time.Second

// app holds what every command resolves at startup.
type app struct {
	cfg      *config.Config
	out      *output.Writer
	recorder telemetry.Recorder
	stdout   io.Writer

	closers []func()
}

// newApp resolves the configuration, initializes logging and, when enabled,
// the telemetry client. The caller must call close.
func newApp(cmd *cobra.Command) (*app, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Resolve(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	closer, err := logging.Init(logOptions(cfg.Setup, cmd.ErrOrStderr()))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	a := &app{
		cfg:      cfg,
		out:      output.NewWriter(cmd.OutOrStdout(), format),
		recorder: telemetry.Noop{},
		stdout:   cmd.OutOrStdout(),
	}
	a.closers = append(a.closers, func() { _ = closer.Close() })

	if cfg.SetupPath != "" {
		log.Infof("using Setupfile %s", cfg.SetupPath)
	}

	if cfg.Setup.Telemetry.IsEnabled() {
		client := telemetry.New(telemetry.Options{
			Host:       cfg.Setup.Telemetry.Host,
			AppKey:     cfg.Setup.Telemetry.AppKey,
			AppVersion: buildVersion,
		})
		log.Debugf("telemetry session %s", client.SessionID())
		a.recorder = client
		// Runs before the log file is closed.
		a.closers = append([]func(){func() {
			ctx, cancel := context.WithTimeout(context.Background(), telemetryFlushTimeout)
			defer cancel()
			if err := client.Close(ctx); err != nil {
				log.Warnf("telemetry flush incomplete: %v", err)
			}
			if n := client.Dropped(); n > 0 {
				log.Warnf("%d telemetry events dropped", n)
			}
		}}, a.closers...)
	}

	return a, nil
}

// pruneScratch removes stale payloads and helper copies left in the temp
// directory by earlier runs.
func (a *app) pruneScratch() {
	if _, err := staging.NewManager(a.cfg.Locations.Temp).Prune(staging.DefaultMaxAge); err != nil {
		log.Debugf("failed to prune scratch files: %v", err)
	}
}

func (a *app) close() {
	for _, fn := range a.closers {
		fn()
	}
}

// logOptions maps the global flags and the Setupfile onto logging options.
// Flags win over the Setupfile.
func logOptions(setup *config.Setupfile, stderr io.Writer) logging.Options {
	opts := logging.Options{
		Level: setup.Log.Level,
		File:  setup.Log.File,
	}
	switch {
	case verbose:
		opts.Level = "debug"
		opts.Console = stderr
	case quiet:
		opts.Level = "error"
	}
	if logFile != "" {
		opts.File = logFile
	}
	if opts.File == "" {
		opts.File = logging.DefaultFile()
	}
	if opts.File == "console" && opts.Console == nil {
		opts.Console = stderr
	}
	return opts
}

// printf writes human-readable text unless quiet is set or a structured
// format was requested.
func (a *app) printf(format string, args ...any) {
	if quiet || a.out.Format() != output.FormatText {
		return
	}
	_, _ = fmt.Fprintf(a.stdout, format, args...)
}
