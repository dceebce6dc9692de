package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tecnobros/battly-setup/internal/platform"
	"github.com/tecnobros/battly-setup/internal/registrar"
	"github.com/tecnobros/battly-setup/internal/release"
)

var checkUpdates bool

// statusReport describes the current installation.
type statusReport struct {
	Platform    string            `json:"platform" yaml:"platform"`
	CanRegister bool              `json:"can_register" yaml:"can_register"`
	Root        string            `json:"root" yaml:"root"`
	Installed   bool              `json:"installed" yaml:"installed"`
	Registered  bool              `json:"registered" yaml:"registered"`
	Record      *registrar.Record `json:"record,omitempty" yaml:"record,omitempty"`
	Shortcuts   []string          `json:"shortcuts,omitempty" yaml:"shortcuts,omitempty"`
	Release     *release.Status   `json:"release,omitempty" yaml:"release,omitempty"`
}

func (s statusReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Install root: %s\n", s.Root)
	if !s.Installed {
		b.WriteString("Status:       not installed")
	} else {
		b.WriteString("Status:       installed")
	}
	if !s.CanRegister {
		fmt.Fprintf(&b, "\nRegistration: unsupported on %s", s.Platform)
	}
	if s.Record != nil {
		fmt.Fprintf(&b, "\nRegistered:   %s (%s)", s.Record.DisplayName, s.Record.Publisher)
		if s.Record.DisplayVersion != "" {
			fmt.Fprintf(&b, "\nVersion:      %s", s.Record.DisplayVersion)
		}
	}
	for _, sc := range s.Shortcuts {
		fmt.Fprintf(&b, "\nShortcut:     %s", sc)
	}
	if s.Release != nil {
		if s.Release.UpdateAvailable {
			fmt.Fprintf(&b, "\nUpdate:       %s available", s.Release.Latest)
		} else {
			fmt.Fprintf(&b, "\nUpdate:       up to date (%s)", s.Release.Latest)
		}
	}
	return b.String()
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current installation",
		Long: `Show whether the launcher is installed, its registration record and
shortcuts. With --check the latest published release is compared with the
registered version.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			report, err := buildStatus(commandContext(cmd), a, registrar.NewRegistry())
			if err != nil {
				return err
			}
			return a.out.Write(report)
		},
	}
	cmd.Flags().BoolVar(&checkUpdates, "check", false, "Check for a newer release")
	return cmd
}

func buildStatus(ctx context.Context, a *app, reg registrar.Registry) (statusReport, error) {
	cfg := a.cfg
	host := platform.Detect()
	report := statusReport{
		Platform:    host.String(),
		CanRegister: host.CanRegister(),
		Root:        cfg.Target.Root,
		Installed:   platform.Exists(cfg.Target.Root),
	}

	rec, err := registrar.Lookup(reg, cfg.Target)
	switch {
	case err == nil:
		report.Registered = true
		report.Record = &rec
	case errors.Is(err, registrar.ErrNotFound), errors.Is(err, registrar.ErrUnsupported):
		log.Debugf("no registration record: %v", err)
	default:
		return report, fmt.Errorf("failed to read registration record: %w", err)
	}

	for _, path := range registrar.ShortcutPaths(cfg.Locations, cfg.Target) {
		if _, err := os.Stat(path); err == nil {
			report.Shortcuts = append(report.Shortcuts, path)
		}
	}

	if checkUpdates {
		src, ok := release.SourceFromURL(cfg.Setup.PayloadURL)
		if !ok {
			return report, fmt.Errorf("payload URL %s is not a release asset", cfg.Setup.PayloadURL)
		}
		latest, err := release.NewChecker().Latest(ctx, src)
		if err != nil {
			return report, fmt.Errorf("failed to check for updates: %w", err)
		}
		installed := ""
		if report.Record != nil {
			installed = report.Record.DisplayVersion
		}
		st := release.Compare(installed, latest)
		report.Release = &st
	}

	return report, nil
}
