package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tecnobros/battly-setup/internal/bundle"
	"github.com/tecnobros/battly-setup/internal/fetch"
	"github.com/tecnobros/battly-setup/internal/installer"
	"github.com/tecnobros/battly-setup/internal/interactive"
	"github.com/tecnobros/battly-setup/internal/output"
	"github.com/tecnobros/battly-setup/internal/process"
	"github.com/tecnobros/battly-setup/internal/progress"
	"github.com/tecnobros/battly-setup/internal/registrar"
	"github.com/tecnobros/battly-setup/internal/release"
)

const (
	bundleName         = "Opera"
	releaseLookupLimit = 5 * time.Second
)

var (
	withOpera bool
	noOpera   bool
	assumeYes bool
)

func addInstallFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVar(&withOpera, "with-opera", false, "Also install the Opera browser")
	cmd.PersistentFlags().BoolVar(&noOpera, "no-opera", false, "Do not offer the Opera browser")
	cmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Never prompt; decline optional offers unless --with-opera is set")
}

func newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install Battly Launcher (default action)",
		Long: `Download the launcher payload, expand it into the per-user application
data directory, register the uninstaller and create shortcuts.

Any previous installation is removed first. When run interactively the
installer offers the optional Opera browser; use --with-opera or --no-opera
to decide up front.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd)
		},
	}
}

func runInstall(cmd *cobra.Command) error {
	withBundle, err := decideBundle()
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	a.pruneScratch()

	cfg := a.cfg
	fetcher := fetch.NewHTTPFetcher(buildVersion)

	reg := registrar.New(cfg.Locations)
	reg.Version = lookupVersion(commandContext(cmd), cfg.Setup.PayloadURL)

	ch := progress.NewChannel()
	inst := installer.New(installer.Deps{
		Target:     cfg.Target,
		PayloadURL: cfg.Setup.PayloadURL,
		StagingDir: cfg.Locations.Temp,
		Fetcher:    fetcher,
		Registrar:  reg,
		Bundle: &bundle.Provisioner{
			URL:        cfg.Setup.BundleURL,
			TempDir:    cfg.Locations.Temp,
			Downloader: fetcher,
			Starter:    process.Detached{},
		},
	}, ch, a.recorder)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	done, err := inst.Start(ctx, installer.Options{WithBundle: withBundle})
	if err != nil {
		ch.Close()
		return err
	}

	if quiet {
		ch.Abandon()
	} else {
		live := a.out.Format() == output.FormatText && interactive.IsOutputTerminal()
		if err := a.out.RenderProgress(ch.C(), live); err != nil {
			log.Warnf("failed to render progress: %v", err)
			ch.Abandon()
		}
	}

	outcome := <-done
	// Text progress already ends with the failure line.
	textFailure := outcome.Failed() && !quiet && a.out.Format() == output.FormatText
	if (!quiet || outcome.Failed()) && !textFailure {
		if err := a.out.Write(outcome); err != nil {
			return err
		}
	}
	if outcome.Failed() {
		return outcome.Err
	}

	offerLaunch(a)
	return nil
}

// decideBundle resolves the Opera offer from the flags, falling back to an
// interactive prompt. Without a terminal the offer is declined.
func decideBundle() (bool, error) {
	switch {
	case withOpera && noOpera:
		return false, errors.New("--with-opera and --no-opera are mutually exclusive")
	case withOpera:
		return true, nil
	case noOpera, assumeYes, quiet:
		return false, nil
	case !interactive.IsTerminal():
		log.Debug("no terminal attached, declining bundle offer")
		return false, nil
	}

	switch interactive.NewPrompter().OfferBundle(bundleName) {
	case interactive.ResponseYes:
		return true, nil
	case interactive.ResponseQuit:
		return false, errors.New("install cancelled")
	default:
		return false, nil
	}
}

// lookupVersion resolves the release the payload URL points at. A failed
// lookup only leaves the recorded version empty.
func lookupVersion(parent context.Context, payloadURL string) string {
	src, ok := release.SourceFromURL(payloadURL)
	if !ok {
		log.Debugf("payload %s is not a release asset, skipping version lookup", payloadURL)
		return ""
	}

	ctx, cancel := context.WithTimeout(parent, releaseLookupLimit)
	defer cancel()

	rel, err := release.NewChecker().WithToken(os.Getenv("GITHUB_TOKEN")).Latest(ctx, src)
	if err != nil {
		log.Warnf("failed to resolve release version: %v", err)
		return ""
	}
	log.Infof("latest release is %s", rel.Version())
	return rel.Version()
}

func offerLaunch(a *app) {
	if quiet || assumeYes || !interactive.IsTerminal() || a.out.Format() != output.FormatText {
		return
	}
	if !interactive.NewPrompter().Confirm(fmt.Sprintf("Launch %s now?", a.cfg.Target.DisplayName)) {
		return
	}
	launch(a)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
