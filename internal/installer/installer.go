// Package installer runs the install pipeline: clean the install root,
// fetch the payload, expand it, register the application and optionally
// provision the bundle.
package installer

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tecnobros/battly-setup/internal/archive"
	"github.com/tecnobros/battly-setup/internal/config"
	"github.com/tecnobros/battly-setup/internal/progress"
	"github.com/tecnobros/battly-setup/internal/staging"
	"github.com/tecnobros/battly-setup/internal/telemetry"
	"github.com/tecnobros/battly-setup/internal/types"
)

const (
	cleaningFraction    = 0.1
	downloadingFraction = 0.2
)

// Fetcher stages a remote payload into a local file.
type Fetcher interface {
	ToFile(ctx context.Context, url, dir, pattern string, up progress.Updater) (string, error)
}

// Registrar registers the installed application with the OS. Every
// returned error is a warning.
type Registrar interface {
	Register(ctx context.Context, target config.Target, rep progress.Tracker) []error
}

// Provisioner provisions the optional bundle. A returned error is a
// warning.
type Provisioner interface {
	Provision(ctx context.Context, rep progress.Tracker) error
}

// Deps are the collaborators of an Installer.
type Deps struct {
	Target     config.Target
	PayloadURL string
	StagingDir string
	Fetcher    Fetcher
	Registrar  Registrar
	Bundle     Provisioner
}

// Options are chosen by the caller when the run starts.
type Options struct {
	WithBundle bool
}

// Installer owns one install run. It is the only writer to its sink.
type Installer struct {
	deps     Deps
	reporter *progress.Reporter

	mu      sync.Mutex
	started bool
	stage   types.Stage
}

// New creates an installer. A nil recorder disables telemetry.
func New(deps Deps, sink progress.Sink, recorder telemetry.Recorder) *Installer {
	if deps.StagingDir == "" {
		deps.StagingDir = os.TempDir()
	}
	return &Installer{
		deps:     deps,
		reporter: progress.NewReporter(sink, recorder),
		stage:    types.StageIdle,
	}
}

// Start runs the pipeline on a new goroutine and returns immediately. The
// outcome is delivered on the returned channel, which is then closed.
func (i *Installer) Start(ctx context.Context, opts Options) (<-chan Outcome, error) {
	if err := i.claim(); err != nil {
		return nil, err
	}

	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		ch <- i.run(ctx, opts)
	}()
	return ch, nil
}

// Run runs the pipeline on the calling goroutine.
func (i *Installer) Run(ctx context.Context, opts Options) (Outcome, error) {
	if err := i.claim(); err != nil {
		return Outcome{}, err
	}
	return i.run(ctx, opts), nil
}

func (i *Installer) claim() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.started {
		return ErrAlreadyStarted
	}
	i.started = true
	return nil
}

func (i *Installer) enter(next types.Stage) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.stage.CanTransition(next) {
		log.Errorf("invalid stage transition %s -> %s", i.stage, next)
	}
	log.Debugf("stage %s -> %s", i.stage, next)
	i.stage = next
}

func (i *Installer) run(ctx context.Context, opts Options) Outcome {
	start := time.Now()
	rep := i.reporter
	target := i.deps.Target

	log.Infof("installing %s into %s", target.DisplayName, target.Root)
	rep.Track(types.EventInstallStarted)
	if opts.WithBundle {
		rep.Track(types.EventOperaAccepted)
	}

	i.enter(types.StageCleaning)
	rep.Report(cleaningFraction, types.StatusCleaning, "")
	rep.Track(types.EventCleanupStarted)
	if err := resetDir(target.Root); err != nil {
		return i.fail(types.StageCleaning, err, start)
	}
	rep.Track(types.EventCleanupFinished)
	if err := ctx.Err(); err != nil {
		return i.fail(types.StageCleaning, err, start)
	}

	i.enter(types.StageDownloading)
	rep.Report(downloadingFraction, types.StatusDownloadingStart, "")
	rep.Track(types.EventDownloadStarted)
	payload, err := i.deps.Fetcher.ToFile(ctx, i.deps.PayloadURL, i.deps.StagingDir, staging.PayloadPattern, rep)
	if err != nil {
		return i.fail(types.StageDownloading, err, start)
	}
	defer func() {
		if err := os.Remove(payload); err != nil && !os.IsNotExist(err) {
			log.Warnf("failed to remove staging file %s: %v", payload, err)
		}
	}()
	rep.Track(types.EventDownloadFinished)

	i.enter(types.StageExtracting)
	rep.Track(types.EventExtractStarted)
	result, err := archive.ExpandFile(ctx, payload, target.Root, archive.DefaultOptions(rep))
	if err != nil {
		purge(target.Root)
		return i.fail(types.StageExtracting, err, start)
	}
	rep.Track(types.EventExtractComplete)

	var warnings []Warning
	var skipped []string
	for _, s := range result.Skipped {
		skipped = append(skipped, s.Name)
		warnings = append(warnings, newWarning(types.StageExtracting, fmt.Errorf("skipped entry %q: %s", s.Name, s.Reason)))
	}

	i.enter(types.StageRegistering)
	for _, err := range i.deps.Registrar.Register(ctx, target, rep) {
		warnings = append(warnings, newWarning(types.StageRegistering, err))
	}
	if err := ctx.Err(); err != nil {
		return i.fail(types.StageRegistering, err, start)
	}

	if opts.WithBundle && i.deps.Bundle != nil {
		i.enter(types.StageBundle)
		if err := i.deps.Bundle.Provision(ctx, rep); err != nil {
			log.Warnf("bundle provisioning failed: %v", err)
			warnings = append(warnings, newWarning(types.StageBundle, err))
		}
	}

	i.enter(types.StageFinished)
	kind := types.OutcomeSuccess
	if len(warnings) > 0 {
		kind = types.OutcomePartial
	}
	rep.TrackWith(types.EventInstallComplete, map[string]any{
		"outcome":  kind.String(),
		"warnings": len(warnings),
	})
	rep.Finish()

	log.Infof("install finished (%s) in %s", kind, time.Since(start).Round(time.Millisecond))
	return Outcome{
		Kind:     kind,
		Warnings: warnings,
		Files:    len(result.Files),
		Skipped:  skipped,
		Duration: time.Since(start),
	}
}

func (i *Installer) fail(stage types.Stage, err error, start time.Time) Outcome {
	i.enter(types.StageFailed)
	cause := &StageError{Stage: stage, Err: err}

	if stage.IsFatal() {
		log.Errorf("install failed: %v", cause)
	} else {
		log.Warnf("install interrupted: %v", cause)
	}
	i.reporter.TrackWith(types.EventInstallFailed, map[string]any{
		"stage": stage.String(),
		"error": err.Error(),
	})
	i.reporter.Fail(stage, err)

	return Outcome{
		Kind:     types.OutcomeFailed,
		Stage:    stage,
		Cause:    err.Error(),
		Err:      cause,
		Duration: time.Since(start),
	}
}

// resetDir removes dir if it exists, ignoring failure, and re-creates it.
func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		log.Warnf("failed to remove existing install directory %s: %v", dir, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create install directory: %w", err)
	}
	return nil
}

// purge removes a partially populated install root. The pre-install state
// is not restored.
func purge(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		log.Warnf("failed to remove partial install %s: %v", dir, err)
		return
	}
	log.Infof("removed partial install %s", dir)
}
