package uninstaller

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/tecnobros/battly-setup/internal/config"
	"github.com/tecnobros/battly-setup/internal/process"
	"github.com/tecnobros/battly-setup/internal/staging"
)

const (
	// DefaultDelay is how long the helper waits after the uninstaller exits.
	DefaultDelay = 2 * time.Second

	// CleanupCommand is the hidden subcommand the helper runs.
	CleanupCommand = "cleanup"

	removeTimeout = 30 * time.Second
	pollInterval  = 200 * time.Millisecond
)

// Starter launches a detached process.
type Starter interface {
	Start(name string, args ...string) (int, error)
}

// HelperScheduler copies the running binary outside the install root and
// starts it detached with the cleanup command. The helper outlives this
// process and deletes the root once this process has exited.
type HelperScheduler struct {
	TempDir string
	Delay   time.Duration
	PID     int
	Starter Starter
	// Copy places the helper binary at dst.
	Copy func(dst string) error
}

// Schedule implements Scheduler.
func (s *HelperScheduler) Schedule(root string) error {
	helper := filepath.Join(s.TempDir, staging.HelperName(uuid.NewString()[:8]))
	if err := s.Copy(helper); err != nil {
		return fmt.Errorf("failed to stage cleanup helper: %w", err)
	}

	delay := s.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}

	args := HelperArgs(root, s.PID, delay)
	pid, err := s.Starter.Start(helper, args...)
	if err != nil {
		_ = os.Remove(helper)
		return fmt.Errorf("failed to start cleanup helper: %w", err)
	}

	log.Infof("cleanup helper %s started with PID %d", helper, pid)
	return nil
}

// HelperArgs returns the command line of the cleanup helper.
func HelperArgs(root string, pid int, delay time.Duration) []string {
	return []string{
		CleanupCommand,
		"--path", root,
		"--wait-pid", strconv.Itoa(pid),
		"--delay", delay.String(),
	}
}

// Cleanup waits for the process pid to exit, sleeps delay and removes path
// recursively, retrying while files are still locked. It refuses any path
// that is not an install root.
func Cleanup(ctx context.Context, path string, pid int, delay time.Duration) error {
	clean := filepath.Clean(path)
	if !filepath.IsAbs(clean) || filepath.Base(clean) != config.AppFolderName {
		return fmt.Errorf("refusing to remove %q: not an install directory", path)
	}

	if err := process.WaitExit(ctx, pid, pollInterval); err != nil {
		return err
	}

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = removeTimeout

	attempt := 0
	op := func() error {
		attempt++
		if err := os.RemoveAll(clean); err != nil {
			log.Debugf("remove attempt %d for %s failed: %v", attempt, clean, err)
			return err
		}
		if _, err := os.Stat(clean); !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s still exists", clean)
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("failed to remove %s: %w", clean, err)
	}

	log.Infof("removed %s after %d attempt(s)", clean, attempt)
	return nil
}
