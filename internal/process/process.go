// Package process starts detached programs and waits for processes to exit.
package process

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	log "github.com/sirupsen/logrus"
)

// Detached starts programs in their own process group (their own session
// on Unix) so they outlive the installer. It satisfies the Starter
// interfaces of the bundle and uninstaller packages.
type Detached struct{}

// Start launches name and returns its pid without waiting for it.
func (Detached) Start(name string, args ...string) (int, error) {
	cmd := exec.Command(name, args...)
	setDetachedProcAttr(cmd)

	log.Infof("starting detached process: %s", cmd.String())
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start %s: %w", name, err)
	}

	pid := cmd.Process.Pid
	log.Debugf("detached process started with PID %d", pid)

	// Release the process so the OS can fully detach it
	if err := cmd.Process.Release(); err != nil {
		log.Warnf("failed to release process %d: %v", pid, err)
	}
	return pid, nil
}

// WaitExit polls until the process with the given pid is gone or ctx is
// done. A non-positive pid returns immediately.
func WaitExit(ctx context.Context, pid int, interval time.Duration) error {
	if pid <= 0 {
		return nil
	}
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for Alive(pid) {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for process %d: %w", pid, ctx.Err())
		case <-ticker.C:
		}
	}
	return nil
}
