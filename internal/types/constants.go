// Package types provides type-safe constants for the installer pipeline.
//
// This package centralizes the enumerated values shared between the
// orchestrators, the progress channel and the observers: status keys,
// pipeline stages, lifecycle event names and outcome kinds.
//
// SYNC REQUIREMENT: StatusKey values are rendered by the UI translation
// tables, so they must never be renamed.
package types

import "fmt"

// StatusKey is the symbolic status carried by a progress event.
type StatusKey string

const (
	// StatusCleaning is emitted while the install directory is being reset.
	StatusCleaning StatusKey = "status_cleaning"
	// StatusDownloadingStart is emitted when the payload fetch begins.
	StatusDownloadingStart StatusKey = "status_downloading_start"
	// StatusDownloadingPercent carries the integer download percentage as detail.
	StatusDownloadingPercent StatusKey = "status_downloading_percent"
	// StatusExtracting is emitted before the first archive entry is processed.
	StatusExtracting StatusKey = "status_extracting"
	// StatusInstalling is emitted periodically while archive entries are written.
	StatusInstalling StatusKey = "status_installing"
	// StatusShortcuts is emitted before shortcut artifacts are created.
	StatusShortcuts StatusKey = "status_shortcuts"
	// StatusOpera is emitted before the optional bundle is provisioned.
	StatusOpera StatusKey = "status_opera"
)

// AllStatusKeys returns all valid status keys in pipeline order.
func AllStatusKeys() []StatusKey {
	return []StatusKey{
		StatusCleaning,
		StatusDownloadingStart,
		StatusDownloadingPercent,
		StatusExtracting,
		StatusInstalling,
		StatusShortcuts,
		StatusOpera,
	}
}

// Validate checks if the StatusKey is a valid value.
func (k StatusKey) Validate() error {
	for _, valid := range AllStatusKeys() {
		if k == valid {
			return nil
		}
	}
	if k == "" {
		return fmt.Errorf("status key is required")
	}
	return fmt.Errorf("invalid status key '%s'", k)
}

// String returns the string representation of the StatusKey.
func (k StatusKey) String() string {
	return string(k)
}

// HasDetail returns true if events with this key carry a detail parameter.
func (k StatusKey) HasDetail() bool {
	return k == StatusDownloadingPercent
}

// Stage is one discrete phase of the install state machine.
type Stage string

const (
	StageIdle        Stage = "idle"
	StageCleaning    Stage = "cleaning"
	StageDownloading Stage = "downloading"
	StageExtracting  Stage = "extracting"
	StageRegistering Stage = "registering"
	StageBundle      Stage = "provisioning_bundle"
	StageFinished    Stage = "finished"
	StageFailed      Stage = "failed"
)

// AllStages returns the stages in the order the pipeline visits them.
// StageFailed is terminal and not part of the sequence.
func AllStages() []Stage {
	return []Stage{
		StageIdle,
		StageCleaning,
		StageDownloading,
		StageExtracting,
		StageRegistering,
		StageBundle,
		StageFinished,
	}
}

// String returns the string representation of the Stage.
func (s Stage) String() string {
	return string(s)
}

// Index returns the position of the stage in the pipeline, or -1 for
// StageFailed and unknown stages.
func (s Stage) Index() int {
	for i, st := range AllStages() {
		if st == s {
			return i
		}
	}
	return -1
}

// IsTerminal returns true if no transition leaves this stage.
func (s Stage) IsTerminal() bool {
	return s == StageFinished || s == StageFailed
}

// IsFatal returns true if a failure in this stage aborts the run.
func (s Stage) IsFatal() bool {
	switch s {
	case StageCleaning, StageDownloading, StageExtracting:
		return true
	default:
		return false
	}
}

// CanTransition reports whether the state machine may move from s to next.
// Transitions only move forward; StageBundle may be skipped, and any
// non-terminal stage may move to StageFailed.
func (s Stage) CanTransition(next Stage) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StageFailed {
		return true
	}
	from, to := s.Index(), next.Index()
	if from < 0 || to < 0 {
		return false
	}
	if to == from+1 {
		return true
	}
	return s == StageRegistering && next == StageFinished
}

// Event is a named lifecycle event recorded by the telemetry sink.
type Event string

const (
	EventInstallStarted        Event = "install_started"
	EventOperaAccepted         Event = "opera_accepted"
	EventCleanupStarted        Event = "cleanup_started"
	EventCleanupFinished       Event = "cleanup_finished"
	EventDownloadStarted       Event = "download_started"
	EventDownloadFinished      Event = "download_finished"
	EventExtractStarted        Event = "extract_started"
	EventExtractComplete       Event = "extract_complete"
	EventUninstallerRegistered Event = "uninstaller_registered"
	EventShortcutsCreated      Event = "shortcuts_created"
	EventOperaInstalled        Event = "opera_installed"
	EventInstallComplete       Event = "install_complete"
	EventInstallFailed         Event = "install_failed"
	EventUninstallStarted      Event = "uninstall_started"
	EventUninstallComplete     Event = "uninstall_complete"
)

// String returns the string representation of the Event.
func (e Event) String() string {
	return string(e)
}

// OutcomeKind tags the terminal result of an install run.
type OutcomeKind string

const (
	// OutcomeSuccess means every step succeeded.
	OutcomeSuccess OutcomeKind = "success"
	// OutcomePartial means the run finished but best-effort steps failed.
	OutcomePartial OutcomeKind = "partial"
	// OutcomeFailed means a fatal step aborted the run.
	OutcomeFailed OutcomeKind = "failed"
)

// String returns the string representation of the OutcomeKind.
func (k OutcomeKind) String() string {
	return string(k)
}

// Finished returns true if the run reached the Finished stage.
func (k OutcomeKind) Finished() bool {
	return k == OutcomeSuccess || k == OutcomePartial
}
