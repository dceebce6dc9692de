package installer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tecnobros/battly-setup/internal/types"
)

// ErrAlreadyStarted is returned when an Installer is run a second time.
var ErrAlreadyStarted = errors.New("install already started")

// StageError is the cause of a failed run.
type StageError struct {
	Stage types.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Warning is a best-effort step failure that did not abort the run.
type Warning struct {
	Stage   types.Stage `json:"stage" yaml:"stage"`
	Message string      `json:"message" yaml:"message"`
	Err     error       `json:"-" yaml:"-"`
}

func newWarning(stage types.Stage, err error) Warning {
	return Warning{Stage: stage, Message: err.Error(), Err: err}
}

// Outcome is the terminal result of a run.
type Outcome struct {
	Kind     types.OutcomeKind `json:"outcome" yaml:"outcome"`
	Stage    types.Stage       `json:"stage,omitempty" yaml:"stage,omitempty"`
	Cause    string            `json:"cause,omitempty" yaml:"cause,omitempty"`
	Err      error             `json:"-" yaml:"-"`
	Warnings []Warning         `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Files    int               `json:"files" yaml:"files"`
	Skipped  []string          `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Duration time.Duration     `json:"duration_ns" yaml:"duration_ns"`
}

// Failed returns true if a fatal step aborted the run.
func (o Outcome) Failed() bool {
	return o.Kind == types.OutcomeFailed
}

// String renders the outcome for text output.
func (o Outcome) String() string {
	var b strings.Builder
	switch o.Kind {
	case types.OutcomeFailed:
		verb := "failed"
		if !o.Stage.IsFatal() {
			verb = "interrupted"
		}
		fmt.Fprintf(&b, "Install %s during %s: %s", verb, o.Stage, o.Cause)
		return b.String()
	case types.OutcomePartial:
		fmt.Fprintf(&b, "Installed %d files with %d warning(s)", o.Files, len(o.Warnings))
	default:
		fmt.Fprintf(&b, "Installed %d files", o.Files)
	}
	for _, w := range o.Warnings {
		fmt.Fprintf(&b, "\n  - %s: %s", w.Stage, w.Message)
	}
	return b.String()
}
