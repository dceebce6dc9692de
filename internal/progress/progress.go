// Package progress implements the one-way notification channel between the
// install worker and its observer.
package progress

import (
	"fmt"

	"github.com/tecnobros/battly-setup/internal/types"
)

// Event is a single progress snapshot.
type Event struct {
	Fraction float64         `json:"progress" yaml:"progress"`
	Status   types.StatusKey `json:"status_key" yaml:"status_key"`
	Detail   string          `json:"status_data,omitempty" yaml:"status_data,omitempty"`
}

// String renders the event for text output.
func (e Event) String() string {
	if e.Detail != "" {
		return fmt.Sprintf("%3.0f%% %s (%s)", e.Fraction*100, e.Status, e.Detail)
	}
	return fmt.Sprintf("%3.0f%% %s", e.Fraction*100, e.Status)
}

// Kind distinguishes progress snapshots from terminal signals.
type Kind string

const (
	KindProgress Kind = "install-progress"
	KindFinished Kind = "install-finished"
	KindFailed   Kind = "install-failed"
)

// Notification is what an observer receives. Event is set for
// KindProgress; Stage and Cause are set for KindFailed.
type Notification struct {
	Kind  Kind        `json:"kind" yaml:"kind"`
	Event *Event      `json:"event,omitempty" yaml:"event,omitempty"`
	Stage types.Stage `json:"stage,omitempty" yaml:"stage,omitempty"`
	Cause string      `json:"cause,omitempty" yaml:"cause,omitempty"`
}

// IsTerminal returns true for finished and failed notifications.
func (n Notification) IsTerminal() bool {
	return n.Kind == KindFinished || n.Kind == KindFailed
}

// Sink receives notifications from the worker. Implementations must not
// block the caller and must be safe to call from any goroutine.
type Sink interface {
	Emit(Event)
	Finished()
	Failed(stage types.Stage, cause error)
}

// Updater is the narrow interface pipeline steps use to report progress.
type Updater interface {
	Report(fraction float64, status types.StatusKey, detail string)
}

// Tracker is an Updater that also records lifecycle events. Reporter
// implements it.
type Tracker interface {
	Updater
	Track(event types.Event)
}

// UpdaterFunc adapts a function to the Updater interface.
type UpdaterFunc func(fraction float64, status types.StatusKey, detail string)

// Report calls f.
func (f UpdaterFunc) Report(fraction float64, status types.StatusKey, detail string) {
	f(fraction, status, detail)
}

// Nop is an Updater that discards every report.
var Nop Updater = UpdaterFunc(func(float64, types.StatusKey, string) {})

// Func adapts a notification callback to the Sink interface. The callback
// runs on the emitting goroutine, so it must return quickly.
type Func func(Notification)

// Emit implements Sink.
func (f Func) Emit(e Event) {
	f(Notification{Kind: KindProgress, Event: &e})
}

// Finished implements Sink.
func (f Func) Finished() {
	f(Notification{Kind: KindFinished})
}

// Failed implements Sink.
func (f Func) Failed(stage types.Stage, cause error) {
	n := Notification{Kind: KindFailed, Stage: stage}
	if cause != nil {
		n.Cause = cause.Error()
	}
	f(n)
}

// Discard is a Sink that drops everything.
var Discard Sink = Func(func(Notification) {})
