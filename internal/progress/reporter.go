package progress

import (
	"math"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/tecnobros/battly-setup/internal/telemetry"
	"github.com/tecnobros/battly-setup/internal/types"
)

// Reporter is the orchestrator's single writer to a Sink. It keeps the
// emitted fraction within [0, 1] and non-decreasing, guarantees at most one
// terminal signal, and forwards coarse lifecycle events to telemetry.
type Reporter struct {
	sink     Sink
	recorder telemetry.Recorder

	mu   sync.Mutex
	last float64
	done bool
}

// NewReporter creates a reporter. A nil recorder disables telemetry.
func NewReporter(sink Sink, recorder telemetry.Recorder) *Reporter {
	if sink == nil {
		sink = Discard
	}
	if recorder == nil {
		recorder = telemetry.Noop{}
	}
	return &Reporter{sink: sink, recorder: recorder}
}

// Report implements Updater. Events with an unknown status key are
// dropped, and detail is cleared for keys that do not carry one.
func (r *Reporter) Report(fraction float64, status types.StatusKey, detail string) {
	if err := status.Validate(); err != nil {
		log.Errorf("dropping progress event: %v", err)
		return
	}
	if !status.HasDetail() {
		detail = ""
	}

	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	if math.IsNaN(fraction) || fraction < r.last {
		fraction = r.last
	}
	if fraction > 1 {
		fraction = 1
	}
	r.last = fraction
	r.mu.Unlock()

	log.Debugf("progress %.3f %s %s", fraction, status, detail)
	r.sink.Emit(Event{Fraction: fraction, Status: status, Detail: detail})
}

// Track records a lifecycle event.
func (r *Reporter) Track(event types.Event) {
	r.TrackWith(event, nil)
}

// TrackWith records a lifecycle event with properties.
func (r *Reporter) TrackWith(event types.Event, props map[string]any) {
	r.recorder.Track(event, props)
}

// Finish emits the terminal finished signal. Only the first terminal call
// has any effect.
func (r *Reporter) Finish() {
	if !r.markDone() {
		return
	}
	r.sink.Finished()
}

// Fail emits the terminal failed signal. Only the first terminal call has
// any effect.
func (r *Reporter) Fail(stage types.Stage, cause error) {
	if !r.markDone() {
		return
	}
	r.sink.Failed(stage, cause)
}

func (r *Reporter) markDone() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return false
	}
	r.done = true
	return true
}
