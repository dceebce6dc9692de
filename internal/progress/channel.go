package progress

import (
	"sync"

	"github.com/tecnobros/battly-setup/internal/types"
)

// Channel delivers notifications to an observer goroutine in emission order.
// Emission appends to an internal queue and never waits for the observer;
// a pump goroutine forwards queued notifications to C. After a terminal
// notification the channel closes itself, so observers can range over C.
type Channel struct {
	mu     sync.Mutex
	queue  []Notification
	closed bool

	wake chan struct{}
	done chan struct{}
	out  chan Notification

	abandonOnce sync.Once
}

// NewChannel creates a channel and starts its pump.
func NewChannel() *Channel {
	c := &Channel{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		out:  make(chan Notification),
	}
	go c.pump()
	return c
}

// C returns the receive side. It is closed once every notification emitted
// before Close (or the terminal signal) has been delivered.
func (c *Channel) C() <-chan Notification {
	return c.out
}

// Emit implements Sink.
func (c *Channel) Emit(e Event) {
	c.push(Notification{Kind: KindProgress, Event: &e}, false)
}

// Finished implements Sink.
func (c *Channel) Finished() {
	c.push(Notification{Kind: KindFinished}, true)
}

// Failed implements Sink.
func (c *Channel) Failed(stage types.Stage, cause error) {
	n := Notification{Kind: KindFailed, Stage: stage}
	if cause != nil {
		n.Cause = cause.Error()
	}
	c.push(n, true)
}

// Close stops accepting notifications. Already queued notifications are
// still delivered. Close is idempotent.
func (c *Channel) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.signal()
}

// Abandon is called by an observer that stops reading. Pending
// notifications are discarded and the pump exits.
func (c *Channel) Abandon() {
	c.Close()
	c.abandonOnce.Do(func() { close(c.done) })
}

func (c *Channel) push(n Notification, last bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.queue = append(c.queue, n)
	if last {
		c.closed = true
	}
	c.mu.Unlock()
	c.signal()
}

func (c *Channel) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Channel) pump() {
	defer close(c.out)

	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			closed := c.closed
			c.mu.Unlock()
			if closed {
				return
			}
			select {
			case <-c.wake:
			case <-c.done:
				return
			}
			continue
		}
		n := c.queue[0]
		c.queue[0] = Notification{}
		c.queue = c.queue[1:]
		c.mu.Unlock()

		select {
		case c.out <- n:
		case <-c.done:
			return
		}
	}
}
