// Package telemetry records named lifecycle events to an analytics endpoint.
// Delivery is fire-and-forget: Track never blocks and never reports errors
// to the caller.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/tecnobros/battly-setup/internal/types"
)

const (
	eventPath        = "/api/v0/event"
	defaultQueueSize = 64
	sdkVersion       = "battly-setup-telemetry@1"
)

// Recorder is the "record named event" capability used by the orchestrators.
type Recorder interface {
	Track(event types.Event, props map[string]any)
}

// Noop discards every event.
type Noop struct{}

// Track implements Recorder.
func (Noop) Track(types.Event, map[string]any) {}

// Options configures a Client.
type Options struct {
	Host       string // e.g. https://analytics.example.com
	AppKey     string
	AppVersion string
	QueueSize  int
	MaxRetries uint64
	HTTPClient *http.Client
}

type systemProps struct {
	IsDebug    bool   `json:"isDebug"`
	OSName     string `json:"osName"`
	Locale     string `json:"locale,omitempty"`
	AppVersion string `json:"appVersion"`
	SDKVersion string `json:"sdkVersion"`
}

type payload struct {
	Timestamp   string         `json:"timestamp"`
	SessionID   string         `json:"sessionId"`
	EventName   string         `json:"eventName"`
	SystemProps systemProps    `json:"systemProps"`
	Props       map[string]any `json:"props,omitempty"`
}

// Client posts events from a single background worker.
type Client struct {
	opts      Options
	endpoint  string
	sessionID string

	mu     sync.RWMutex
	closed bool
	queue  chan payload

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	dropped atomic.Int64
}

// New creates a client and starts its worker.
func New(opts Options) *Client {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 2
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		opts:      opts,
		endpoint:  strings.TrimRight(opts.Host, "/") + eventPath,
		sessionID: uuid.NewString(),
		queue:     make(chan payload, opts.QueueSize),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go c.loop()
	return c
}

// SessionID returns the identifier attached to every event of this process.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Dropped returns the number of events discarded because the queue was full.
func (c *Client) Dropped() int64 {
	return c.dropped.Load()
}

// Track implements Recorder.
func (c *Client) Track(event types.Event, props map[string]any) {
	p := payload{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		SessionID: c.sessionID,
		EventName: event.String(),
		SystemProps: systemProps{
			OSName:     runtime.GOOS,
			AppVersion: c.opts.AppVersion,
			SDKVersion: sdkVersion,
		},
		Props: props,
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}

	select {
	case c.queue <- p:
	default:
		c.dropped.Add(1)
		log.Debugf("telemetry queue full, dropping event %s", event)
	}
}

// Close stops accepting events and waits for queued events to be delivered
// or for ctx to expire, whichever comes first.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.queue)
	}
	c.mu.Unlock()

	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		c.cancel()
		<-c.done
		return ctx.Err()
	}
}

func (c *Client) loop() {
	defer close(c.done)
	defer c.cancel()

	for p := range c.queue {
		if err := c.send(p); err != nil {
			log.Debugf("failed to deliver telemetry event %s: %v", p.EventName, err)
		}
	}
}

func (c *Client) send(p payload) error {
	body, err := json.Marshal([]payload{p})
	if err != nil {
		return err
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(c.ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("App-Key", c.opts.AppKey)

		resp, err := c.opts.HTTPClient.Do(req)
		if err != nil {
			return err
		}
		_ = resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("unexpected HTTP status: %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("unexpected HTTP status: %d", resp.StatusCode))
		}
	}

	return backoff.Retry(operation, c.backoff())
}

func (c *Client) backoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 10 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(b, c.opts.MaxRetries), c.ctx)
}
