// Package session implements the request/status coordination protocol: it
// owns the two control descriptors, the active-request registry and all
// timers, and reconciles them with page snapshots and helper responses.
//
// Everything runs on a single goroutine: commands, transport messages, poll
// ticks and refresh ticks funnel into one select loop, so no piece of
// coordination state is ever touched concurrently.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tubetap/tubetap"
	"github.com/tubetap/tubetap/generic"
	"github.com/tubetap/tubetap/internal/bridge"
	"github.com/tubetap/tubetap/internal/control"
	"github.com/tubetap/tubetap/internal/dom"
	"github.com/tubetap/tubetap/internal/observability"
	"github.com/tubetap/tubetap/internal/page"
	"github.com/tubetap/tubetap/internal/pubsub"
	"github.com/tubetap/tubetap/internal/store"
)

// DefaultCompleteMessage is shown when the helper reports completion without
// a message of its own.
const DefaultCompleteMessage = "Download complete"

// Config wires the session's collaborators.
type Config struct {
	Agent     tubetap.Config
	Source    page.Source
	Transport bridge.Transport
	// Store persists completed artifacts; defaults to store.NilStore.
	Store store.Store
	// Metrics is optional.
	Metrics *observability.Metrics
}

// activeRequest tracks one dispatched download until terminal resolution.
// At most one live poll timer exists per entry.
type activeRequest struct {
	id      string
	kind    control.Kind
	owner   *control.Descriptor
	videoID string
	jobID   string

	pollTimer *time.Timer
	// pollSeq invalidates poll ticks queued before a timer restart.
	pollSeq uint64
}

type Session struct {
	config    Config
	ctx       context.Context
	ctxCancel context.CancelFunc
	log       *zap.SugaredLogger

	controls map[control.Kind]*control.Descriptor
	// active is the sole shared registry; only the run goroutine touches it.
	active map[string]*activeRequest
	// jobs enforces one active entry per job handle.
	jobs map[string]string

	container      *dom.Container
	currentVideoID string
	currentURL     string
	currentTitle   string

	events   pubsub.Publisher[Event]
	commands chan func()
	done     chan struct{}
}

// New creates a session and starts its run loop.
func New(config Config, ctx context.Context) (*Session, error) {
	if config.Source == nil {
		return nil, errors.New("session requires a page source")
	}
	if config.Transport == nil {
		return nil, errors.New("session requires a transport")
	}
	if config.Store == nil {
		config.Store = store.NilStore{}
	}
	if err := config.Agent.Validate(); err != nil {
		return nil, fmt.Errorf("invalid agent config: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		config:    config,
		ctx:       ctx,
		ctxCancel: cancel,
		log:       zap.S().Named("session"),
		controls: map[control.Kind]*control.Descriptor{
			control.KindVideo: control.New(control.KindVideo),
			control.KindAudio: control.New(control.KindAudio),
		},
		active:   make(map[string]*activeRequest),
		jobs:     make(map[string]string),
		events:   pubsub.NewPublisher[Event](),
		commands: make(chan func()),
		done:     make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Subscribe returns a receiver of session events.
func (s *Session) Subscribe() (pubsub.ReceiverCloser[Event], error) {
	return s.events.Subscribe()
}

// Refresh triggers a pipeline re-evaluation (page-change watcher hook).
func (s *Session) Refresh() {
	s.post(func() { s.refresh() })
}

// Click delivers a user click on one of the controls and reports any
// immediate dispatch failure. Clicking a disabled control is a no-op.
func (s *Session) Click(kind control.Kind) error {
	ch := make(chan generic.Result[struct{}], 1)
	s.post(func() {
		ch <- generic.NewResult(struct{}{}, s.click(kind))
	})
	select {
	case result := <-ch:
		_, err := result.Parts()
		return err
	case <-s.ctx.Done():
		return tubetap.ErrSessionClosed
	}
}

// ControlState returns a snapshot of one control descriptor.
func (s *Session) ControlState(kind control.Kind) (control.Descriptor, error) {
	ch := make(chan generic.Result[control.Descriptor], 1)
	s.post(func() {
		ch <- generic.Ok(*s.controls[kind])
	})
	select {
	case result := <-ch:
		return result.Parts()
	case <-s.ctx.Done():
		return control.Descriptor{}, tubetap.ErrSessionClosed
	}
}

// ActiveRequestCount reports how many requests are awaiting resolution.
func (s *Session) ActiveRequestCount() int {
	ch := make(chan generic.Result[int], 1)
	s.post(func() {
		ch <- generic.Ok(len(s.active))
	})
	select {
	case result := <-ch:
		return result.Value
	case <-s.ctx.Done():
		return 0
	}
}

// Close shuts the session down and waits for the run loop to exit.
func (s *Session) Close() {
	s.ctxCancel()
	<-s.done
}

func (s *Session) post(f func()) {
	select {
	case s.commands <- f:
	case <-s.ctx.Done():
	}
}

func newRequestID() string {
	// Time prefix for ordering when eyeballing logs, random suffix for
	// uniqueness within the process lifetime.
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString())
}
