// Package control holds the state machine for one injected download control.
// A Descriptor is the source of truth for everything the rendered control
// shows; the DOM is only ever a projection of it. Descriptors are owned by
// the session goroutine and are never mutated concurrently.
package control

import (
	"fmt"

	youtube "github.com/kkdai/youtube/v2"

	"github.com/tubetap/tubetap/generic"
	"github.com/tubetap/tubetap/internal/streams"
)

// Kind distinguishes the two injected controls.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// State is the lifecycle state of a control.
type State string

const (
	// StateUnavailable: no suitable stream for this media kind; disabled.
	StateUnavailable State = "unavailable"
	// StateReady: a format is attached and the control is clickable.
	StateReady State = "ready"
	// StatePending: a request was dispatched, no response yet; disabled.
	StatePending State = "pending"
	// StateLinkReady: the helper answered with an immediate download link;
	// clicking opens it.
	StateLinkReady State = "link-ready"
	// StateTracking: the helper returned a job handle that is being polled;
	// disabled, showing the current job stage.
	StateTracking State = "tracking"
	// StateCompleted: terminal success with a stored artifact link; clicking
	// opens it, never re-dispatches.
	StateCompleted State = "completed"
	// StateFailed: terminal failure, shown to the user; auto-reverts to
	// ready after a fixed delay.
	StateFailed State = "failed"
)

// Stage is the sub-state reported by the helper while a job is tracked.
type Stage string

const (
	StageQueued      Stage = "queued"
	StageDownloading Stage = "downloading"
	StageProcessing  Stage = "processing"
)

// InFlight returns true while a request owns this control's lifecycle.
// Format refreshes must not downgrade an in-flight control.
func (s State) InFlight() bool {
	return s == StatePending || s == StateTracking
}

// Interactive returns true if clicking the control does anything.
func (s State) Interactive() bool {
	switch s {
	case StateReady, StateLinkReady, StateCompleted, StateFailed:
		return true
	default:
		return false
	}
}

// Descriptor is one injected control. Created once per process lifetime and
// reused across navigations: it is reset, never destroyed.
type Descriptor struct {
	Kind  Kind
	State State

	// Format is the currently selected stream, present only when a format
	// refresh found one.
	Format generic.Option[youtube.Format]
	// VideoID identifies the page the current state belongs to.
	VideoID string
	// RequestID references the live active-request entry, empty if none.
	RequestID string

	Stage       Stage
	Progress    int
	Message     string
	ArtifactURL string

	// Rev increments on every transition, so deferred work (the failed
	// auto-revert timer) can detect it is stale.
	Rev uint64
}

func New(kind Kind) *Descriptor {
	return &Descriptor{Kind: kind, State: StateUnavailable}
}

func (d *Descriptor) bump() {
	d.Rev++
}

// ApplyFormat reconciles the control with the latest format pick for the
// given video. In-flight lifecycle takes precedence: a pending or tracking
// control keeps its state untouched. A completed or link-ready control for
// the same video also keeps its state, so the stored artifact link survives
// refreshes.
func (d *Descriptor) ApplyFormat(videoID string, format generic.Option[youtube.Format]) {
	if d.State.InFlight() {
		return
	}
	if (d.State == StateCompleted || d.State == StateLinkReady) && d.VideoID == videoID {
		return
	}
	d.VideoID = videoID
	d.Format = format
	if format.IsSome() {
		d.toReady()
	} else {
		d.bump()
		d.State = StateUnavailable
		d.Message = ""
	}
}

// Reset returns the control to its initial state, dropping any association
// with a previous page. Called on navigation; the descriptor itself lives on.
func (d *Descriptor) Reset() {
	d.bump()
	d.State = StateUnavailable
	d.Format = generic.None[youtube.Format]()
	d.VideoID = ""
	d.RequestID = ""
	d.Stage = ""
	d.Progress = 0
	d.Message = ""
	d.ArtifactURL = ""
}

// BeginRequest moves a ready control to pending under the given request.
func (d *Descriptor) BeginRequest(requestID string) {
	d.bump()
	d.State = StatePending
	d.RequestID = requestID
	d.Stage = ""
	d.Progress = 0
	d.Message = ""
	d.ArtifactURL = ""
}

// MarkLinkReady records an immediately available download link.
func (d *Descriptor) MarkLinkReady(url, message string) {
	d.bump()
	d.State = StateLinkReady
	d.RequestID = ""
	d.ArtifactURL = url
	d.Message = message
}

// MarkTracking records that the request became an asynchronous job.
func (d *Descriptor) MarkTracking(stage Stage, message string, progress int) {
	d.bump()
	d.State = StateTracking
	d.Stage = stage
	d.Message = message
	if progress > 0 {
		d.Progress = progress
	}
}

// MarkCompleted records terminal success with the stored artifact reference.
func (d *Descriptor) MarkCompleted(url, message string) {
	d.bump()
	d.State = StateCompleted
	d.RequestID = ""
	d.Stage = ""
	d.Progress = 100
	d.ArtifactURL = url
	d.Message = message
}

// MarkFailed records terminal failure with a user-visible message.
func (d *Descriptor) MarkFailed(message string) {
	d.bump()
	d.State = StateFailed
	d.RequestID = ""
	d.Stage = ""
	d.Progress = 0
	d.Message = message
	d.ArtifactURL = ""
}

// RevertFailed moves a failed control back to ready (or unavailable if the
// format disappeared meanwhile). No-op unless still failed.
func (d *Descriptor) RevertFailed() {
	if d.State != StateFailed {
		return
	}
	if d.Format.IsSome() {
		d.toReady()
	} else {
		d.bump()
		d.State = StateUnavailable
		d.Message = ""
	}
}

func (d *Descriptor) toReady() {
	d.bump()
	d.State = StateReady
	d.RequestID = ""
	d.Stage = ""
	d.Progress = 0
	d.Message = ""
	d.ArtifactURL = ""
}

// Label is the text the rendered control shows for the current state.
func (d *Descriptor) Label() string {
	switch d.State {
	case StateUnavailable:
		return fmt.Sprintf("No %s available", d.Kind)
	case StateReady:
		return fmt.Sprintf("Download %s (%s)", d.Kind, d.qualityText())
	case StatePending:
		return "Requesting…"
	case StateTracking:
		return d.trackingLabel()
	case StateLinkReady:
		return "Link ready – click to open"
	case StateCompleted:
		return "Done – click to open"
	case StateFailed:
		return "Failed: " + d.Message
	default:
		return string(d.State)
	}
}

func (d *Descriptor) trackingLabel() string {
	if d.Message != "" {
		if d.Stage == StageDownloading && d.Progress > 0 {
			return fmt.Sprintf("%s %d%%", d.Message, d.Progress)
		}
		return d.Message
	}
	switch d.Stage {
	case StageQueued:
		return "Queued…"
	case StageDownloading:
		if d.Progress > 0 {
			return fmt.Sprintf("Downloading… %d%%", d.Progress)
		}
		return "Downloading…"
	case StageProcessing:
		return "Processing…"
	default:
		return "Working…"
	}
}

func (d *Descriptor) qualityText() string {
	if d.Format.IsNone() {
		return "?"
	}
	f := d.Format.Unwrap()
	if d.Kind == KindAudio {
		return streams.AudioLabel(f)
	}
	return streams.VideoLabel(f)
}
