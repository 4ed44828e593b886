package session

import "github.com/tubetap/tubetap/internal/control"

// Event is anything the session tells its subscribers about.
type Event interface {
	// Control this event relates to (empty for page-level events).
	Control() control.Kind
}

type controlEvent struct {
	kind control.Kind
}

func (e controlEvent) Control() control.Kind {
	return e.kind
}

// ControlUpdated is published on every observable descriptor transition.
type ControlUpdated struct {
	controlEvent
	OldState control.Descriptor
	NewState control.Descriptor
}

// RequestDispatched is published when a download request is sent out.
type RequestDispatched struct {
	controlEvent
	RequestID string
}

// RequestFailed is published on terminal failure of a request.
type RequestFailed struct {
	controlEvent
	RequestID string
	Message   string
}

// RequestCompleted is published when a request reaches a stored artifact.
type RequestCompleted struct {
	controlEvent
	RequestID string
	URL       string
}

// OpenArtifact is published when the user clicks a control whose artifact is
// ready; the embedder is expected to open the URL.
type OpenArtifact struct {
	controlEvent
	URL string
}

// PageChanged is published when re-evaluation lands on a different video.
type PageChanged struct {
	controlEvent
	VideoID string
	URL     string
}
