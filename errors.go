package tubetap

import "errors"

var (
	// ErrMissingVideoID indicates the target video ID could not be resolved
	// from page metadata or the page URL; no request is sent.
	ErrMissingVideoID = errors.New("missing video id")
	// ErrSessionClosed indicates the session is shut down.
	ErrSessionClosed = errors.New("session closed")
	// ErrUnknownDirection indicates a message carried no recognized direction tag.
	ErrUnknownDirection = errors.New("unknown message direction")
	// ErrFormatUnavailable indicates no suitable stream exists for a media
	// kind. This is not a failure state: the control is shown as unavailable.
	ErrFormatUnavailable = errors.New("no suitable format")
)
