// Package bridge defines the message contract between the agent and the
// local helper process, and the transports that carry it. Requests and
// responses are correlated solely by requestId; the helper echoes it
// verbatim.
package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/tubetap/tubetap"
)

// Direction tags carried by every boundary message. Messages without a
// recognized tag are ignored.
const (
	DirectionDownloadRequest  = "download-request"
	DirectionDownloadResponse = "download-response"
	DirectionStatusRequest    = "download-status-request"
	DirectionStatusResponse   = "download-status-response"
)

// Message is any boundary message.
type Message interface {
	Direction() string
}

// JobStatus is the helper's view of a job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusDownloading JobStatus = "downloading"
	StatusProcessing  JobStatus = "processing"
	StatusFinished    JobStatus = "finished"
	StatusError       JobStatus = "error"
)

// Terminal reports whether no further status change will follow.
func (s JobStatus) Terminal() bool {
	return s == StatusFinished || s == StatusError
}

// DownloadRequest asks the helper to start a download. The helper's wire
// format calls the media kind "mode".
type DownloadRequest struct {
	RequestID string `json:"requestId"`
	Kind      string `json:"mode"`
	Quality   string `json:"quality,omitempty"`
	Title     string `json:"title,omitempty"`
	VideoID   string `json:"videoId"`
	PageURL   string `json:"pageUrl,omitempty"`
}

func (DownloadRequest) Direction() string { return DirectionDownloadRequest }

// DownloadResponse answers a DownloadRequest. A JobID means the download is
// asynchronous and must be polled; a DownloadURL without one means the
// artifact is immediately available.
type DownloadResponse struct {
	RequestID   string `json:"requestId"`
	Success     bool   `json:"success"`
	JobID       string `json:"jobId,omitempty"`
	Message     string `json:"message,omitempty"`
	DownloadURL string `json:"downloadUrl,omitempty"`
	Error       string `json:"error,omitempty"`
}

func (DownloadResponse) Direction() string { return DirectionDownloadResponse }

// StatusRequest polls the helper for job status.
type StatusRequest struct {
	RequestID string `json:"requestId"`
	JobID     string `json:"jobId"`
}

func (StatusRequest) Direction() string { return DirectionStatusRequest }

// StatusResponse answers a StatusRequest.
type StatusResponse struct {
	RequestID   string    `json:"requestId"`
	Success     bool      `json:"success"`
	Status      JobStatus `json:"status,omitempty"`
	Progress    int       `json:"progress,omitempty"`
	Message     string    `json:"message,omitempty"`
	DownloadURL string    `json:"downloadUrl,omitempty"`
	Error       string    `json:"error,omitempty"`
}

func (StatusResponse) Direction() string { return DirectionStatusResponse }

// ErrMessage extracts the user-facing failure text from a response.
func ErrMessage(errText, message string) string {
	if errText != "" {
		return errText
	}
	if message != "" {
		return message
	}
	return "request failed"
}

// Encode flattens a message into its wire form: the message's own fields
// plus the direction tag.
func Encode(msg Message) ([]byte, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	fields["direction"] = msg.Direction()
	return json.Marshal(fields)
}

// Decode parses a wire message by its direction tag. Unknown or missing
// tags yield ErrUnknownDirection and must be silently ignored by callers.
func Decode(data []byte) (Message, error) {
	var env struct {
		Direction string `json:"direction"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode message envelope: %w", err)
	}
	switch env.Direction {
	case DirectionDownloadRequest:
		var msg DownloadRequest
		return msg, json.Unmarshal(data, &msg)
	case DirectionDownloadResponse:
		var msg DownloadResponse
		return msg, json.Unmarshal(data, &msg)
	case DirectionStatusRequest:
		var msg StatusRequest
		return msg, json.Unmarshal(data, &msg)
	case DirectionStatusResponse:
		var msg StatusResponse
		return msg, json.Unmarshal(data, &msg)
	default:
		return nil, fmt.Errorf("%w: %q", tubetap.ErrUnknownDirection, env.Direction)
	}
}
