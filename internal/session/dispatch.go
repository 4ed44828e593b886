package session

import (
	"fmt"
	"time"

	"github.com/tubetap/tubetap"
	"github.com/tubetap/tubetap/internal/bridge"
	"github.com/tubetap/tubetap/internal/control"
)

// click handles a user click on a control. Runs on the session goroutine.
func (s *Session) click(kind control.Kind) error {
	c := s.controls[kind]

	switch {
	case !c.State.Interactive():
		// Disabled controls ignore clicks entirely.
		return nil
	case c.State == control.StateCompleted || c.State == control.StateLinkReady:
		// Terminal success: open the stored artifact, never re-dispatch.
		s.events.Send(OpenArtifact{controlEvent{kind}, c.ArtifactURL})
		return nil
	case c.State == control.StateFailed:
		// Clicking the error is an early retry; revert and fall through.
		s.mutate(c, c.RevertFailed)
		if c.State != control.StateReady {
			return nil
		}
	}

	return s.dispatch(c)
}

// dispatch creates a unique request for the control's current format and
// sends it to the helper. The response arrives later through the transport.
func (s *Session) dispatch(c *control.Descriptor) error {
	videoID := c.VideoID
	if videoID == "" {
		videoID = s.currentVideoID
	}
	if videoID == "" {
		// Fails locally; the control stays ready and nothing is sent.
		return fmt.Errorf("%w: cannot dispatch %s download", tubetap.ErrMissingVideoID, c.Kind)
	}

	requestID := newRequestID()
	entry := &activeRequest{
		id:      requestID,
		kind:    c.Kind,
		owner:   c,
		videoID: videoID,
	}
	s.active[requestID] = entry
	if s.config.Metrics != nil {
		s.config.Metrics.RequestsDispatched.WithLabelValues(string(c.Kind)).Inc()
		s.config.Metrics.ActiveRequests.Inc()
	}

	s.mutate(c, func() { c.BeginRequest(requestID) })
	s.events.Send(RequestDispatched{controlEvent{c.Kind}, requestID})

	msg := bridge.DownloadRequest{
		RequestID: requestID,
		Kind:      string(c.Kind),
		Quality:   currentFormatQuality(c),
		Title:     s.currentTitle,
		VideoID:   videoID,
		PageURL:   s.currentURL,
	}
	s.log.Infow("dispatching download request",
		"request_id", requestID, "kind", c.Kind, "video_id", videoID, "quality", msg.Quality)
	if err := s.config.Transport.Send(msg); err != nil {
		s.failRequest(entry, err.Error())
		return err
	}
	return nil
}

// failRequest is the single terminal-failure path: the entry is destroyed,
// its timer cancelled, the control shows the error and auto-reverts later.
func (s *Session) failRequest(entry *activeRequest, message string) {
	c := entry.owner
	s.destroyEntry(entry)
	if s.config.Metrics != nil {
		s.config.Metrics.RequestsRejected.Inc()
	}

	s.mutate(c, func() { c.MarkFailed(message) })
	s.events.Send(RequestFailed{controlEvent{c.Kind}, entry.id, message})
	s.log.Infow("request failed", "request_id", entry.id, "kind", c.Kind, "message", message)

	s.scheduleRevert(c)
}

// scheduleRevert arms the failed auto-recovery. The revision guard makes a
// late-firing timer harmless if the control moved on meanwhile.
func (s *Session) scheduleRevert(c *control.Descriptor) {
	rev := c.Rev
	time.AfterFunc(s.config.Agent.FailedRevertDelay, func() {
		s.post(func() {
			if c.Rev == rev {
				s.mutate(c, c.RevertFailed)
			}
		})
	})
}

// destroyEntry removes an active request and cancels its poll timer. Every
// terminal transition funnels through here, so timers cannot leak.
func (s *Session) destroyEntry(entry *activeRequest) {
	entry.pollSeq++
	if entry.pollTimer != nil {
		entry.pollTimer.Stop()
		entry.pollTimer = nil
	}
	if _, ok := s.active[entry.id]; ok {
		delete(s.active, entry.id)
		if s.config.Metrics != nil {
			s.config.Metrics.ActiveRequests.Dec()
		}
	}
	if entry.jobID != "" {
		delete(s.jobs, entry.jobID)
	}
}

func (s *Session) abandonAll() {
	for _, entry := range s.active {
		s.destroyEntry(entry)
	}
}
