package session

import (
	"time"

	"github.com/tubetap/tubetap/internal/control"
	"github.com/tubetap/tubetap/internal/dom"
	"github.com/tubetap/tubetap/internal/page"
	"github.com/tubetap/tubetap/internal/store"
	"github.com/tubetap/tubetap/internal/streams"
)

func (s *Session) run() {
	refreshTicker := time.NewTicker(s.config.Agent.RefreshInterval)
	defer refreshTicker.Stop()

	s.refresh()

	rx := s.config.Transport.Receive()
	for {
		select {
		case <-s.ctx.Done():
			s.teardown()
			return
		case f := <-s.commands:
			f()
		case msg, ok := <-rx:
			if !ok {
				// Transport gone; go quiet rather than spin on the closed
				// channel.
				rx = nil
				continue
			}
			s.handleMessage(msg)
		case <-refreshTicker.C:
			s.refresh()
		}
	}
}

func (s *Session) teardown() {
	s.abandonAll()
	s.events.Close()
	close(s.done)
}

// mutate applies f to a control and, if it transitioned, publishes the
// change and re-renders the projection.
func (s *Session) mutate(c *control.Descriptor, f func()) {
	old := *c
	f()
	if old.Rev != c.Rev {
		s.events.Send(ControlUpdated{controlEvent{c.Kind}, old, *c})
		s.render(c)
	}
}

func (s *Session) render(c *control.Descriptor) {
	if s.container != nil {
		s.container.Render(c)
	}
}

// refresh is the full pipeline re-evaluation: snapshot the page, place or
// remove the container, reselect formats and reconcile the controls.
// In-flight request lifecycle always wins over format refresh.
func (s *Session) refresh() {
	if s.config.Metrics != nil {
		s.config.Metrics.RefreshCycles.Inc()
	}

	snap, err := s.config.Source.Snapshot(s.ctx)
	if err != nil {
		s.log.Warnw("page snapshot failed", "error", err)
		return
	}

	if snap.Kind != page.KindWatch {
		// Remove, not hide: no state may leak across page types.
		dom.Remove(snap.Document)
		s.container = nil
		if s.currentVideoID != "" {
			s.leaveVideo()
			s.currentVideoID = ""
			s.currentURL = snap.URL
			s.events.Send(PageChanged{controlEvent{}, "", snap.URL})
		}
		return
	}

	if snap.VideoID != s.currentVideoID {
		s.leaveVideo()
		s.currentVideoID = snap.VideoID
		s.events.Send(PageChanged{controlEvent{}, snap.VideoID, snap.URL})
		s.restoreArtifacts(snap.VideoID)
	}
	s.currentURL = snap.URL
	s.currentTitle = snap.Title

	s.container = dom.Ensure(snap.Document)

	if snap.Streams == nil {
		// Page has not published stream data yet; retry on a later cycle
		// rather than downgrading the controls to unavailable.
		s.renderAll()
		return
	}

	picks := streams.Select(snap.Streams)
	s.mutate(s.controls[control.KindVideo], func() {
		s.controls[control.KindVideo].ApplyFormat(snap.VideoID, picks.Video)
	})
	s.mutate(s.controls[control.KindAudio], func() {
		s.controls[control.KindAudio].ApplyFormat(snap.VideoID, picks.Audio)
	})
	s.renderAll()
}

func (s *Session) renderAll() {
	for _, c := range s.controls {
		s.render(c)
	}
}

// leaveVideo abandons all in-flight requests and resets both controls.
// Responses that still arrive for the abandoned requests are dropped as
// stale; the helper is not told to stop.
func (s *Session) leaveVideo() {
	s.abandonAll()
	for _, c := range s.controls {
		s.mutate(c, c.Reset)
	}
}

// restoreArtifacts brings controls for a previously completed video straight
// back to completed from the artifact store.
func (s *Session) restoreArtifacts(videoID string) {
	for kind, c := range s.controls {
		artifact, found, err := s.config.Store.Artifact(videoID, kind)
		if err != nil {
			s.log.Warnw("artifact lookup failed", "video_id", videoID, "kind", kind, "error", err)
			continue
		}
		if !found {
			continue
		}
		s.mutate(c, func() {
			c.VideoID = videoID
			c.MarkCompleted(artifact.URL, DefaultCompleteMessage)
		})
	}
}

func (s *Session) persistArtifact(c *control.Descriptor, url string) {
	if url == "" || c.VideoID == "" {
		return
	}
	artifact := store.Artifact{
		VideoID: c.VideoID,
		Kind:    c.Kind,
		URL:     url,
		Title:   s.currentTitle,
		SavedAt: time.Now(),
	}
	if err := s.config.Store.SaveArtifact(artifact); err != nil {
		s.log.Warnw("artifact persist failed", "video_id", c.VideoID, "kind", c.Kind, "error", err)
	}
}

// currentFormatQuality returns the quality label sent with a request.
func currentFormatQuality(c *control.Descriptor) string {
	if c.Format.IsNone() {
		return ""
	}
	f := c.Format.Unwrap()
	if c.Kind == control.KindAudio {
		return streams.AudioLabel(f)
	}
	return streams.VideoLabel(f)
}
