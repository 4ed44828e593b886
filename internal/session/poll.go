package session

import (
	"time"

	"github.com/tubetap/tubetap/internal/bridge"
	"github.com/tubetap/tubetap/internal/control"
)

// handleMessage routes one transport message. Responses for unknown request
// IDs are dropped silently: they are expected under navigation races.
func (s *Session) handleMessage(msg bridge.Message) {
	switch m := msg.(type) {
	case bridge.DownloadResponse:
		s.handleDownloadResponse(m)
	case bridge.StatusResponse:
		s.handleStatusResponse(m)
	default:
		s.log.Debugw("ignoring message", "direction", msg.Direction())
	}
}

func (s *Session) handleDownloadResponse(m bridge.DownloadResponse) {
	entry, ok := s.active[m.RequestID]
	if !ok {
		s.dropStale(m.RequestID)
		return
	}
	c := entry.owner

	if !m.Success {
		s.failRequest(entry, bridge.ErrMessage(m.Error, m.Message))
		return
	}

	if m.JobID != "" {
		if owner, taken := s.jobs[m.JobID]; taken && owner != entry.id {
			// One active entry per job handle; a duplicate grant cannot be
			// polled, so the request fails rather than hanging at pending.
			s.log.Warnw("job handle already tracked", "job_id", m.JobID, "request_id", m.RequestID)
			s.failRequest(entry, "job already tracked by another request")
			return
		}
		entry.jobID = m.JobID
		s.jobs[m.JobID] = entry.id
		s.mutate(c, func() { c.MarkTracking(control.StageQueued, m.Message, 0) })
		s.startPolling(entry.id, m.JobID)
		return
	}

	// Synchronous completion: no job to poll.
	message := m.Message
	if message == "" {
		message = DefaultCompleteMessage
	}
	s.destroyEntry(entry)
	if m.DownloadURL != "" {
		s.mutate(c, func() { c.MarkLinkReady(m.DownloadURL, message) })
		s.persistArtifact(c, m.DownloadURL)
	} else {
		s.mutate(c, func() { c.MarkCompleted("", message) })
	}
	if s.config.Metrics != nil {
		s.config.Metrics.RequestsCompleted.Inc()
	}
	s.events.Send(RequestCompleted{controlEvent{c.Kind}, m.RequestID, m.DownloadURL})
}

// startPolling begins status polling for a job handle: one immediate query,
// then one every poll interval. Restarting for the same request cancels any
// previous timer first, so a single live timer exists per entry.
func (s *Session) startPolling(requestID, jobID string) {
	entry, ok := s.active[requestID]
	if !ok {
		return
	}
	entry.pollSeq++
	if entry.pollTimer != nil {
		entry.pollTimer.Stop()
		entry.pollTimer = nil
	}
	entry.jobID = jobID
	s.pollNow(entry)
}

func (s *Session) pollNow(entry *activeRequest) {
	if s.config.Metrics != nil {
		s.config.Metrics.PollsIssued.Inc()
	}
	msg := bridge.StatusRequest{RequestID: entry.id, JobID: entry.jobID}
	if err := s.config.Transport.Send(msg); err != nil {
		s.failRequest(entry, err.Error())
	}
}

// rearmPoll schedules the next status query, cancelling any timer that is
// still pending: a duplicated status response must not fork a second poll
// chain. The sequence guard discards ticks from timers that already fired.
func (s *Session) rearmPoll(entry *activeRequest) {
	entry.pollSeq++
	if entry.pollTimer != nil {
		entry.pollTimer.Stop()
	}
	seq := entry.pollSeq
	entry.pollTimer = time.AfterFunc(s.config.Agent.PollInterval, func() {
		s.post(func() {
			current, ok := s.active[entry.id]
			if !ok || current != entry || entry.pollSeq != seq {
				return
			}
			s.pollNow(entry)
		})
	})
}

func (s *Session) handleStatusResponse(m bridge.StatusResponse) {
	entry, ok := s.active[m.RequestID]
	if !ok {
		s.dropStale(m.RequestID)
		return
	}
	c := entry.owner

	if !m.Success || m.Status == bridge.StatusError {
		s.failRequest(entry, bridge.ErrMessage(m.Error, m.Message))
		return
	}

	switch m.Status {
	case bridge.StatusFinished:
		message := m.Message
		if message == "" {
			message = DefaultCompleteMessage
		}
		s.destroyEntry(entry)
		s.mutate(c, func() { c.MarkCompleted(m.DownloadURL, message) })
		s.persistArtifact(c, m.DownloadURL)
		if s.config.Metrics != nil {
			s.config.Metrics.RequestsCompleted.Inc()
		}
		s.events.Send(RequestCompleted{controlEvent{c.Kind}, m.RequestID, m.DownloadURL})
	case bridge.StatusQueued, bridge.StatusDownloading, bridge.StatusProcessing:
		s.mutate(c, func() { c.MarkTracking(stageFor(m.Status), m.Message, m.Progress) })
		s.rearmPoll(entry)
	default:
		s.log.Warnw("unknown job status", "request_id", m.RequestID, "status", m.Status)
		s.rearmPoll(entry)
	}
}

func (s *Session) dropStale(requestID string) {
	if s.config.Metrics != nil {
		s.config.Metrics.StaleResponses.Inc()
	}
	s.log.Debugw("dropping stale response", "request_id", requestID)
}

func stageFor(status bridge.JobStatus) control.Stage {
	switch status {
	case bridge.StatusQueued:
		return control.StageQueued
	case bridge.StatusProcessing:
		return control.StageProcessing
	default:
		return control.StageDownloading
	}
}
