package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Transport carries boundary messages to the helper process. Send is
// fire-and-forget: the matching response arrives later on Receive, carrying
// the request's requestId.
type Transport interface {
	Send(msg Message) error
	Receive() <-chan Message
	Close()
}

const receiveBufSize = 64

// HTTPTransport speaks the helper's HTTP API: download requests become
// POST /download, status requests become GET /status?job=. Transport-level
// failures are surfaced as success=false responses so the coordinator sees
// them like any other rejection.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
	log     *zap.SugaredLogger

	rx        chan Message
	wg        sync.WaitGroup
	closeOnce sync.Once
	done      chan struct{}
}

var _ Transport = (*HTTPTransport)(nil)

func NewHTTPTransport(baseURL string) *HTTPTransport {
	return &HTTPTransport{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     zap.S().Named("bridge"),
		rx:      make(chan Message, receiveBufSize),
		done:    make(chan struct{}),
	}
}

func (t *HTTPTransport) Receive() <-chan Message {
	return t.rx
}

// Send dispatches the request asynchronously and returns immediately.
func (t *HTTPTransport) Send(msg Message) error {
	switch m := msg.(type) {
	case DownloadRequest:
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			t.deliver(t.download(m))
		}()
		return nil
	case StatusRequest:
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			t.deliver(t.status(m))
		}()
		return nil
	default:
		return fmt.Errorf("http transport cannot send %q messages", msg.Direction())
	}
}

// Close stops delivering responses. In-flight HTTP calls are drained.
func (t *HTTPTransport) Close() {
	t.closeOnce.Do(func() {
		close(t.done)
		t.wg.Wait()
		close(t.rx)
	})
}

func (t *HTTPTransport) deliver(msg Message) {
	select {
	case <-t.done:
	case t.rx <- msg:
	}
}

func (t *HTTPTransport) download(req DownloadRequest) Message {
	resp := DownloadResponse{RequestID: req.RequestID}

	body, err := json.Marshal(req)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	httpReq, err := http.NewRequestWithContext(context.Background(), http.MethodPost, t.baseURL+"/download", bytes.NewReader(body))
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	httpReq.Header.Set("Content-Type", "application/json")

	raw, err := t.do(httpReq)
	if err != nil {
		t.log.Warnw("download request failed", "request_id", req.RequestID, "error", err)
		resp.Error = err.Error()
		return resp
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		resp.Success = false
		resp.Error = fmt.Sprintf("invalid helper response: %v", err)
	}
	resp.RequestID = req.RequestID
	return resp
}

func (t *HTTPTransport) status(req StatusRequest) Message {
	resp := StatusResponse{RequestID: req.RequestID}

	u := t.baseURL + "/status?job=" + url.QueryEscape(req.JobID)
	httpReq, err := http.NewRequestWithContext(context.Background(), http.MethodGet, u, nil)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	raw, err := t.do(httpReq)
	if err != nil {
		t.log.Warnw("status request failed", "request_id", req.RequestID, "job_id", req.JobID, "error", err)
		resp.Error = err.Error()
		return resp
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		resp.Success = false
		resp.Error = fmt.Sprintf("invalid helper response: %v", err)
	}
	resp.RequestID = req.RequestID
	return resp
}

func (t *HTTPTransport) do(req *http.Request) ([]byte, error) {
	httpResp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()
	// The helper answers errors with a JSON body too, so read it regardless
	// of the status code.
	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	return raw, nil
}
