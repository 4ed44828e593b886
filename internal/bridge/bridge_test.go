package bridge

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"

	"github.com/tubetap/tubetap"
)

func TestEncodeDecode(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	req := DownloadRequest{
		RequestID: "r1",
		Kind:      "video",
		Quality:   "720p",
		Title:     "Example",
		VideoID:   "abc123DEF45",
		PageURL:   "https://www.youtube.com/watch?v=abc123DEF45",
	}
	raw, err := Encode(req)
	require.NoError(err)

	var fields map[string]any
	require.NoError(json.Unmarshal(raw, &fields))
	assert.Equal(DirectionDownloadRequest, fields["direction"])
	assert.Equal("video", fields["mode"], "wire format names the kind field mode")

	decoded, err := Decode(raw)
	require.NoError(err)
	assert.Equal(req, decoded)
}

func TestDecode_UnknownDirectionIgnored(t *testing.T) {
	assert := assert_.New(t)

	_, err := Decode([]byte(`{"direction": "player-heartbeat", "requestId": "r1"}`))
	assert.True(errors.Is(err, tubetap.ErrUnknownDirection))

	_, err = Decode([]byte(`{"requestId": "r1"}`))
	assert.True(errors.Is(err, tubetap.ErrUnknownDirection))

	_, err = Decode([]byte(`not json`))
	assert.Error(err)
	assert.False(errors.Is(err, tubetap.ErrUnknownDirection))
}

func TestJobStatusTerminal(t *testing.T) {
	assert := assert_.New(t)
	assert.True(StatusFinished.Terminal())
	assert.True(StatusError.Terminal())
	assert.False(StatusQueued.Terminal())
	assert.False(StatusDownloading.Terminal())
	assert.False(StatusProcessing.Terminal())
}

func helperStub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/download", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "invalid json"})
			return
		}
		if payload["videoId"] == "" || payload["videoId"] == nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "missing videoId"})
			return
		}
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"message": "Download started",
			"jobId":   payload["requestId"],
		})
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		job := r.URL.Query().Get("job")
		if job == "unknown" {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "job not found"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":     true,
			"jobId":       job,
			"status":      "finished",
			"progress":    100,
			"message":     "Download complete",
			"downloadUrl": "http://127.0.0.1:8777/file?job=" + job,
		})
	})
	return httptest.NewServer(mux)
}

func receiveOne(t *testing.T, tr Transport) Message {
	t.Helper()
	select {
	case msg := <-tr.Receive():
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for transport response")
		return nil
	}
}

func TestHTTPTransport_Download(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	srv := helperStub(t)
	defer srv.Close()
	tr := NewHTTPTransport(srv.URL)
	defer tr.Close()

	require.NoError(tr.Send(DownloadRequest{RequestID: "r1", Kind: "video", VideoID: "abc"}))
	resp, ok := receiveOne(t, tr).(DownloadResponse)
	require.True(ok)
	assert.True(resp.Success)
	assert.Equal("r1", resp.RequestID)
	assert.Equal("r1", resp.JobID)
	assert.Equal("Download started", resp.Message)
}

func TestHTTPTransport_Status(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	srv := helperStub(t)
	defer srv.Close()
	tr := NewHTTPTransport(srv.URL)
	defer tr.Close()

	require.NoError(tr.Send(StatusRequest{RequestID: "r1", JobID: "J1"}))
	resp, ok := receiveOne(t, tr).(StatusResponse)
	require.True(ok)
	assert.True(resp.Success)
	assert.Equal("r1", resp.RequestID)
	assert.Equal(StatusFinished, resp.Status)
	assert.Equal(100, resp.Progress)
	assert.NotEmpty(resp.DownloadURL)
}

func TestHTTPTransport_HelperRejection(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	srv := helperStub(t)
	defer srv.Close()
	tr := NewHTTPTransport(srv.URL)
	defer tr.Close()

	require.NoError(tr.Send(StatusRequest{RequestID: "r2", JobID: "unknown"}))
	resp, ok := receiveOne(t, tr).(StatusResponse)
	require.True(ok)
	assert.False(resp.Success)
	assert.Equal("job not found", resp.Error)
}

func TestHTTPTransport_NetworkFailureBecomesRejection(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	srv := helperStub(t)
	srv.Close() // helper not running
	tr := NewHTTPTransport(srv.URL)
	defer tr.Close()

	require.NoError(tr.Send(DownloadRequest{RequestID: "r3", Kind: "audio", VideoID: "abc"}))
	resp, ok := receiveOne(t, tr).(DownloadResponse)
	require.True(ok)
	assert.False(resp.Success)
	assert.NotEmpty(resp.Error)
}

func TestLoopback(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	lb := NewLoopback()
	lb.OnSend = func(msg Message) {
		if req, ok := msg.(DownloadRequest); ok {
			lb.Push(DownloadResponse{RequestID: req.RequestID, Success: true, JobID: "J1"})
		}
	}
	require.NoError(lb.Send(DownloadRequest{RequestID: "r1", VideoID: "abc"}))
	resp, ok := receiveOne(t, lb).(DownloadResponse)
	require.True(ok)
	assert.Equal("r1", resp.RequestID)
	assert.Len(lb.Sent(), 1)

	lb.Close()
	lb.Close()
	lb.Push(DownloadResponse{}) // dropped, not a panic
}
