package page

import (
	"context"
	"strings"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const watchPage = `<!DOCTYPE html>
<html><head>
<script>var ytInitialPlayerResponse = {
	"streamingData": {
		"formats": [{"itag": 22, "mimeType": "video/mp4", "qualityLabel": "720p", "height": 720}],
		"adaptiveFormats": [{"itag": 251, "mimeType": "audio/webm", "bitrate": 160000}]
	},
	"videoDetails": {"videoId": "abc123DEF45", "title": "A {quoted} \"title\""}
};</script>
</head><body>
<div id="owner"><div id="subscribe-button"><button>Subscribe</button></div></div>
</body></html>`

func TestExtractVideoID(t *testing.T) {
	assert := assert_.New(t)
	for _, tc := range []struct {
		url  string
		id   string
		fail bool
	}{
		{url: "https://www.youtube.com/watch?v=abc123DEF45", id: "abc123DEF45"},
		{url: "https://m.youtube.com/watch?v=abc123DEF45&t=10s", id: "abc123DEF45"},
		{url: "https://www.youtube.com/v/abc123DEF45", id: "abc123DEF45"},
		{url: "https://youtu.be/abc123DEF45", id: "abc123DEF45"},
		{url: "https://www.youtube.com/watch", fail: true},
		{url: "https://www.youtube.com/feed/subscriptions", fail: true},
		{url: "https://example.com/watch?v=abc123DEF45", fail: true},
	} {
		id, err := ExtractVideoID(tc.url)
		if tc.fail {
			assert.Error(err, tc.url)
		} else {
			assert.NoError(err, tc.url)
			assert.Equal(tc.id, id, tc.url)
		}
	}
}

func TestDocumentSource_WatchSnapshot(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	src, err := NewDocumentSource("https://www.youtube.com/watch?v=abc123DEF45", strings.NewReader(watchPage))
	require.NoError(err)

	snap, err := src.Snapshot(context.Background())
	require.NoError(err)
	assert.Equal(KindWatch, snap.Kind)
	assert.Equal("abc123DEF45", snap.VideoID)
	assert.Equal(`A {quoted} "title"`, snap.Title)
	require.NotNil(snap.Streams)
	assert.Len(snap.Streams.Muxed, 1)
	assert.Len(snap.Streams.Adaptive, 1)
	assert.NotNil(snap.Document)
}

func TestDocumentSource_PendingStreams(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	// Watch page that has not published its player response yet
	src, err := NewDocumentSource("https://www.youtube.com/watch?v=abc123DEF45", strings.NewReader("<html><body></body></html>"))
	require.NoError(err)

	snap, err := src.Snapshot(context.Background())
	require.NoError(err)
	assert.Equal(KindWatch, snap.Kind)
	assert.Nil(snap.Streams, "missing player response should read as pending, not empty")
}

func TestDocumentSource_OtherPage(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	src, err := NewDocumentSource("https://www.youtube.com/feed/subscriptions", strings.NewReader(watchPage))
	require.NoError(err)

	snap, err := src.Snapshot(context.Background())
	require.NoError(err)
	assert.Equal(KindOther, snap.Kind)
	assert.Empty(snap.VideoID)
	assert.Nil(snap.Streams)
}

func TestDocumentSource_Navigate(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	src, err := NewDocumentSource("https://www.youtube.com/watch?v=abc123DEF45", strings.NewReader(watchPage))
	require.NoError(err)

	doc, err := html.Parse(strings.NewReader("<html><body></body></html>"))
	require.NoError(err)
	src.Navigate("https://www.youtube.com/feed/subscriptions", doc)

	snap, err := src.Snapshot(context.Background())
	require.NoError(err)
	assert.Equal(KindOther, snap.Kind)
	assert.Same(doc, snap.Document)
}

func TestExtractJSONObject(t *testing.T) {
	assert := assert_.New(t)
	obj, ok := extractJSONObject(`foo = {"a": "b } c", "d": {"e": 1}}; rest`, "foo")
	assert.True(ok)
	assert.Equal(`{"a": "b } c", "d": {"e": 1}}`, string(obj))

	_, ok = extractJSONObject(`foo = {"unterminated": `, "foo")
	assert.False(ok)
}
