package page

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/tubetap/tubetap/internal/streams"
)

const playerResponseMarker = "ytInitialPlayerResponse"

// DocumentSource is a Source backed by a parsed HTML document, the way the
// agent sees a watch page: metadata comes from the embedded player response
// script, the video ID falls back to the page URL.
type DocumentSource struct {
	mu  sync.Mutex
	url string
	doc *html.Node
}

var _ Source = (*DocumentSource)(nil)

// NewDocumentSource parses r as the current page at url.
func NewDocumentSource(url string, r io.Reader) (*DocumentSource, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse page document: %w", err)
	}
	return &DocumentSource{url: url, doc: doc}, nil
}

// Navigate replaces the current document and URL, simulating a single-page
// navigation by the host.
func (s *DocumentSource) Navigate(url string, doc *html.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.url = url
	s.doc = doc
}

// Snapshot re-reads the current document. The stream set is nil when the
// page has no player response script yet.
func (s *DocumentSource) Snapshot(_ context.Context) (*Snapshot, error) {
	s.mu.Lock()
	url, doc := s.url, s.doc
	s.mu.Unlock()

	snap := &Snapshot{
		Kind:     KindOther,
		URL:      url,
		Document: doc,
	}
	if IsWatchURL(url) {
		snap.Kind = KindWatch
		snap.VideoID, _ = ExtractVideoID(url)
	}
	if snap.Kind != KindWatch {
		return snap, nil
	}

	if raw, ok := findPlayerResponse(doc); ok {
		set, details, err := streams.ParsePlayerResponse(raw)
		if err != nil {
			return nil, err
		}
		snap.Streams = set
		snap.Title = details.Title
		if details.VideoID != "" {
			snap.VideoID = details.VideoID
		}
	}
	return snap, nil
}

// findPlayerResponse locates the script element assigning the player
// response and returns its JSON object.
func findPlayerResponse(doc *html.Node) ([]byte, bool) {
	var raw []byte
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "script" {
			if text := scriptText(n); strings.Contains(text, playerResponseMarker) {
				if obj, ok := extractJSONObject(text, playerResponseMarker); ok {
					raw = obj
					return true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	return raw, walk(doc) && raw != nil
}

func scriptText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// extractJSONObject returns the first balanced JSON object following marker,
// tolerating braces inside string literals.
func extractJSONObject(text, marker string) ([]byte, bool) {
	idx := strings.Index(text, marker)
	if idx < 0 {
		return nil, false
	}
	start := strings.IndexByte(text[idx:], '{')
	if start < 0 {
		return nil, false
	}
	start += idx

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return []byte(text[start : i+1]), true
			}
		}
	}
	return nil, false
}
