// Package page models the host page as a read-only external data source.
// The rest of the pipeline depends on Source/Snapshot rather than on a live
// browser tree, so tests can drive it with fixture documents.
package page

import (
	"context"

	"golang.org/x/net/html"

	"github.com/tubetap/tubetap/internal/streams"
)

// Kind classifies the current page.
type Kind string

const (
	// KindWatch is a video watch page, the only kind the agent decorates.
	KindWatch Kind = "watch"
	// KindOther is any other page; the control container is removed there.
	KindOther Kind = "other"
)

// Snapshot is one immutable observation of the host page. Streams is nil
// while the page has not published stream data yet ("pending"), which is
// distinct from an empty set.
type Snapshot struct {
	Kind    Kind
	URL     string
	VideoID string
	Title   string
	Streams *streams.Set

	// Document is the page DOM the placement manager mounts controls into.
	// It is shared mutable state owned by the session's goroutine.
	Document *html.Node
}

// Source is the pull interface onto the host page.
type Source interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}
