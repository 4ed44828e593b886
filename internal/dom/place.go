package dom

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/tubetap/tubetap/internal/control"
)

const (
	// ContainerID identifies the injected two-control container.
	ContainerID = "tubetap-controls"
	// AttrKind marks each injected button with its media kind.
	AttrKind = "data-tubetap-kind"
)

// Anchor IDs tried in order. The subscribe affordance is the semantically
// stable reference point; the owner/meta rows are host-rendering fallbacks.
var anchorIDs = []string{"subscribe-button", "owner", "meta"}

// Container is the mounted pair of controls.
type Container struct {
	node  *html.Node
	video *html.Node
	audio *html.Node
}

// Node returns the container element.
func (c *Container) Node() *html.Node {
	return c.node
}

// Button returns the control element for the given kind.
func (c *Container) Button(kind control.Kind) *html.Node {
	if kind == control.KindAudio {
		return c.audio
	}
	return c.video
}

// Ensure guarantees exactly one container exists in doc, placed directly
// after the best available anchor. It is idempotent: when nothing changed it
// touches no nodes. If the anchor moved or was replaced by host re-rendering
// the existing container is relocated rather than recreated. Returns nil
// when the document offers nowhere to mount.
func Ensure(doc *html.Node) *Container {
	if doc == nil {
		return nil
	}

	existing := FindByID(doc, ContainerID)
	anchor := findAnchor(doc)

	if anchor == nil {
		if b := body(doc); b != nil {
			// Last resort: append to body
			if existing != nil {
				if existing.Parent == b && existing.NextSibling == nil {
					return wrap(existing)
				}
				existing.Parent.RemoveChild(existing)
				b.AppendChild(existing)
				return wrap(existing)
			}
			c := build()
			b.AppendChild(c.node)
			return c
		}
		return nil
	}

	if existing != nil {
		if existing.Parent == anchor.Parent && anchor.NextSibling == existing {
			// Already mounted in the right place; no DOM churn
			return wrap(existing)
		}
		existing.Parent.RemoveChild(existing)
		anchor.Parent.InsertBefore(existing, anchor.NextSibling)
		return wrap(existing)
	}

	c := build()
	anchor.Parent.InsertBefore(c.node, anchor.NextSibling)
	return c
}

// Remove deletes the container from the document entirely, so no control
// state leaks across unrelated page types.
func Remove(doc *html.Node) {
	if doc == nil {
		return
	}
	if existing := FindByID(doc, ContainerID); existing != nil && existing.Parent != nil {
		existing.Parent.RemoveChild(existing)
	}
}

func findAnchor(doc *html.Node) *html.Node {
	for _, id := range anchorIDs {
		if n := FindByID(doc, id); n != nil && n.Parent != nil {
			return n
		}
	}
	return nil
}

func build() *Container {
	node := newElement(atom.Div)
	SetAttr(node, "id", ContainerID)

	video := newElement(atom.Button)
	SetAttr(video, AttrKind, string(control.KindVideo))
	node.AppendChild(video)

	audio := newElement(atom.Button)
	SetAttr(audio, AttrKind, string(control.KindAudio))
	node.AppendChild(audio)

	return &Container{node: node, video: video, audio: audio}
}

func wrap(node *html.Node) *Container {
	c := &Container{node: node}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		switch control.Kind(GetAttr(child, AttrKind)) {
		case control.KindVideo:
			c.video = child
		case control.KindAudio:
			c.audio = child
		}
	}
	return c
}
