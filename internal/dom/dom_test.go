package dom

import (
	"strings"
	"testing"

	youtube "github.com/kkdai/youtube/v2"
	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/tubetap/tubetap/generic"
	"github.com/tubetap/tubetap/internal/control"
)

func parse(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	require_.NoError(t, err)
	return doc
}

func countNodes(n *html.Node) int {
	count := 1
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count += countNodes(c)
	}
	return count
}

const watchDoc = `<html><body>
<div id="meta"><div id="owner"><div id="subscribe-button"><button>Subscribe</button></div></div></div>
</body></html>`

func TestEnsure_MountsNextToSubscribe(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)
	doc := parse(t, watchDoc)

	c := Ensure(doc)
	require.NotNil(c)
	anchor := FindByID(doc, "subscribe-button")
	assert.Same(anchor.NextSibling, c.Node())
	assert.NotNil(c.Button(control.KindVideo))
	assert.NotNil(c.Button(control.KindAudio))
}

func TestEnsure_Idempotent(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)
	doc := parse(t, watchDoc)

	first := Ensure(doc)
	require.NotNil(first)
	before := countNodes(doc)

	second := Ensure(doc)
	require.NotNil(second)
	assert.Equal(before, countNodes(doc), "repeat placement must not add nodes")
	assert.Same(first.Node(), second.Node())
}

func TestEnsure_RelocatesWhenAnchorReplaced(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)
	doc := parse(t, watchDoc)

	c := Ensure(doc)
	require.NotNil(c)

	// Host re-render: the subscribe affordance is replaced elsewhere
	old := FindByID(doc, "subscribe-button")
	old.Parent.RemoveChild(old)
	meta := FindByID(doc, "meta")
	fresh := &html.Node{Type: html.ElementNode, Data: "div"}
	SetAttr(fresh, "id", "subscribe-button")
	meta.AppendChild(fresh)

	moved := Ensure(doc)
	require.NotNil(moved)
	assert.Same(c.Node(), moved.Node(), "existing container should be reused")
	assert.Same(fresh.NextSibling, moved.Node())
}

func TestEnsure_FallbackAnchors(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	// No subscribe button: falls back to the owner row
	doc := parse(t, `<html><body><div id="owner"></div></body></html>`)
	c := Ensure(doc)
	require.NotNil(c)
	assert.Same(FindByID(doc, "owner").NextSibling, c.Node())

	// Nothing at all: appended to body
	doc = parse(t, `<html><body><p>hi</p></body></html>`)
	c = Ensure(doc)
	require.NotNil(c)
	assert.Same(body(doc), c.Node().Parent)

	assert.Nil(Ensure(nil))
}

func TestRemove(t *testing.T) {
	assert := assert_.New(t)
	doc := parse(t, watchDoc)

	Ensure(doc)
	assert.NotNil(FindByID(doc, ContainerID))
	Remove(doc)
	assert.Nil(FindByID(doc, ContainerID))
	// Idempotent
	Remove(doc)
	Remove(nil)
}

func TestRender(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)
	doc := parse(t, watchDoc)
	c := Ensure(doc)
	require.NotNil(c)

	d := control.New(control.KindVideo)
	c.Render(d)
	btn := c.Button(control.KindVideo)
	assert.Equal("No video available", Text(btn))
	assert.True(HasAttr(btn, "disabled"))

	d.ApplyFormat("v1", generic.Some(youtube.Format{MimeType: "video/mp4", Height: 720, QualityLabel: "720p"}))
	c.Render(d)
	assert.Equal("Download video (720p)", Text(btn))
	assert.False(HasAttr(btn, "disabled"))

	d.BeginRequest("r1")
	d.MarkCompleted("https://x/y.mp4", "Download complete")
	c.Render(d)
	assert.Equal("https://x/y.mp4", GetAttr(btn, "data-url"))
	assert.False(HasAttr(btn, "disabled"))

	d.Reset()
	c.Render(d)
	assert.False(HasAttr(btn, "data-url"))
}
