package dom

import "github.com/tubetap/tubetap/internal/control"

// Render projects a control descriptor onto its button element: label text,
// disabled flag and the artifact link, nothing else. All decisions live in
// the descriptor.
func (c *Container) Render(d *control.Descriptor) {
	btn := c.Button(d.Kind)
	if btn == nil {
		return
	}
	SetText(btn, d.Label())
	SetAttr(btn, "data-state", string(d.State))
	if d.State.Interactive() {
		DelAttr(btn, "disabled")
	} else {
		SetAttr(btn, "disabled", "disabled")
	}
	if d.ArtifactURL != "" {
		SetAttr(btn, "data-url", d.ArtifactURL)
	} else {
		DelAttr(btn, "data-url")
	}
}
