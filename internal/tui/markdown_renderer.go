package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// markdownRenderer renders card notes for the detail overlay. It keeps one
// glamour renderer per wrap width and the last rendered document.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer

	lastSource string
	lastOutput string
}

// render converts markdown into ANSI text wrapped at width. Rendering
// failures fall back to the raw source.
func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}

	wrapWidth := max(width, 24)
	if r.renderer == nil || r.width != wrapWidth {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.width = wrapWidth
		r.lastSource = ""
	}
	if r.lastSource == markdown {
		return r.lastOutput
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	r.lastSource = markdown
	r.lastOutput = strings.Trim(rendered, "\n")
	return r.lastOutput
}
