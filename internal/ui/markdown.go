package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Markdown renders bot replies for the terminal
type Markdown struct {
	renderer *glamour.TermRenderer
}

// NewMarkdown creates a renderer wrapping at width columns. Must be called
// before a bubbletea program takes over the terminal: the style is picked
// from the terminal background.
func NewMarkdown(width int) *Markdown {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(width-10, 20)),
	)
	if err != nil {
		return &Markdown{}
	}
	return &Markdown{renderer: renderer}
}

// Render returns text as styled terminal output, or text unchanged when
// rendering is unavailable or fails.
func (md *Markdown) Render(text string) string {
	if md == nil || md.renderer == nil {
		return text
	}
	rendered, err := md.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(rendered, "\n")
}
