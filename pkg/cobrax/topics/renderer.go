package topics

import "strings"

// Renderer formats topic content for display. The extension of the
// source file (".md", ".txt") tells the renderer what it is looking at.
type Renderer interface {
	Render(content, extension string) string
}

// PlainRenderer passes content through untouched, only guaranteeing a
// trailing newline.
type PlainRenderer struct{}

func (r *PlainRenderer) Render(content, extension string) string {
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content
}
