package topics

import "github.com/charmbracelet/glamour"

// GlamourRenderer renders markdown topics with terminal styling.
// Non-markdown content passes through unchanged.
type GlamourRenderer struct {
	// Style is a glamour style name ("dark", "light", "notty",
	// "auto") or a path to a custom style file.
	Style string
	// Width wraps output at the given column. Zero means auto-detect.
	Width int
}

// NewGlamourRenderer creates a renderer with style auto-detection.
func NewGlamourRenderer() *GlamourRenderer {
	return &GlamourRenderer{Style: "auto"}
}

func (r *GlamourRenderer) Render(content, extension string) string {
	if extension != ".md" {
		return content
	}

	var options []glamour.TermRendererOption
	if r.Style != "" && r.Style != "auto" {
		options = append(options, glamour.WithStylePath(r.Style))
	} else {
		options = append(options, glamour.WithAutoStyle())
	}
	if r.Width > 0 {
		options = append(options, glamour.WithWordWrap(r.Width))
	}

	renderer, err := glamour.NewTermRenderer(options...)
	if err != nil {
		return content
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
