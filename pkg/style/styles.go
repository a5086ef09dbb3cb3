// Package style defines the visual styling for popctl's terminal
// output.
//
// All styles carry semantic names and adaptive colors that adjust to
// light and dark terminal themes. The theme ships embedded as YAML so
// the whole palette lives in one declarative file.
package style

import (
	_ "embed"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/popctl/pkg/types"
)

// ColorDef is an adaptive color definition in YAML.
type ColorDef struct {
	Light string `yaml:"light"`
	Dark  string `yaml:"dark"`
}

// StyleDef is a style definition in YAML.
type StyleDef struct {
	Bold       bool   `yaml:"bold,omitempty"`
	Italic     bool   `yaml:"italic,omitempty"`
	Underline  bool   `yaml:"underline,omitempty"`
	Foreground string `yaml:"foreground,omitempty"`
	Background string `yaml:"background,omitempty"`
}

// Config is the complete theme configuration.
type Config struct {
	Colors map[string]ColorDef `yaml:"colors"`
	Styles map[string]StyleDef `yaml:"styles"`
}

//go:embed styles.yaml
var embeddedStyles []byte

var (
	colors   map[string]lipgloss.AdaptiveColor
	registry map[string]lipgloss.Style
)

func init() {
	if err := LoadFromData(embeddedStyles); err != nil {
		initDefaultStyles()
	}
}

// initDefaultStyles gives every known name an unstyled fallback so a
// broken theme never crashes the program.
func initDefaultStyles() {
	colors = make(map[string]lipgloss.AdaptiveColor)
	registry = make(map[string]lipgloss.Style)

	plain := lipgloss.NewStyle()
	for _, name := range []string{
		"Header", "Subheader", "Success", "Error", "Warning", "Info",
		"Muted", "Path", "Apt", "Flatpak", "Snap",
		"DiffNew", "DiffMissing", "DiffExtra",
	} {
		registry[name] = plain
	}
}

// LoadFromData parses a YAML theme and rebuilds the style registry.
func LoadFromData(data []byte) error {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse styles data: %w", err)
	}

	colors = make(map[string]lipgloss.AdaptiveColor)
	for name, def := range config.Colors {
		colors[name] = lipgloss.AdaptiveColor{Light: def.Light, Dark: def.Dark}
	}

	registry = make(map[string]lipgloss.Style)
	for name, def := range config.Styles {
		registry[name] = buildStyle(def)
	}
	return nil
}

func buildStyle(def StyleDef) lipgloss.Style {
	style := lipgloss.NewStyle()

	if def.Bold {
		style = style.Bold(true)
	}
	if def.Italic {
		style = style.Italic(true)
	}
	if def.Underline {
		style = style.Underline(true)
	}

	if def.Foreground != "" {
		if color, ok := colors[def.Foreground]; ok {
			style = style.Foreground(color)
		}
	}
	if def.Background != "" {
		if color, ok := colors[def.Background]; ok {
			style = style.Background(color)
		}
	}
	return style
}

// Get retrieves a style from the registry, falling back to an
// unstyled default for unknown names.
func Get(name string) lipgloss.Style {
	if style, ok := registry[name]; ok {
		return style
	}
	return lipgloss.NewStyle()
}

// Names returns the registered style names.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	return out
}

// ForSource returns the style for a package ecosystem.
func ForSource(source types.Source) lipgloss.Style {
	switch source {
	case types.SourceApt:
		return Get("Apt")
	case types.SourceFlatpak:
		return Get("Flatpak")
	case types.SourceSnap:
		return Get("Snap")
	default:
		return Get("Muted")
	}
}

// Status indicators shared across renderers.

// SuccessIndicator renders the success marker.
func SuccessIndicator() string { return Get("Success").Render("✓") }

// ErrorIndicator renders the failure marker.
func ErrorIndicator() string { return Get("Error").Render("✗") }

// WarningIndicator renders the warning marker.
func WarningIndicator() string { return Get("Warning").Render("!") }

// InfoIndicator renders the informational marker.
func InfoIndicator() string { return Get("Info").Render("•") }

// Bold renders s in bold.
func Bold(s string) string {
	return lipgloss.NewStyle().Bold(true).Render(s)
}

// Indent pads s left by level steps of two spaces.
func Indent(s string, level int) string {
	return lipgloss.NewStyle().PaddingLeft(level * 2).Render(s)
}
