package style

import (
	"testing"

	"github.com/arthur-debert/popctl/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedThemeLoads(t *testing.T) {
	require.NoError(t, LoadFromData(embeddedStyles))

	for _, name := range []string{
		"Header", "Success", "Error", "Warning", "Muted",
		"Apt", "Flatpak", "Snap", "DiffNew", "DiffMissing", "DiffExtra",
	} {
		_, ok := registry[name]
		assert.True(t, ok, "style %q missing from embedded theme", name)
	}
}

func TestLoadFromDataBadYaml(t *testing.T) {
	defer func() { require.NoError(t, LoadFromData(embeddedStyles)) }()
	assert.Error(t, LoadFromData([]byte("colors: [not a map")))
}

func TestGetUnknownStyle(t *testing.T) {
	// Unknown names render unstyled instead of crashing
	assert.Equal(t, "plain", Get("NoSuchStyle").Render("plain"))
}

func TestForSource(t *testing.T) {
	assert.Equal(t, Get("Apt"), ForSource(types.SourceApt))
	assert.Equal(t, Get("Flatpak"), ForSource(types.SourceFlatpak))
	assert.Equal(t, Get("Snap"), ForSource(types.SourceSnap))
	assert.Equal(t, Get("Muted"), ForSource(types.Source("brew")))
}

func TestBuildStyleFlags(t *testing.T) {
	require.NoError(t, LoadFromData([]byte(`
colors:
  red:
    light: "#FF0000"
    dark: "#FF0000"
styles:
  Loud:
    bold: true
    underline: true
    foreground: red
`)))
	defer func() { require.NoError(t, LoadFromData(embeddedStyles)) }()

	loud := Get("Loud")
	assert.True(t, loud.GetBold())
	assert.True(t, loud.GetUnderline())
}
