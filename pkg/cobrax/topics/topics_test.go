package topics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTopics(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestManagerLoadsTopics(t *testing.T) {
	dir := writeTopics(t, map[string]string{
		"manifest.md":     "# Manifest\n\nThe manifest file.",
		"sources.txt":     "Package sources.",
		"notes.html":      "<p>ignored</p>",
		"option-purge.md": "The --purge flag.",
	})

	m := NewManager(dir, Options{})
	require.NoError(t, m.load())

	assert.Equal(t, []string{"manifest", "option-purge", "sources"}, m.List())

	topic, ok := m.Get("manifest")
	require.True(t, ok)
	assert.Contains(t, topic.Content, "The manifest file.")

	_, ok = m.Get("notes")
	assert.False(t, ok)
}

func TestManagerResolvesFlagSpelling(t *testing.T) {
	dir := writeTopics(t, map[string]string{
		"option-purge.md": "The --purge flag.",
		"sources.md":      "Package sources.",
	})

	m := NewManager(dir, Options{})
	require.NoError(t, m.load())

	topic, ok := m.Get("--purge")
	require.True(t, ok)
	assert.Equal(t, "option-purge", topic.Name)

	topic, ok = m.Get("--sources")
	require.True(t, ok)
	assert.Equal(t, "sources", topic.Name)
}

func TestManagerMissingDirectory(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "nope"), Options{})
	require.NoError(t, m.load())
	assert.Empty(t, m.List())
}

func TestInstallReplacesHelpCommand(t *testing.T) {
	dir := writeTopics(t, map[string]string{"manifest.md": "# Manifest"})

	rootCmd := &cobra.Command{Use: "popctl"}
	rootCmd.AddCommand(&cobra.Command{Use: "scan", Run: func(*cobra.Command, []string) {}})
	m, err := Install(rootCmd, dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"manifest"}, m.List())

	var helpCmd *cobra.Command
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "help" {
			helpCmd = cmd
		}
	}
	require.NotNil(t, helpCmd)
	assert.Contains(t, helpCmd.Long, "popctl help topics")
}

func TestPlainRendererAddsNewline(t *testing.T) {
	r := &PlainRenderer{}
	assert.Equal(t, "text\n", r.Render("text", ".txt"))
	assert.Equal(t, "text\n", r.Render("text\n", ".txt"))
}

func TestGlamourRendererPassesThroughNonMarkdown(t *testing.T) {
	r := NewGlamourRenderer()
	assert.Equal(t, "plain text", r.Render("plain text", ".txt"))
}
