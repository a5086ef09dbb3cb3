package popctl

import (
	"testing"
	"time"

	"github.com/arthur-debert/popctl/pkg/paths"
	"github.com/arthur-debert/popctl/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolatePaths(t *testing.T) {
	t.Helper()
	t.Setenv(paths.EnvConfigDir, t.TempDir())
	t.Setenv(paths.EnvStateDir, t.TempDir())
	t.Setenv(paths.EnvCacheDir, t.TempDir())
}

func TestRootCmdRegistersCommands(t *testing.T) {
	rootCmd := NewRootCmd()

	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}

	for _, name := range []string{
		"scan", "init", "diff", "apply", "sync", "undo",
		"history", "fs", "config", "advisor", "completion",
	} {
		assert.True(t, names[name], "command %q not registered", name)
	}
}

func TestRootCmdNoArgs(t *testing.T) {
	rootCmd := NewRootCmd()
	rootCmd.SetArgs([]string{})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no command specified")
}

func TestHistoryCmdEmptyState(t *testing.T) {
	isolatePaths(t)

	rootCmd := NewRootCmd()
	rootCmd.SetArgs([]string{"history", "--format", "text"})
	require.NoError(t, rootCmd.Execute())
}

func TestDiffCmdWithoutManifest(t *testing.T) {
	isolatePaths(t)

	rootCmd := NewRootCmd()
	rootCmd.SetArgs([]string{"diff", "--format", "text"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "popctl init")
}

func TestFsCleanCmdWithoutManifest(t *testing.T) {
	isolatePaths(t)

	rootCmd := NewRootCmd()
	rootCmd.SetArgs([]string{"fs", "clean", "--yes", "--format", "text"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "popctl init")
}

func TestConfigCleanCmdWithoutManifest(t *testing.T) {
	isolatePaths(t)

	rootCmd := NewRootCmd()
	rootCmd.SetArgs([]string{"config", "clean", "--yes", "--format", "text"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "popctl init")
}

func TestUndoCmdEmptyHistory(t *testing.T) {
	isolatePaths(t)

	rootCmd := NewRootCmd()
	rootCmd.SetArgs([]string{"undo", "--yes", "--format", "text"})
	require.NoError(t, rootCmd.Execute())
}

func TestScanCmdRejectsUnknownSource(t *testing.T) {
	isolatePaths(t)

	rootCmd := NewRootCmd()
	rootCmd.SetArgs([]string{"scan", "--source", "brew", "--format", "text"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "brew")
}

func TestParseSince(t *testing.T) {
	got, err := parseSince("2026-08-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = parseSince("2026-08-01T12:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, 12, got.Hour())

	_, err = parseSince("yesterday")
	assert.Error(t, err)
}

func TestSourceFilter(t *testing.T) {
	source, err := sourceFilter("")
	require.NoError(t, err)
	assert.Nil(t, source)

	source, err = sourceFilter("apt")
	require.NoError(t, err)
	require.NotNil(t, source)
	assert.Equal(t, types.SourceApt, *source)

	_, err = sourceFilter("brew")
	assert.Error(t, err)
}
