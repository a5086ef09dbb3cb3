package cfgclean_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/popctl/pkg/commands/cfgclean"
	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/manifest"
	"github.com/arthur-debert/popctl/pkg/state"
	"github.com/arthur-debert/popctl/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifestWithConfigs(t *testing.T, paths ...string) (string, string, string) {
	t.Helper()
	dir := t.TempDir()

	m := manifest.New("ws")
	m.Configs.Remove = make(map[string]manifest.PathEntry)
	for _, path := range paths {
		m.Configs.Remove[path] = manifest.PathEntry{Reason: "app uninstalled"}
	}
	manifestPath := filepath.Join(dir, "manifest.toml")
	require.NoError(t, manifest.Save(m, manifestPath))

	return manifestPath, filepath.Join(dir, "history.jsonl"), filepath.Join(dir, "config-backups")
}

func TestCfgCleanDeletesBacksUpAndRecords(t *testing.T) {
	victim := filepath.Join(t.TempDir(), "dead-app")
	require.NoError(t, os.MkdirAll(victim, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(victim, "settings.ini"), []byte("x"), 0644))

	manifestPath, historyPath, backupDir := writeManifestWithConfigs(t, victim)

	result, err := cfgclean.CfgClean(context.Background(), cfgclean.CfgCleanOptions{
		ManifestPath: manifestPath,
		HistoryPath:  historyPath,
		BackupDir:    backupDir,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{victim}, result.Planned)
	assert.Equal(t, []string{victim}, result.Deleted())
	assert.Zero(t, result.FailedCount())
	assert.NoDirExists(t, victim)

	require.Len(t, result.Results, 1)
	assert.NotEmpty(t, result.Results[0].BackupPath)
	assert.FileExists(t, filepath.Join(result.Results[0].BackupPath, "settings.ini"))

	entries, err := state.NewManager(historyPath).History(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, types.HistoryConfigDelete, entries[0].Kind)
	assert.False(t, entries[0].Reversible)
	assert.Equal(t, cfgclean.Command, entries[0].Metadata["command"])
}

func TestCfgCleanSkipsProtected(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	protected := filepath.Join(home, ".config", "dconf")

	manifestPath, historyPath, backupDir := writeManifestWithConfigs(t, protected)

	result, err := cfgclean.CfgClean(context.Background(), cfgclean.CfgCleanOptions{
		ManifestPath: manifestPath,
		HistoryPath:  historyPath,
		BackupDir:    backupDir,
	})
	require.NoError(t, err)

	assert.Empty(t, result.Planned)
	assert.Equal(t, []string{protected}, result.SkippedProtected)
	assert.Empty(t, result.Results)
}

func TestCfgCleanNothingMarked(t *testing.T) {
	manifestPath, historyPath, backupDir := writeManifestWithConfigs(t)

	result, err := cfgclean.CfgClean(context.Background(), cfgclean.CfgCleanOptions{
		ManifestPath: manifestPath,
		HistoryPath:  historyPath,
		BackupDir:    backupDir,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Planned)
	assert.Empty(t, result.Results)
}

func TestCfgCleanConfirmAborts(t *testing.T) {
	victim := filepath.Join(t.TempDir(), "dead-app")
	require.NoError(t, os.MkdirAll(victim, 0755))

	manifestPath, historyPath, backupDir := writeManifestWithConfigs(t, victim)

	result, err := cfgclean.CfgClean(context.Background(), cfgclean.CfgCleanOptions{
		ManifestPath: manifestPath,
		HistoryPath:  historyPath,
		BackupDir:    backupDir,
		Confirm:      func([]string) bool { return false },
	})
	require.NoError(t, err)

	assert.True(t, result.Aborted)
	assert.DirExists(t, victim)
}

func TestCfgCleanDryRun(t *testing.T) {
	victim := filepath.Join(t.TempDir(), "dead-app")
	require.NoError(t, os.MkdirAll(victim, 0755))

	manifestPath, historyPath, backupDir := writeManifestWithConfigs(t, victim)

	result, err := cfgclean.CfgClean(context.Background(), cfgclean.CfgCleanOptions{
		ManifestPath: manifestPath,
		HistoryPath:  historyPath,
		BackupDir:    backupDir,
		DryRun:       true,
	})
	require.NoError(t, err)

	assert.DirExists(t, victim)
	assert.NoDirExists(t, backupDir)
	assert.Empty(t, result.Deleted())
	require.Len(t, result.Results, 1)
	assert.True(t, result.Results[0].DryRun)

	entries, err := state.NewManager(historyPath).History(0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCfgCleanMissingManifest(t *testing.T) {
	_, err := cfgclean.CfgClean(context.Background(), cfgclean.CfgCleanOptions{
		ManifestPath: filepath.Join(t.TempDir(), "manifest.toml"),
	})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrManifestNotFound))
}
