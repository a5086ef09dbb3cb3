package advisor_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	advisorcore "github.com/arthur-debert/popctl/pkg/advisor"
	advisorcmd "github.com/arthur-debert/popctl/pkg/commands/advisor"
	"github.com/arthur-debert/popctl/pkg/config"
	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/manifest"
	"github.com/arthur-debert/popctl/pkg/state"
	"github.com/arthur-debert/popctl/pkg/testutil"
	"github.com/arthur-debert/popctl/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.AdvisorConfig {
	return config.AdvisorConfig{Provider: config.ProviderClaude, TimeoutSeconds: 600}
}

func TestClassifyPreparesSession(t *testing.T) {
	sessionsDir := t.TempDir()

	m := manifest.New("ws")
	manifestPath := filepath.Join(t.TempDir(), "manifest.toml")
	require.NoError(t, manifest.Save(m, manifestPath))

	apt := &testutil.StubScanner{
		Src:      types.SourceApt,
		Packages: []types.ScannedPackage{testutil.ManualPackage("vim", types.SourceApt)},
	}

	result, err := advisorcmd.Classify(context.Background(), advisorcmd.ClassifyOptions{
		SessionsDir:  sessionsDir,
		ManifestPath: manifestPath,
		Registry:     testutil.ScannerRegistry(t, apt),
		Config:       testConfig(),
	})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(result.SessionDir, advisorcore.ScanFileName))
	assert.FileExists(t, filepath.Join(result.SessionDir, advisorcore.PromptFileName))
	assert.FileExists(t, filepath.Join(result.SessionDir, "manifest.toml"))
	assert.Contains(t, result.Instructions, "claude")
	assert.Contains(t, result.Instructions, "popctl advisor apply")
	assert.Empty(t, result.DecisionsPath)
}

func TestClassifyWithoutManifest(t *testing.T) {
	apt := &testutil.StubScanner{
		Src:      types.SourceApt,
		Packages: []types.ScannedPackage{testutil.ManualPackage("vim", types.SourceApt)},
	}

	result, err := advisorcmd.Classify(context.Background(), advisorcmd.ClassifyOptions{
		SessionsDir:  t.TempDir(),
		ManifestPath: filepath.Join(t.TempDir(), "manifest.toml"),
		Registry:     testutil.ScannerRegistry(t, apt),
		Config:       testConfig(),
	})
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(result.SessionDir, "manifest.toml"))
}

const sampleDecisions = `
[[packages.apt.keep]]
name = "vim"
reason = "editor in daily use"
confidence = 0.9
category = "development"

[[packages.apt.remove]]
name = "bloat"
reason = "unused"
confidence = 0.8
category = "games"
`

func preparedDecisions(t *testing.T) (string, string, string) {
	t.Helper()
	dir := t.TempDir()

	sessionsDir := filepath.Join(dir, "sessions")
	outputDir := filepath.Join(sessionsDir, "20250801T000000", advisorcore.OutputDirName)
	require.NoError(t, os.MkdirAll(outputDir, 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(outputDir, advisorcore.DecisionsFileName), []byte(sampleDecisions), 0644))

	manifestPath := filepath.Join(dir, "manifest.toml")
	require.NoError(t, manifest.Save(manifest.New("ws"), manifestPath))

	return sessionsDir, manifestPath, filepath.Join(dir, "history.jsonl")
}

func TestApplyLatestDecisions(t *testing.T) {
	sessionsDir, manifestPath, historyPath := preparedDecisions(t)

	result, err := advisorcmd.Apply(advisorcmd.ApplyOptions{
		SessionsDir:  sessionsDir,
		ManifestPath: manifestPath,
		HistoryPath:  historyPath,
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"vim"}, result.Summary.Kept)
	assert.ElementsMatch(t, []string{"bloat"}, result.Summary.Removed)

	saved, err := manifest.Load(manifestPath)
	require.NoError(t, err)
	assert.Contains(t, saved.Packages.Keep, "vim")
	assert.Contains(t, saved.Packages.Remove, "bloat")

	entries, err := state.NewManager(historyPath).History(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, types.HistoryAdvisorApply, entries[0].Kind)
}

func TestApplyDryRun(t *testing.T) {
	sessionsDir, manifestPath, historyPath := preparedDecisions(t)

	result, err := advisorcmd.Apply(advisorcmd.ApplyOptions{
		SessionsDir:  sessionsDir,
		ManifestPath: manifestPath,
		HistoryPath:  historyPath,
		DryRun:       true,
	})
	require.NoError(t, err)
	assert.True(t, result.DryRun)

	saved, err := manifest.Load(manifestPath)
	require.NoError(t, err)
	assert.Empty(t, saved.Packages.Keep)

	entries, err := state.NewManager(historyPath).History(0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestApplyExplicitDecisionsPath(t *testing.T) {
	dir := t.TempDir()
	decisionsPath := filepath.Join(dir, "decisions.toml")
	require.NoError(t, os.WriteFile(decisionsPath, []byte(sampleDecisions), 0644))

	manifestPath := filepath.Join(dir, "manifest.toml")
	require.NoError(t, manifest.Save(manifest.New("ws"), manifestPath))

	result, err := advisorcmd.Apply(advisorcmd.ApplyOptions{
		DecisionsPath: decisionsPath,
		ManifestPath:  manifestPath,
		HistoryPath:   filepath.Join(dir, "history.jsonl"),
	})
	require.NoError(t, err)
	assert.Equal(t, decisionsPath, result.DecisionsPath)
}

func TestApplyNoDecisionsAnywhere(t *testing.T) {
	_, err := advisorcmd.Apply(advisorcmd.ApplyOptions{
		SessionsDir:  t.TempDir(),
		ManifestPath: filepath.Join(t.TempDir(), "manifest.toml"),
	})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}
