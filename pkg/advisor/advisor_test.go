package advisor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/popctl/pkg/config"
	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/manifest"
	"github.com/arthur-debert/popctl/pkg/shell"
	"github.com/arthur-debert/popctl/pkg/state"
	"github.com/arthur-debert/popctl/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleExport() ScanExport {
	return BuildScanExport([]types.ScannedPackage{
		{Name: "vim", Source: types.SourceApt, Version: "2:9.1", Status: types.StatusManual},
		{Name: "libx", Source: types.SourceApt, Version: "1.0", Status: types.StatusAuto},
		{Name: "com.spotify.Client", Source: types.SourceFlatpak, Version: "1.2", Status: types.StatusManual},
	}, map[string]string{"hostname": "ws", "os": "Pop!_OS 24.04 LTS"})
}

func TestBuildScanExportSummary(t *testing.T) {
	export := sampleExport()

	assert.Equal(t, 3, export.Summary["total_packages"])
	assert.Equal(t, 1, export.Summary["manual_apt"])
	assert.Equal(t, 1, export.Summary["auto_apt"])
	assert.Equal(t, 1, export.Summary["flatpak"])
	assert.Equal(t, 0, export.Summary["snap"])
	assert.Len(t, export.Packages["unknown"], 3)
	assert.NotEmpty(t, export.ScanDate)
}

func TestNewSessionLayout(t *testing.T) {
	sessionsDir := t.TempDir()
	manifestPath := filepath.Join(t.TempDir(), "manifest.toml")
	require.NoError(t, os.WriteFile(manifestPath, []byte("[meta]\nversion = \"1.0\"\n"), 0644))

	sessionDir, err := NewSession(sessionsDir, sampleExport(), manifestPath)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(sessionDir, ScanFileName))
	assert.FileExists(t, filepath.Join(sessionDir, PromptFileName))
	assert.FileExists(t, filepath.Join(sessionDir, "manifest.toml"))
	assert.DirExists(t, filepath.Join(sessionDir, OutputDirName))
}

func TestLatestDecisions(t *testing.T) {
	sessionsDir := t.TempDir()

	older := filepath.Join(sessionsDir, "20250101T000000")
	newer := filepath.Join(sessionsDir, "20250601T000000")
	newest := filepath.Join(sessionsDir, "20250801T000000")
	for _, dir := range []string{older, newer, newest} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, OutputDirName), 0755))
	}
	// Only the two older sessions produced decisions
	for _, dir := range []string{older, newer} {
		require.NoError(t, os.WriteFile(
			filepath.Join(dir, OutputDirName, DecisionsFileName), []byte("[packages]\n"), 0644))
	}

	found, err := LatestDecisions(sessionsDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(newer, OutputDirName, DecisionsFileName), found)
}

func TestLatestDecisionsNone(t *testing.T) {
	_, err := LatestDecisions(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}

const sampleDecisions = `
[[packages.apt.keep]]
name = "vim"
reason = "editor in daily use"
confidence = 0.9
category = "development"

[[packages.apt.remove]]
name = "bloatware"
reason = "unused game"
confidence = 0.8
category = "games"

[[packages.flatpak.ask]]
name = "com.example.App"
reason = "cannot tell if used"
confidence = 0.4
category = "other"
`

func writeDecisions(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DecisionsFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestImportDecisions(t *testing.T) {
	decisions, err := ImportDecisions(writeDecisions(t, sampleDecisions))
	require.NoError(t, err)

	require.Len(t, decisions.Packages["apt"].Keep, 1)
	assert.Equal(t, "vim", decisions.Packages["apt"].Keep[0].Name)
	assert.Equal(t, 0.9, decisions.Packages["apt"].Keep[0].Confidence)
	require.Len(t, decisions.Packages["apt"].Remove, 1)
	require.Len(t, decisions.Packages["flatpak"].Ask, 1)
}

func TestImportDecisionsMissingFile(t *testing.T) {
	_, err := ImportDecisions(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}

func TestImportDecisionsBadToml(t *testing.T) {
	_, err := ImportDecisions(writeDecisions(t, "not [toml"))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrAdvisorDecisions))
}

func TestImportDecisionsUnknownSource(t *testing.T) {
	_, err := ImportDecisions(writeDecisions(t, `
[[packages.brew.keep]]
name = "x"
reason = "y"
confidence = 0.5
category = "other"
`))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrAdvisorDecisions))
}

func TestImportDecisionsBadConfidence(t *testing.T) {
	_, err := ImportDecisions(writeDecisions(t, `
[[packages.apt.keep]]
name = "x"
reason = "y"
confidence = 1.5
category = "other"
`))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrAdvisorDecisions))
}

func TestMerge(t *testing.T) {
	decisions, err := ImportDecisions(writeDecisions(t, sampleDecisions))
	require.NoError(t, err)

	m := manifest.New("ws")
	before := m.Meta.Updated
	summary := Merge(decisions, m)

	assert.ElementsMatch(t, []string{"vim"}, summary.Kept)
	assert.ElementsMatch(t, []string{"bloatware"}, summary.Removed)
	assert.ElementsMatch(t, []string{"com.example.App"}, summary.Asked)
	assert.True(t, summary.Changed())

	keepEntry := m.Packages.Keep["vim"]
	assert.Equal(t, types.SourceApt, keepEntry.Source)
	assert.Equal(t, "editor in daily use", keepEntry.Reason)
	assert.Contains(t, m.Packages.Remove, "bloatware")
	// Ask decisions never touch the manifest
	assert.NotContains(t, m.Packages.Keep, "com.example.App")
	assert.NotContains(t, m.Packages.Remove, "com.example.App")
	assert.True(t, m.Meta.Updated.After(before) || m.Meta.Updated.Equal(before))
}

func TestMergeMovesBetweenSets(t *testing.T) {
	m := manifest.New("ws")
	m.SetRemove("vim", manifest.Entry{Source: types.SourceApt})

	decisions := &Decisions{Packages: map[string]SourceDecisions{
		"apt": {Keep: []Decision{{Name: "vim", Reason: "actually used", Confidence: 0.9, Category: "development"}}},
	}}
	Merge(decisions, m)

	assert.Contains(t, m.Packages.Keep, "vim")
	assert.NotContains(t, m.Packages.Remove, "vim")
}

func TestRecordApply(t *testing.T) {
	mgr := state.NewManager(filepath.Join(t.TempDir(), "history.jsonl"))
	decisions, err := ImportDecisions(writeDecisions(t, sampleDecisions))
	require.NoError(t, err)

	RecordApply(mgr, decisions, "popctl advisor apply")

	entries, err := mgr.History(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, types.HistoryAdvisorApply, entries[0].Kind)
	assert.False(t, entries[0].Reversible)
	require.Len(t, entries[0].Items, 2) // keep + remove, never ask
}

func TestRunnerBuildArgv(t *testing.T) {
	claude := NewRunner(config.AdvisorConfig{Provider: config.ProviderClaude, TimeoutSeconds: 600})
	assert.Equal(t, []string{"claude", "--print", "p", "--output-format", "json"}, claude.buildArgv("p"))

	gemini := NewRunner(config.AdvisorConfig{Provider: config.ProviderGemini, TimeoutSeconds: 600})
	assert.Equal(t, []string{"gemini", "--prompt", "p"}, gemini.buildArgv("p"))
}

func TestRunHeadlessRequiresDecisions(t *testing.T) {
	sessionDir, err := NewSession(t.TempDir(), sampleExport(), "")
	require.NoError(t, err)

	runner := NewRunner(config.AdvisorConfig{Provider: config.ProviderClaude, TimeoutSeconds: 600})
	runner.run = func(ctx context.Context, argv []string, opts shell.Options) (shell.Result, error) {
		return shell.Result{Stdout: "done"}, nil // agent "succeeds" without writing decisions
	}

	_, err = runner.RunHeadless(context.Background(), sessionDir)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrAdvisorRun))
}

func TestRunHeadlessSuccess(t *testing.T) {
	sessionDir, err := NewSession(t.TempDir(), sampleExport(), "")
	require.NoError(t, err)

	runner := NewRunner(config.AdvisorConfig{Provider: config.ProviderClaude, TimeoutSeconds: 600})
	runner.run = func(ctx context.Context, argv []string, opts shell.Options) (shell.Result, error) {
		// The agent writes its decisions before exiting
		path := filepath.Join(sessionDir, OutputDirName, DecisionsFileName)
		require.NoError(t, os.WriteFile(path, []byte(sampleDecisions), 0644))
		return shell.Result{Stdout: "classified"}, nil
	}

	result, err := runner.RunHeadless(context.Background(), sessionDir)
	require.NoError(t, err)
	assert.Equal(t, "classified", result.Output)
	assert.FileExists(t, result.DecisionsPath)
}

func TestRunHeadlessAgentFailure(t *testing.T) {
	sessionDir, err := NewSession(t.TempDir(), sampleExport(), "")
	require.NoError(t, err)

	runner := NewRunner(config.AdvisorConfig{Provider: config.ProviderGemini, TimeoutSeconds: 600})
	runner.run = func(ctx context.Context, argv []string, opts shell.Options) (shell.Result, error) {
		return shell.Result{ExitCode: 1, Stderr: "quota exceeded"}, nil
	}

	_, err = runner.RunHeadless(context.Background(), sessionDir)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrAdvisorRun))
	assert.Contains(t, err.Error(), "quota exceeded")
}
