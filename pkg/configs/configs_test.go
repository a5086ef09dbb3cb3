package configs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/popctl/pkg/shell"
	"github.com/arthur-debert/popctl/pkg/state"
	"github.com/arthur-debert/popctl/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsProtectedConfig(t *testing.T) {
	home := "/home/u"

	protected := []string{
		"/home/u/.config/cosmic-comp",
		"/home/u/.config/dconf",
		"/home/u/.config/gtk-3.0",
		"/home/u/.config/popctl",
		"/home/u/.config/nvim",
		"/home/u/.bashrc",
		"/home/u/.vimrc",
		"/home/u/.gitconfig",
		"/home/u/.ssh/id_rsa",
		"/home/u/.gnupg/secring.gpg",
	}
	for _, path := range protected {
		assert.True(t, isProtectedConfig(path, home), "%s should be protected", path)
	}

	unprotected := []string{
		"/home/u/.config/vlc",
		"/home/u/.config/old-app",
		"/home/u/.wgetrc",
		"/home/u/.tmux.conf",
	}
	for _, path := range unprotected {
		assert.False(t, isProtectedConfig(path, home), "%s should not be protected", path)
	}
}

// noToolsRun simulates a system where dpkg, flatpak, and snap all
// report nothing, so ownership falls through to orphan.
func noToolsRun(ctx context.Context, argv []string, opts shell.Options) (shell.Result, error) {
	return shell.Result{ExitCode: 1}, nil
}

func testScanner(t *testing.T) (*Scanner, string) {
	t.Helper()
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".config"), 0755))
	s := NewScanner(ScanOptions{Home: home})
	s.run = noToolsRun
	return s, home
}

func TestScanFindsOrphanConfigs(t *testing.T) {
	s, home := testScanner(t)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".config", "dead-app"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".config", "dead-app", "settings.ini"), []byte("xxxx"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".wgetrc"), []byte("x"), 0644))
	// Protected dotfiles are skipped silently
	require.NoError(t, os.WriteFile(filepath.Join(home, ".bashrc"), []byte("x"), 0644))

	found := s.Scan(context.Background())

	require.Len(t, found, 2)

	dir := found[0]
	assert.Equal(t, filepath.Join(home, ".config", "dead-app"), dir.Path)
	assert.Equal(t, TypeDirectory, dir.Type)
	assert.Equal(t, StatusOrphan, dir.Status)
	assert.Equal(t, ReasonAppNotInstalled, dir.Reason)
	assert.Equal(t, confidenceDirectory, dir.Confidence)
	assert.Equal(t, int64(4), dir.SizeBytes)
	assert.NotEmpty(t, dir.MTime)

	dotfile := found[1]
	assert.Equal(t, filepath.Join(home, ".wgetrc"), dotfile.Path)
	assert.Equal(t, TypeFile, dotfile.Type)
	assert.Equal(t, ReasonNoPackageMatch, dotfile.Reason)
	assert.Equal(t, confidenceFile, dotfile.Confidence)
}

func TestScanDeadSymlink(t *testing.T) {
	s, home := testScanner(t)
	require.NoError(t, os.Symlink(
		filepath.Join(home, "gone"),
		filepath.Join(home, ".config", "dangling")))

	found := s.Scan(context.Background())
	require.Len(t, found, 1)
	assert.Equal(t, TypeDeadSymlink, found[0].Type)
	assert.Equal(t, ReasonDeadLink, found[0].Reason)
}

func TestScanSkipsDpkgOwned(t *testing.T) {
	s, home := testScanner(t)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".config", "owned-app"), 0755))

	s.run = func(ctx context.Context, argv []string, opts shell.Options) (shell.Result, error) {
		if argv[0] == "dpkg" {
			return shell.Result{Stdout: "some-pkg: " + argv[2]}, nil
		}
		return shell.Result{ExitCode: 1}, nil
	}

	assert.Empty(t, s.Scan(context.Background()))
}

func TestScanSkipsInstalledNameMatch(t *testing.T) {
	s, home := testScanner(t)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".config", "tmux"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".config", "spotify"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".config", "unrelated"), 0755))

	s.run = func(ctx context.Context, argv []string, opts shell.Options) (shell.Result, error) {
		switch argv[0] {
		case "dpkg-query":
			return shell.Result{Stdout: "tmux\nvim\n"}, nil
		case "flatpak":
			// Reverse-DNS component "spotify" matches the directory
			return shell.Result{Stdout: "com.spotify.Client\n"}, nil
		}
		return shell.Result{ExitCode: 1}, nil
	}

	found := s.Scan(context.Background())
	require.Len(t, found, 1)
	assert.Equal(t, filepath.Join(home, ".config", "unrelated"), found[0].Path)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "gtk30", normalizeName("gtk-3.0"))
	assert.Equal(t, "gtk30", normalizeName("GTK-3.0"))
	assert.Equal(t, "tmuxconf", normalizeName("tmux.conf"))
}

func TestSortByConfidence(t *testing.T) {
	configs := []ScannedConfig{
		{Path: "/b", Confidence: confidenceFile},
		{Path: "/a", Confidence: confidenceDirectory},
		{Path: "/c", Confidence: confidenceFile},
	}
	SortByConfidence(configs)

	assert.Equal(t, "/a", configs[0].Path)
	assert.Equal(t, "/b", configs[1].Path)
	assert.Equal(t, "/c", configs[2].Path)
}

func TestOperatorDeleteBacksUp(t *testing.T) {
	home := t.TempDir()
	backupRoot := filepath.Join(t.TempDir(), "config-backups")

	dir := filepath.Join(home, ".config", "dead-app")
	file := filepath.Join(home, ".wgetrc")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.ini"), []byte("data"), 0644))
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	op := NewOperator(false, backupRoot)
	op.home = home
	results := op.Delete([]string{dir, file})

	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Success, r.Error)
		assert.NotEmpty(t, r.BackupPath)
	}
	assert.NoDirExists(t, dir)
	assert.NoFileExists(t, file)

	// One batch directory for the whole run, home-relative layout inside
	batches, err := os.ReadDir(backupRoot)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	batch := filepath.Join(backupRoot, batches[0].Name())
	assert.FileExists(t, filepath.Join(batch, ".config", "dead-app", "settings.ini"))
	assert.FileExists(t, filepath.Join(batch, ".wgetrc"))
}

func TestOperatorRejectsProtected(t *testing.T) {
	op := NewOperator(false, t.TempDir())
	op.home = "/home/u"

	results := op.Delete([]string{"/home/u/.bashrc"})
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "protected")
}

func TestOperatorDryRun(t *testing.T) {
	home := t.TempDir()
	backupRoot := filepath.Join(t.TempDir(), "config-backups")
	target := filepath.Join(home, ".config", "keepme")
	require.NoError(t, os.MkdirAll(target, 0755))

	op := NewOperator(true, backupRoot)
	op.home = home
	results := op.Delete([]string{target})

	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.True(t, results[0].DryRun)
	assert.Empty(t, results[0].BackupPath)
	assert.DirExists(t, target)
	// Dry runs never touch the backup root
	assert.NoDirExists(t, backupRoot)
}

func TestOperatorMissingPath(t *testing.T) {
	op := NewOperator(false, t.TempDir())
	op.home = "/nonexistent-home"

	results := op.Delete([]string{filepath.Join(t.TempDir(), "gone")})
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "does not exist")
}

func TestRecordDeletions(t *testing.T) {
	mgr := state.NewManager(filepath.Join(t.TempDir(), "history.jsonl"))

	require.NoError(t, RecordDeletions(mgr, []string{"/home/u/.config/dead-app"}, "popctl config clean"))

	entries, err := mgr.History(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, types.HistoryConfigDelete, entries[0].Kind)
	assert.False(t, entries[0].Reversible)
	assert.Equal(t, "configs", entries[0].Metadata["domain"])
	assert.Equal(t, "popctl config clean", entries[0].Metadata["command"])
	assert.Equal(t, "/home/u/.config/dead-app", entries[0].Items[0].Name)
}
