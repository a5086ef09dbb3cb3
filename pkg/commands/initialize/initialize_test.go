package initialize_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/popctl/pkg/commands/initialize"
	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/manifest"
	"github.com/arthur-debert/popctl/pkg/testutil"
	"github.com/arthur-debert/popctl/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubScanners(t *testing.T) *testutil.StubScanner {
	t.Helper()
	return &testutil.StubScanner{
		Src: types.SourceApt,
		Packages: []types.ScannedPackage{
			testutil.ManualPackage("vim", types.SourceApt),
			testutil.ManualPackage("htop", types.SourceApt),
			testutil.AutoPackage("libxcb1", types.SourceApt),
			testutil.ManualPackage("systemd", types.SourceApt),
		},
	}
}

func TestInitBuildsKeepSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.toml")

	result, err := initialize.Init(context.Background(), initialize.InitOptions{
		ManifestPath: path,
		Registry:     testutil.ScannerRegistry(t, stubScanners(t)),
		SystemName:   "ws",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Added)
	assert.Equal(t, []string{"systemd"}, result.SkippedProtected)

	saved, err := manifest.Load(path)
	require.NoError(t, err)
	assert.Contains(t, saved.Packages.Keep, "vim")
	assert.Contains(t, saved.Packages.Keep, "htop")
	// Auto-installed dependencies and protected packages stay out
	assert.NotContains(t, saved.Packages.Keep, "libxcb1")
	assert.NotContains(t, saved.Packages.Keep, "systemd")
	assert.Equal(t, "ws", saved.System.Name)
}

func TestInitRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.toml")
	require.NoError(t, manifest.Save(manifest.New("ws"), path))

	_, err := initialize.Init(context.Background(), initialize.InitOptions{
		ManifestPath: path,
		Registry:     testutil.ScannerRegistry(t, stubScanners(t)),
	})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrAlreadyExists))
}

func TestInitForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.toml")
	require.NoError(t, manifest.Save(manifest.New("old"), path))

	result, err := initialize.Init(context.Background(), initialize.InitOptions{
		ManifestPath: path,
		Registry:     testutil.ScannerRegistry(t, stubScanners(t)),
		SystemName:   "new",
		Force:        true,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Added)

	saved, err := manifest.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "new", saved.System.Name)
}

func TestInitDryRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.toml")

	result, err := initialize.Init(context.Background(), initialize.InitOptions{
		ManifestPath: path,
		Registry:     testutil.ScannerRegistry(t, stubScanners(t)),
		DryRun:       true,
	})
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Equal(t, 2, result.Added)
	assert.False(t, manifest.Exists(path))
}

func TestInitScanFailure(t *testing.T) {
	broken := &testutil.StubScanner{
		Src: types.SourceApt,
		Err: errors.New(errors.ErrScanFailed, "dpkg-query exploded"),
	}

	_, err := initialize.Init(context.Background(), initialize.InitOptions{
		ManifestPath: filepath.Join(t.TempDir(), "manifest.toml"),
		Registry:     testutil.ScannerRegistry(t, broken),
	})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrScanFailed))
}
