package scan_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/popctl/pkg/commands/scan"
	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/testutil"
	"github.com/arthur-debert/popctl/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *testutil.StubScanner {
	t.Helper()
	return &testutil.StubScanner{
		Src: types.SourceApt,
		Packages: []types.ScannedPackage{
			testutil.ManualPackage("vim", types.SourceApt),
			testutil.AutoPackage("libxcb1", types.SourceApt),
			testutil.ManualPackage("htop", types.SourceApt),
		},
	}
}

func TestScanSortsAndCounts(t *testing.T) {
	apt := testRegistry(t)
	flatpak := &testutil.StubScanner{
		Src: types.SourceFlatpak,
		Packages: []types.ScannedPackage{
			testutil.ManualPackage("org.gimp.GIMP", types.SourceFlatpak),
		},
	}

	result, err := scan.Scan(context.Background(), scan.ScanOptions{
		Registry: testutil.ScannerRegistry(t, apt, flatpak),
	})
	require.NoError(t, err)

	require.Len(t, result.Packages, 4)
	assert.Equal(t, "htop", result.Packages[0].Name)
	assert.Equal(t, "libxcb1", result.Packages[1].Name)
	assert.Equal(t, "vim", result.Packages[2].Name)
	assert.Equal(t, "org.gimp.GIMP", result.Packages[3].Name)
	assert.Equal(t, 3, result.Counts[types.SourceApt])
	assert.Equal(t, 1, result.Counts[types.SourceFlatpak])
	assert.Equal(t, 4, result.Total)
}

func TestScanManualOnly(t *testing.T) {
	result, err := scan.Scan(context.Background(), scan.ScanOptions{
		Registry:   testutil.ScannerRegistry(t, testRegistry(t)),
		ManualOnly: true,
	})
	require.NoError(t, err)

	require.Len(t, result.Packages, 2)
	for _, pkg := range result.Packages {
		assert.True(t, pkg.IsManual())
	}
}

func TestScanLimit(t *testing.T) {
	result, err := scan.Scan(context.Background(), scan.ScanOptions{
		Registry: testutil.ScannerRegistry(t, testRegistry(t)),
		Limit:    1,
	})
	require.NoError(t, err)

	assert.Len(t, result.Packages, 1)
	assert.Equal(t, 3, result.Total)
}

func TestScanSourceFilter(t *testing.T) {
	apt := testRegistry(t)
	flatpak := &testutil.StubScanner{Src: types.SourceFlatpak}
	source := types.SourceApt

	result, err := scan.Scan(context.Background(), scan.ScanOptions{
		Registry: testutil.ScannerRegistry(t, apt, flatpak),
		Source:   &source,
	})
	require.NoError(t, err)

	assert.Len(t, result.Packages, 3)
	assert.Zero(t, flatpak.ScanCalls)
}

func TestScanExport(t *testing.T) {
	exportPath := filepath.Join(t.TempDir(), "scan.json")

	_, err := scan.Scan(context.Background(), scan.ScanOptions{
		Registry:   testutil.ScannerRegistry(t, testRegistry(t)),
		ExportPath: exportPath,
		SystemInfo: map[string]string{"hostname": "ws"},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\"vim\"")
	assert.Contains(t, string(data), "manual_apt")
}

func TestScanUnavailableSkipped(t *testing.T) {
	offline := &testutil.StubScanner{Src: types.SourceSnap, Offline: true}

	result, err := scan.Scan(context.Background(), scan.ScanOptions{
		Registry: testutil.ScannerRegistry(t, testRegistry(t), offline),
	})
	require.NoError(t, err)

	assert.Len(t, result.Packages, 3)
	assert.Zero(t, offline.ScanCalls)
}

func TestScanFailure(t *testing.T) {
	broken := &testutil.StubScanner{
		Src: types.SourceApt,
		Err: errors.New(errors.ErrScanFailed, "dpkg-query exploded"),
	}

	_, err := scan.Scan(context.Background(), scan.ScanOptions{
		Registry: testutil.ScannerRegistry(t, broken),
	})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrScanFailed))
}
