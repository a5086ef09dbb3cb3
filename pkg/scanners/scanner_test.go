package scanners_test

import (
	"context"
	"testing"

	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/scanners"
	"github.com/arthur-debert/popctl/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScanner struct {
	source    types.Source
	available bool
}

func (f *fakeScanner) Source() types.Source { return f.source }
func (f *fakeScanner) Available() bool      { return f.available }
func (f *fakeScanner) Scan(ctx context.Context) ([]types.ScannedPackage, error) {
	return nil, nil
}

func TestRegistryForSourcesAll(t *testing.T) {
	reg := scanners.NewRegistry()
	require.NoError(t, reg.Register(&fakeScanner{source: types.SourceApt, available: true}))
	require.NoError(t, reg.Register(&fakeScanner{source: types.SourceFlatpak, available: false}))

	all, err := reg.ForSources(nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRegistryForSourcesFiltered(t *testing.T) {
	reg := scanners.NewRegistry()
	require.NoError(t, reg.Register(&fakeScanner{source: types.SourceApt, available: true}))
	require.NoError(t, reg.Register(&fakeScanner{source: types.SourceFlatpak, available: true}))

	apt := types.SourceApt
	filtered, err := reg.ForSources(&apt)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, types.SourceApt, filtered[0].Source())
}

func TestRegistryForSourcesUnknownFilter(t *testing.T) {
	reg := scanners.NewRegistry()

	bogus := types.Source("brew")
	_, err := reg.ForSources(&bogus)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrUnknownSource))
}

func TestRegistryGetUnregistered(t *testing.T) {
	reg := scanners.NewRegistry()
	_, err := reg.Get(types.SourceSnap)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrUnknownSource))
}

func TestRegistryAvailable(t *testing.T) {
	reg := scanners.NewRegistry()
	require.NoError(t, reg.Register(&fakeScanner{source: types.SourceApt, available: true}))
	require.NoError(t, reg.Register(&fakeScanner{source: types.SourceSnap, available: false}))

	available := reg.Available()
	require.Len(t, available, 1)
	assert.Equal(t, types.SourceApt, available[0].Source())
}

func TestDefaultRegistryCoversAllSources(t *testing.T) {
	reg := scanners.DefaultRegistry()
	for _, source := range types.AllSources() {
		_, err := reg.Get(source)
		assert.NoError(t, err, "scanner for %s should be registered", source)
	}
}
