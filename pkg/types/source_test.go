package types_test

import (
	"testing"

	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSource(t *testing.T) {
	tests := []struct {
		input   string
		want    types.Source
		wantErr bool
	}{
		{"apt", types.SourceApt, false},
		{"flatpak", types.SourceFlatpak, false},
		{"snap", types.SourceSnap, false},
		{"pacman", "", true},
		{"", "", true},
		{"APT", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := types.ParseSource(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsErrorCode(err, errors.ErrUnknownSource))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSourceSupportsPurge(t *testing.T) {
	assert.True(t, types.SourceApt.SupportsPurge())
	assert.True(t, types.SourceSnap.SupportsPurge())
	assert.False(t, types.SourceFlatpak.SupportsPurge())
}

func TestAllSourcesAreValid(t *testing.T) {
	for _, source := range types.AllSources() {
		assert.True(t, source.Valid(), "source %s should be valid", source)
	}
	assert.False(t, types.Source("brew").Valid())
}
