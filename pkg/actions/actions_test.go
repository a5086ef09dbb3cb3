package actions_test

import (
	"testing"

	"github.com/arthur-debert/popctl/pkg/actions"
	"github.com/arthur-debert/popctl/pkg/diff"
	"github.com/arthur-debert/popctl/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDiffNewProducesNoActions(t *testing.T) {
	result := diff.Result{
		New: []diff.Entry{
			{Name: "htop", Source: types.SourceApt, Kind: diff.KindNew},
			{Name: "com.spotify.Client", Source: types.SourceFlatpak, Kind: diff.KindNew},
		},
	}

	assert.Empty(t, actions.FromDiff(result, false))
}

func TestFromDiffMissingBecomesInstall(t *testing.T) {
	result := diff.Result{
		Missing: []diff.Entry{{Name: "vim", Source: types.SourceApt, Kind: diff.KindMissing}},
	}

	acts := actions.FromDiff(result, false)
	require.Len(t, acts, 1)
	assert.Equal(t, types.ActionInstall, acts[0].Kind)
	assert.Equal(t, "vim", acts[0].Package)
	assert.Equal(t, types.SourceApt, acts[0].Source)
}

func TestFromDiffExtraBecomesRemove(t *testing.T) {
	result := diff.Result{
		Extra: []diff.Entry{{Name: "bloat", Source: types.SourceApt, Kind: diff.KindExtra}},
	}

	acts := actions.FromDiff(result, false)
	require.Len(t, acts, 1)
	assert.Equal(t, types.ActionRemove, acts[0].Kind)
	assert.Equal(t, "bloat", acts[0].Package)
}

func TestFromDiffProtectedExtraDropped(t *testing.T) {
	// A protected name in the remove set must never become an action,
	// while the unprotected siblings still do.
	result := diff.Result{
		Extra: []diff.Entry{
			{Name: "systemd", Source: types.SourceApt, Kind: diff.KindExtra},
			{Name: "bloat", Source: types.SourceApt, Kind: diff.KindExtra},
		},
	}

	acts := actions.FromDiff(result, false)
	require.Len(t, acts, 1)
	assert.Equal(t, "bloat", acts[0].Package)
}

func TestFromDiffPurgeUpgrade(t *testing.T) {
	// Purge applies only to ecosystems that support it: apt and snap
	// removals upgrade, flatpak stays a plain remove.
	result := diff.Result{
		Extra: []diff.Entry{
			{Name: "bloat", Source: types.SourceApt, Kind: diff.KindExtra},
			{Name: "com.example.App", Source: types.SourceFlatpak, Kind: diff.KindExtra},
			{Name: "old-snap", Source: types.SourceSnap, Kind: diff.KindExtra},
		},
	}

	acts := actions.FromDiff(result, true)
	require.Len(t, acts, 3)

	kinds := make(map[string]types.ActionKind)
	for _, a := range acts {
		kinds[a.Package] = a.Kind
	}
	assert.Equal(t, types.ActionPurge, kinds["bloat"])
	assert.Equal(t, types.ActionRemove, kinds["com.example.App"])
	assert.Equal(t, types.ActionPurge, kinds["old-snap"])
}

func TestFromDiffWithoutPurgeFlag(t *testing.T) {
	result := diff.Result{
		Extra: []diff.Entry{{Name: "bloat", Source: types.SourceApt, Kind: diff.KindExtra}},
	}

	acts := actions.FromDiff(result, false)
	require.Len(t, acts, 1)
	assert.Equal(t, types.ActionRemove, acts[0].Kind)
}

func TestBySource(t *testing.T) {
	acts := []types.Action{
		{Kind: types.ActionInstall, Package: "vim", Source: types.SourceApt},
		{Kind: types.ActionRemove, Package: "bloat", Source: types.SourceApt},
		{Kind: types.ActionInstall, Package: "org.gimp.GIMP", Source: types.SourceFlatpak},
	}

	grouped := actions.BySource(acts)
	require.Len(t, grouped, 2)
	require.Len(t, grouped[types.SourceApt], 2)
	assert.Equal(t, "vim", grouped[types.SourceApt][0].Package)
	assert.Equal(t, "bloat", grouped[types.SourceApt][1].Package)
	require.Len(t, grouped[types.SourceFlatpak], 1)
}
