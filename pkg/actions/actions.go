// Package actions translates a computed diff into the concrete
// install/remove/purge operations that bring the system in line with
// the manifest.
package actions

import (
	"github.com/arthur-debert/popctl/pkg/diff"
	"github.com/arthur-debert/popctl/pkg/logging"
	"github.com/arthur-debert/popctl/pkg/protect"
	"github.com/arthur-debert/popctl/pkg/types"
)

// FromDiff derives the actions needed to reconcile the diff.
//
// NEW entries produce no action: unknown packages are reported, never
// touched, until the user triages them into the manifest. MISSING
// entries become installs. EXTRA entries become removals, upgraded to
// purge when requested and the ecosystem supports it.
//
// Protected names are re-checked here as a second line of defense;
// anything protected that slipped into the diff is dropped silently.
func FromDiff(result diff.Result, purge bool) []types.Action {
	logger := logging.GetLogger("actions")

	actions := make([]types.Action, 0, len(result.Missing)+len(result.Extra))

	for _, entry := range result.Missing {
		action, err := types.NewAction(types.ActionInstall, entry.Name, entry.Source,
			"in manifest keep set but not installed")
		if err != nil {
			logger.Warn().Err(err).Str("package", entry.Name).Msg("Skipping invalid diff entry")
			continue
		}
		actions = append(actions, action)
	}

	for _, entry := range result.Extra {
		if protect.IsProtected(entry.Name) {
			logger.Warn().Str("package", entry.Name).Msg("Refusing to remove protected package")
			continue
		}
		kind := types.ActionRemove
		if purge && entry.Source.SupportsPurge() {
			kind = types.ActionPurge
		}
		action, err := types.NewAction(kind, entry.Name, entry.Source,
			"in manifest remove set but still installed")
		if err != nil {
			logger.Warn().Err(err).Str("package", entry.Name).Msg("Skipping invalid diff entry")
			continue
		}
		actions = append(actions, action)
	}

	return actions
}

// BySource groups actions per package source, preserving their order
// within each group.
func BySource(actions []types.Action) map[types.Source][]types.Action {
	grouped := make(map[types.Source][]types.Action)
	for _, action := range actions {
		grouped[action.Source] = append(grouped[action.Source], action)
	}
	return grouped
}
