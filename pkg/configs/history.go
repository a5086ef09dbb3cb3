package configs

import (
	"github.com/arthur-debert/popctl/pkg/state"
	"github.com/arthur-debert/popctl/pkg/types"
)

// RecordDeletions writes one config_delete history entry covering all
// deleted paths. Config deletions are never reversible through
// history; restoring means pulling the copy out of the backup
// directory. The source field is a placeholder, the domain metadata
// is what identifies these items as config paths.
func RecordDeletions(mgr *state.Manager, deletedPaths []string, command string) error {
	items := make([]types.HistoryItem, 0, len(deletedPaths))
	for _, path := range deletedPaths {
		items = append(items, types.HistoryItem{Name: path, Source: types.SourceApt})
	}

	entry, err := types.NewHistoryEntry(types.HistoryConfigDelete, items, false,
		map[string]string{"domain": "configs", "command": command})
	if err != nil {
		return err
	}
	return mgr.Record(entry)
}
