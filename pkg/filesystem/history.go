package filesystem

import (
	"github.com/arthur-debert/popctl/pkg/state"
	"github.com/arthur-debert/popctl/pkg/types"
)

// RecordDeletions writes one fs_delete history entry covering all
// deleted paths. Filesystem deletions are never reversible; the entry
// exists for the audit trail. The source field is a placeholder, the
// domain metadata is what identifies these items as paths.
func RecordDeletions(mgr *state.Manager, deletedPaths []string, command string) error {
	items := make([]types.HistoryItem, 0, len(deletedPaths))
	for _, path := range deletedPaths {
		items = append(items, types.HistoryItem{Name: path, Source: types.SourceApt})
	}

	entry, err := types.NewHistoryEntry(types.HistoryFsDelete, items, false,
		map[string]string{"domain": "filesystem", "command": command})
	if err != nil {
		return err
	}
	return mgr.Record(entry)
}
