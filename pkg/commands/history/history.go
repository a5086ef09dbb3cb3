// Package history implements the history command: list past operations
// from the append-only log.
package history

import (
	"time"

	"github.com/arthur-debert/popctl/pkg/logging"
	"github.com/arthur-debert/popctl/pkg/state"
	"github.com/arthur-debert/popctl/pkg/types"
)

// DefaultLimit is the number of entries shown when no limit is given.
const DefaultLimit = 20

// HistoryOptions contains options for the history command.
type HistoryOptions struct {
	// HistoryPath locates the history log; required.
	HistoryPath string

	// Limit caps the number of entries; 0 falls back to DefaultLimit,
	// a negative value means all.
	Limit int

	// Since drops entries recorded before this time when non-zero.
	Since time.Time
}

// HistoryResult is the outcome of a history listing.
type HistoryResult struct {
	// Entries, newest first.
	Entries []types.HistoryEntry
}

// History reads the history log, newest entries first.
func History(opts HistoryOptions) (*HistoryResult, error) {
	logger := logging.GetLogger("commands.history")

	limit := opts.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 0 {
		limit = 0 // state.Manager treats 0 as unlimited
	}

	mgr := state.NewManager(opts.HistoryPath)

	// The since filter must see everything before the limit applies.
	fetchLimit := limit
	if !opts.Since.IsZero() {
		fetchLimit = 0
	}

	entries, err := mgr.History(fetchLimit)
	if err != nil {
		return nil, err
	}

	if !opts.Since.IsZero() {
		kept := entries[:0]
		for _, entry := range entries {
			ts, err := time.Parse(time.RFC3339, entry.Timestamp)
			if err != nil {
				logger.Warn().Str("id", entry.ID).Msg("Entry has unparseable timestamp, keeping")
				kept = append(kept, entry)
				continue
			}
			if !ts.Before(opts.Since) {
				kept = append(kept, entry)
			}
		}
		entries = kept
		if limit > 0 && len(entries) > limit {
			entries = entries[:limit]
		}
	}

	logger.Debug().Int("entries", len(entries)).Msg("History listed")
	return &HistoryResult{Entries: entries}, nil
}
