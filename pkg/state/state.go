// Package state manages the append-only history log. Every mutating
// operation popctl performs is recorded here as one JSON Lines entry,
// which is what makes undo possible.
package state

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/logging"
	"github.com/arthur-debert/popctl/pkg/paths"
	"github.com/arthur-debert/popctl/pkg/types"
)

// MetaReversedEntryID marks a reversal entry with the ID of the entry
// it undoes. MetaReversalOf carries the original kind for display.
const (
	MetaReversedEntryID = "reversed_entry_id"
	MetaReversalOf      = "reversal_of"
)

// Manager reads and appends the history log. The log is append-only:
// entries are never rewritten or deleted, and undo is itself recorded
// as a new entry.
type Manager struct {
	path string
}

// NewManager creates a manager for the given history file path.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// NewManagerFromPaths creates a manager on the standard history
// location.
func NewManagerFromPaths(p paths.Paths) *Manager {
	return NewManager(p.HistoryFile())
}

// Path returns the history file location.
func (m *Manager) Path() string {
	return m.path
}

// Record appends one entry to the log, creating parent directories on
// first use. The write is flushed before returning so a crash right
// after a package operation cannot lose the record.
func (m *Manager) Record(entry types.HistoryEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if err := paths.EnsureDir(filepath.Dir(m.path)); err != nil {
		return err
	}

	line, err := entry.ToJSONLine()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(m.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, errors.ErrHistoryAppend, "cannot open history log %s", m.path)
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return errors.Wrap(err, errors.ErrHistoryAppend, "cannot append history entry")
	}
	if err := f.Sync(); err != nil {
		return errors.Wrap(err, errors.ErrHistoryAppend, "cannot flush history log")
	}
	return nil
}

// History returns entries newest first. limit <= 0 means all entries.
// Corrupt lines are skipped with a warning so one bad write never
// takes the whole log down.
func (m *Manager) History(limit int) ([]types.HistoryEntry, error) {
	entries, err := m.readAll()
	if err != nil {
		return nil, err
	}

	// reverse to newest-first
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Get returns the entry with the given ID.
func (m *Manager) Get(id string) (types.HistoryEntry, error) {
	entries, err := m.readAll()
	if err != nil {
		return types.HistoryEntry{}, err
	}
	for _, entry := range entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return types.HistoryEntry{}, errors.Newf(errors.ErrNotFound, "no history entry with ID %s", id)
}

// LastReversible returns the most recent entry that can still be
// undone: reversible, successful, and not already referenced by a
// later reversal entry. Returns ErrNotFound when nothing qualifies.
func (m *Manager) LastReversible() (types.HistoryEntry, error) {
	entries, err := m.readAll()
	if err != nil {
		return types.HistoryEntry{}, err
	}

	reversed := make(map[string]bool)
	for _, entry := range entries {
		if id := entry.Metadata[MetaReversedEntryID]; id != "" {
			reversed[id] = true
		}
	}

	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		if entry.Reversible && entry.Success && !reversed[entry.ID] {
			return entry, nil
		}
	}
	return types.HistoryEntry{}, errors.New(errors.ErrNotFound, "no reversible history entry")
}

// MarkReversed appends the reversal record for an entry: a new entry
// of the inverse kind carrying the same items, itself not reversible,
// linked back via metadata. The original entry is left untouched. An
// entry not present in the log is refused and nothing is appended.
func (m *Manager) MarkReversed(original types.HistoryEntry) (types.HistoryEntry, error) {
	if _, err := m.Get(original.ID); err != nil {
		return types.HistoryEntry{}, err
	}
	reversal, err := types.NewHistoryEntry(
		original.Kind.InverseKind(),
		original.Items,
		false,
		map[string]string{
			MetaReversedEntryID: original.ID,
			MetaReversalOf:      string(original.Kind),
		},
	)
	if err != nil {
		return types.HistoryEntry{}, err
	}
	if err := m.Record(reversal); err != nil {
		return types.HistoryEntry{}, err
	}
	return reversal, nil
}

func (m *Manager) readAll() ([]types.HistoryEntry, error) {
	f, err := os.Open(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot read history log %s", m.path)
	}
	defer f.Close()

	logger := logging.GetLogger("state")

	var entries []types.HistoryEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		entry, err := types.HistoryEntryFromJSONLine(line)
		if err != nil {
			logger.Warn().Err(err).Int("line", lineNo).Msg("Skipping corrupt history line")
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot read history log %s", m.path)
	}
	return entries, nil
}
