package state_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/state"
	"github.com/arthur-debert/popctl/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *state.Manager {
	t.Helper()
	return state.NewManager(filepath.Join(t.TempDir(), "history.jsonl"))
}

func mustEntry(t *testing.T, kind types.HistoryKind, names ...string) types.HistoryEntry {
	t.Helper()
	items := make([]types.HistoryItem, 0, len(names))
	for _, name := range names {
		items = append(items, types.HistoryItem{Name: name, Source: types.SourceApt})
	}
	entry, err := types.NewHistoryEntry(kind, items, true, nil)
	require.NoError(t, err)
	return entry
}

func TestRecordAndHistory(t *testing.T) {
	mgr := newManager(t)

	first := mustEntry(t, types.HistoryRemove, "bloat")
	second := mustEntry(t, types.HistoryInstall, "vim")
	require.NoError(t, mgr.Record(first))
	require.NoError(t, mgr.Record(second))

	entries, err := mgr.History(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// newest first
	assert.Equal(t, second.ID, entries[0].ID)
	assert.Equal(t, first.ID, entries[1].ID)
}

func TestHistoryLimit(t *testing.T) {
	mgr := newManager(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, mgr.Record(mustEntry(t, types.HistoryInstall, "vim")))
	}

	entries, err := mgr.History(2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestHistoryEmptyLog(t *testing.T) {
	mgr := newManager(t)

	entries, err := mgr.History(0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHistorySkipsCorruptLines(t *testing.T) {
	mgr := newManager(t)

	good := mustEntry(t, types.HistoryRemove, "bloat")
	require.NoError(t, mgr.Record(good))

	// Inject garbage between valid records
	f, err := os.OpenFile(mgr.Path(), os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json at all\n\n{\"id\":\"\"}\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	other := mustEntry(t, types.HistoryInstall, "vim")
	require.NoError(t, mgr.Record(other))

	entries, err := mgr.History(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, other.ID, entries[0].ID)
	assert.Equal(t, good.ID, entries[1].ID)
}

func TestGet(t *testing.T) {
	mgr := newManager(t)
	entry := mustEntry(t, types.HistoryRemove, "bloat")
	require.NoError(t, mgr.Record(entry))

	found, err := mgr.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, found.ID)

	_, err = mgr.Get("nope")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}

func TestLastReversible(t *testing.T) {
	mgr := newManager(t)

	older := mustEntry(t, types.HistoryRemove, "bloat")
	newer := mustEntry(t, types.HistoryInstall, "vim")
	require.NoError(t, mgr.Record(older))
	require.NoError(t, mgr.Record(newer))

	last, err := mgr.LastReversible()
	require.NoError(t, err)
	assert.Equal(t, newer.ID, last.ID)
}

func TestLastReversibleSkipsIrreversible(t *testing.T) {
	mgr := newManager(t)

	reversible := mustEntry(t, types.HistoryRemove, "bloat")
	require.NoError(t, mgr.Record(reversible))

	fixed, err := types.NewHistoryEntry(types.HistoryFsDelete,
		[]types.HistoryItem{{Name: "/home/u/.cache/old", Source: types.SourceApt}}, false, nil)
	require.NoError(t, err)
	require.NoError(t, mgr.Record(fixed))

	last, err := mgr.LastReversible()
	require.NoError(t, err)
	assert.Equal(t, reversible.ID, last.ID)
}

func TestLastReversibleNothingLeft(t *testing.T) {
	mgr := newManager(t)

	_, err := mgr.LastReversible()
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}

func TestMarkReversed(t *testing.T) {
	mgr := newManager(t)

	original := mustEntry(t, types.HistoryRemove, "bloat", "other")
	require.NoError(t, mgr.Record(original))

	reversal, err := mgr.MarkReversed(original)
	require.NoError(t, err)

	// Reversal is the inverse kind, same items, not itself reversible
	assert.Equal(t, types.HistoryInstall, reversal.Kind)
	assert.Equal(t, original.Items, reversal.Items)
	assert.False(t, reversal.Reversible)
	assert.Equal(t, original.ID, reversal.Metadata[state.MetaReversedEntryID])
	assert.Equal(t, "remove", reversal.Metadata[state.MetaReversalOf])

	// The original is now exhausted
	_, err = mgr.LastReversible()
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))

	// The log still carries both entries: append-only, nothing rewritten
	data, err := os.ReadFile(mgr.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2)
}

func TestMarkReversedUnknownEntry(t *testing.T) {
	mgr := newManager(t)

	recorded := mustEntry(t, types.HistoryRemove, "bloat")
	require.NoError(t, mgr.Record(recorded))

	// An entry that was never recorded is refused, and the log stays
	// as it was.
	stranger := mustEntry(t, types.HistoryRemove, "htop")
	_, err := mgr.MarkReversed(stranger)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))

	entries, err := mgr.History(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, recorded.ID, entries[0].ID)
}

func TestMarkReversedPurgeBecomesInstall(t *testing.T) {
	mgr := newManager(t)

	original := mustEntry(t, types.HistoryPurge, "bloat")
	require.NoError(t, mgr.Record(original))

	reversal, err := mgr.MarkReversed(original)
	require.NoError(t, err)
	assert.Equal(t, types.HistoryInstall, reversal.Kind)
}
