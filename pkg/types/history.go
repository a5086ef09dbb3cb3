package types

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/google/uuid"
)

// HistoryKind is the operation class a history entry records.
type HistoryKind string

const (
	HistoryInstall      HistoryKind = "install"
	HistoryRemove       HistoryKind = "remove"
	HistoryPurge        HistoryKind = "purge"
	HistoryApply        HistoryKind = "apply"
	HistoryAdvisorApply HistoryKind = "advisor_apply"
	HistoryFsDelete     HistoryKind = "fs_delete"
	HistoryConfigDelete HistoryKind = "config_delete"
)

// ParseHistoryKind converts a string into a HistoryKind, failing for
// unknown values so corrupt log lines are detected on read.
func ParseHistoryKind(s string) (HistoryKind, error) {
	switch HistoryKind(s) {
	case HistoryInstall, HistoryRemove, HistoryPurge, HistoryApply, HistoryAdvisorApply,
		HistoryFsDelete, HistoryConfigDelete:
		return HistoryKind(s), nil
	default:
		return "", errors.Newf(errors.ErrHistoryInvalid, "unknown history kind %q", s)
	}
}

// InverseKind maps a history kind to the kind that undoes it.
// Re-installing after a purge cannot restore deleted configuration;
// that asymmetry is accepted. Batch markers map to themselves because
// they are not independently invertible.
func (k HistoryKind) InverseKind() HistoryKind {
	switch k {
	case HistoryInstall:
		return HistoryRemove
	case HistoryRemove:
		return HistoryInstall
	case HistoryPurge:
		return HistoryInstall
	case HistoryApply:
		return HistoryApply
	case HistoryAdvisorApply:
		return HistoryAdvisorApply
	case HistoryFsDelete:
		return HistoryFsDelete
	case HistoryConfigDelete:
		return HistoryConfigDelete
	default:
		return k
	}
}

// HistoryItem is a snapshot of one affected package at record time.
// It is decoupled from the manifest and scan state, both of which may
// drift after recording.
type HistoryItem struct {
	Name    string `json:"name"`
	Source  Source `json:"source"`
	Version string `json:"version,omitempty"`
}

// HistoryEntry is one immutable record in the append-only history log.
// Entries are never rewritten; undoing one is recorded as a new entry
// referencing the original via Metadata["reversed_entry_id"].
type HistoryEntry struct {
	ID         string            `json:"id"`
	Timestamp  string            `json:"timestamp"`
	Kind       HistoryKind       `json:"kind"`
	Items      []HistoryItem     `json:"items"`
	Reversible bool              `json:"reversible"`
	Success    bool              `json:"success"`
	Metadata   map[string]string `json:"metadata"`
}

// NewHistoryEntry constructs an entry with a fresh ID and the current
// UTC timestamp. Fails when items is empty.
func NewHistoryEntry(kind HistoryKind, items []HistoryItem, reversible bool, metadata map[string]string) (HistoryEntry, error) {
	if len(items) == 0 {
		return HistoryEntry{}, errors.New(errors.ErrHistoryInvalid, "history entry must have at least one item")
	}
	if metadata == nil {
		metadata = make(map[string]string)
	}
	return HistoryEntry{
		ID:         strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Kind:       kind,
		Items:      items,
		Reversible: reversible,
		Success:    true,
		Metadata:   metadata,
	}, nil
}

// Validate checks the invariants a well-formed entry must satisfy.
func (e HistoryEntry) Validate() error {
	if e.ID == "" {
		return errors.New(errors.ErrHistoryInvalid, "history entry ID cannot be empty")
	}
	if e.Timestamp == "" {
		return errors.New(errors.ErrHistoryInvalid, "history entry timestamp cannot be empty")
	}
	if len(e.Items) == 0 {
		return errors.New(errors.ErrHistoryInvalid, "history entry must have at least one item")
	}
	if _, err := ParseHistoryKind(string(e.Kind)); err != nil {
		return err
	}
	for _, item := range e.Items {
		if item.Name == "" {
			return errors.New(errors.ErrHistoryInvalid, "history item name cannot be empty")
		}
	}
	return nil
}

// ToJSONLine serializes the entry as one compact JSON object for the
// JSON Lines history file. No trailing newline.
func (e HistoryEntry) ToJSONLine() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrHistoryInvalid, "failed to serialize history entry")
	}
	return string(data), nil
}

// HistoryEntryFromJSONLine parses one history log line back into an
// entry, validating required fields. Unknown JSON fields are tolerated
// for forward compatibility.
func HistoryEntryFromJSONLine(line string) (HistoryEntry, error) {
	var entry HistoryEntry
	if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &entry); err != nil {
		return HistoryEntry{}, errors.Wrap(err, errors.ErrHistoryCorrupt, "malformed history line")
	}
	if entry.Metadata == nil {
		entry.Metadata = make(map[string]string)
	}
	if err := entry.Validate(); err != nil {
		return HistoryEntry{}, err
	}
	return entry, nil
}
