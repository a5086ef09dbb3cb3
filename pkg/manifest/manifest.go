// Package manifest models the declared-state document: which packages
// should be present or absent, plus the filesystem paths the user has
// marked for cleanup. The manifest is the single source of truth for
// what should exist on the system.
package manifest

import (
	"time"

	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/types"
)

// SchemaVersion is the manifest schema version written on save.
const SchemaVersion = "1.0"

// EntryStatus is the declared state of a manifest entry.
type EntryStatus string

const (
	StatusKeep     EntryStatus = "keep"
	StatusRemove   EntryStatus = "remove"
	StatusOptional EntryStatus = "optional"
)

// Meta carries schema version and timestamps.
type Meta struct {
	Version string    `toml:"version"`
	Created time.Time `toml:"created"`
	Updated time.Time `toml:"updated"`
}

// System identifies the machine the manifest describes.
type System struct {
	Name        string `toml:"name"`
	Base        string `toml:"base"`
	Description string `toml:"description,omitempty"`
}

// Entry describes one tracked package.
type Entry struct {
	Source types.Source `toml:"source"`
	Status EntryStatus  `toml:"status,omitempty"`
	Reason string       `toml:"reason,omitempty"`
}

// Packages holds the keep and remove sets, keyed by package name.
type Packages struct {
	Keep   map[string]Entry `toml:"keep,omitempty"`
	Remove map[string]Entry `toml:"remove,omitempty"`
}

// PathEntry describes one tracked filesystem path.
type PathEntry struct {
	Reason   string `toml:"reason,omitempty"`
	Category string `toml:"category,omitempty"`
}

// Filesystem holds user-data paths tracked for cleanup, keyed by path.
type Filesystem struct {
	Keep   map[string]PathEntry `toml:"keep,omitempty"`
	Remove map[string]PathEntry `toml:"remove,omitempty"`
}

// Configs holds configuration paths (~/.config entries and shell
// dotfiles) tracked for cleanup, keyed by path.
type Configs struct {
	Keep   map[string]PathEntry `toml:"keep,omitempty"`
	Remove map[string]PathEntry `toml:"remove,omitempty"`
}

// Manifest is the complete declared system state.
type Manifest struct {
	Meta       Meta       `toml:"meta"`
	System     System     `toml:"system"`
	Packages   Packages   `toml:"packages"`
	Filesystem Filesystem `toml:"filesystem,omitempty"`
	Configs    Configs    `toml:"configs,omitempty"`
}

// New creates an empty manifest for the given machine.
func New(systemName string) *Manifest {
	now := time.Now().UTC()
	return &Manifest{
		Meta: Meta{
			Version: SchemaVersion,
			Created: now,
			Updated: now,
		},
		System: System{
			Name: systemName,
			Base: "pop-os-24.04",
		},
		Packages: Packages{
			Keep:   make(map[string]Entry),
			Remove: make(map[string]Entry),
		},
	}
}

// Validate checks the manifest invariants: every entry names a known
// source, and no package appears in both the keep and remove sets.
func (m *Manifest) Validate() error {
	for name, entry := range m.Packages.Keep {
		if !entry.Source.Valid() {
			return errors.Newf(errors.ErrManifestInvalid,
				"package %q has unknown source %q", name, entry.Source)
		}
		if _, dup := m.Packages.Remove[name]; dup {
			return errors.Newf(errors.ErrDuplicateEntry,
				"package %q appears in both keep and remove sets", name)
		}
	}
	for name, entry := range m.Packages.Remove {
		if !entry.Source.Valid() {
			return errors.Newf(errors.ErrManifestInvalid,
				"package %q has unknown source %q", name, entry.Source)
		}
	}
	for path := range m.Configs.Keep {
		if _, dup := m.Configs.Remove[path]; dup {
			return errors.Newf(errors.ErrDuplicateEntry,
				"config path %q appears in both keep and remove sets", path)
		}
	}
	return nil
}

// KeepPackages returns the keep set, optionally filtered by source.
// A nil filter returns every entry.
func (m *Manifest) KeepPackages(filter *types.Source) map[string]Entry {
	return filterEntries(m.Packages.Keep, filter)
}

// RemovePackages returns the remove set, optionally filtered by source.
func (m *Manifest) RemovePackages(filter *types.Source) map[string]Entry {
	return filterEntries(m.Packages.Remove, filter)
}

func filterEntries(entries map[string]Entry, filter *types.Source) map[string]Entry {
	if filter == nil {
		return entries
	}
	out := make(map[string]Entry)
	for name, entry := range entries {
		if entry.Source == *filter {
			out[name] = entry
		}
	}
	return out
}

// SetKeep adds or moves a package into the keep set.
func (m *Manifest) SetKeep(name string, entry Entry) {
	if m.Packages.Keep == nil {
		m.Packages.Keep = make(map[string]Entry)
	}
	entry.Status = StatusKeep
	delete(m.Packages.Remove, name)
	m.Packages.Keep[name] = entry
}

// SetRemove adds or moves a package into the remove set.
func (m *Manifest) SetRemove(name string, entry Entry) {
	if m.Packages.Remove == nil {
		m.Packages.Remove = make(map[string]Entry)
	}
	entry.Status = StatusRemove
	delete(m.Packages.Keep, name)
	m.Packages.Remove[name] = entry
}

// Touch bumps the updated timestamp.
func (m *Manifest) Touch() {
	m.Meta.Updated = time.Now().UTC()
}

// PackageCount returns the total number of tracked packages.
func (m *Manifest) PackageCount() int {
	return len(m.Packages.Keep) + len(m.Packages.Remove)
}

// FilesystemRemovePaths returns the paths marked for cleanup, sorted
// is left to callers; map iteration order is not stable.
func (m *Manifest) FilesystemRemovePaths() map[string]PathEntry {
	return m.Filesystem.Remove
}

// ConfigRemovePaths returns the config paths marked for cleanup.
func (m *Manifest) ConfigRemovePaths() map[string]PathEntry {
	return m.Configs.Remove
}
