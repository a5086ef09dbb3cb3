// Package types defines the core data model shared by the diff engine,
// the executor, and the history log: package sources, scanned packages,
// actions, and history entries.
package types

import (
	"github.com/arthur-debert/popctl/pkg/errors"
)

// Source identifies the package ecosystem that owns a package.
// It is a closed enumeration; every dispatch site switches over it
// exhaustively so that adding an ecosystem is a compile-time change.
type Source string

const (
	SourceApt     Source = "apt"
	SourceFlatpak Source = "flatpak"
	SourceSnap    Source = "snap"
)

// AllSources lists every known source in canonical order.
func AllSources() []Source {
	return []Source{SourceApt, SourceFlatpak, SourceSnap}
}

// ParseSource converts a string tag into a Source, failing for unknown tags.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceApt:
		return SourceApt, nil
	case SourceFlatpak:
		return SourceFlatpak, nil
	case SourceSnap:
		return SourceSnap, nil
	default:
		return "", errors.Newf(errors.ErrUnknownSource, "unknown package source %q", s)
	}
}

// String returns the canonical tag for the source.
func (s Source) String() string {
	return string(s)
}

// Valid reports whether the source is one of the known ecosystems.
func (s Source) Valid() bool {
	switch s {
	case SourceApt, SourceFlatpak, SourceSnap:
		return true
	default:
		return false
	}
}

// SupportsPurge reports whether the ecosystem has a destructive-uninstall
// variant that discards user configuration. Flatpak apps are self-contained
// and have no such concept.
func (s Source) SupportsPurge() bool {
	switch s {
	case SourceApt, SourceSnap:
		return true
	case SourceFlatpak:
		return false
	default:
		return false
	}
}
