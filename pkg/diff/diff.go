// Package diff computes the three-way difference between the manifest
// and the packages actually installed on the system.
package diff

import (
	"context"
	"sort"

	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/logging"
	"github.com/arthur-debert/popctl/pkg/manifest"
	"github.com/arthur-debert/popctl/pkg/protect"
	"github.com/arthur-debert/popctl/pkg/scanners"
	"github.com/arthur-debert/popctl/pkg/types"
)

// Kind classifies one difference between manifest and system state.
type Kind string

const (
	// KindNew: installed on the system, absent from both manifest sets.
	KindNew Kind = "new"

	// KindMissing: in the keep set but not installed.
	KindMissing Kind = "missing"

	// KindExtra: in the remove set but still installed.
	KindExtra Kind = "extra"
)

// Entry is a single difference. Entries are transient values, produced
// fresh on every computation and never persisted.
type Entry struct {
	Name        string       `json:"name"`
	Source      types.Source `json:"source"`
	Kind        Kind         `json:"kind"`
	Version     string       `json:"version,omitempty"`
	Description string       `json:"description,omitempty"`
}

// Result holds the three difference categories, each sorted by
// (source, name) for deterministic output.
type Result struct {
	New     []Entry `json:"new"`
	Missing []Entry `json:"missing"`
	Extra   []Entry `json:"extra"`
}

// InSync reports whether the system matches the manifest.
func (r Result) InSync() bool {
	return len(r.New) == 0 && len(r.Missing) == 0 && len(r.Extra) == 0
}

// TotalChanges is the number of differences across all categories.
func (r Result) TotalChanges() int {
	return len(r.New) + len(r.Missing) + len(r.Extra)
}

// Engine compares a manifest against scanner output.
type Engine struct {
	manifest *manifest.Manifest
}

// NewEngine creates a diff engine for one manifest.
func NewEngine(m *manifest.Manifest) *Engine {
	return &Engine{manifest: m}
}

// Compute scans the system and diffs it against the manifest.
//
// Only manually installed packages participate; auto-installed
// dependencies and protected names are excluded from every category.
// An unknown source filter is a configuration error; a scanner
// transport failure aborts the computation.
func (e *Engine) Compute(ctx context.Context, reg *scanners.Registry, sourceFilter *types.Source) (Result, error) {
	logger := logging.GetLogger("diff")

	scannerList, err := reg.ForSources(sourceFilter)
	if err != nil {
		return Result{}, err
	}

	type installedInfo struct {
		source      types.Source
		version     string
		description string
	}
	installed := make(map[string]installedInfo)

	for _, scanner := range scannerList {
		if !scanner.Available() {
			logger.Debug().Str("source", scanner.Source().String()).Msg("Scanner unavailable, skipping")
			continue
		}

		packages, err := scanner.Scan(ctx)
		if err != nil {
			return Result{}, errors.Wrapf(err, errors.ErrScanFailed,
				"scanning %s packages failed", scanner.Source())
		}

		for _, pkg := range packages {
			if !pkg.IsManual() {
				continue
			}
			if protect.IsProtected(pkg.Name) {
				continue
			}
			installed[pkg.Name] = installedInfo{
				source:      pkg.Source,
				version:     pkg.Version,
				description: pkg.Description,
			}
		}
	}

	keep := e.manifest.KeepPackages(sourceFilter)
	remove := e.manifest.RemovePackages(sourceFilter)

	var result Result

	// NEW: installed but not tracked in the manifest
	for name, info := range installed {
		_, inKeep := keep[name]
		_, inRemove := remove[name]
		if inKeep || inRemove {
			continue
		}
		result.New = append(result.New, Entry{
			Name:        name,
			Source:      info.source,
			Kind:        KindNew,
			Version:     info.version,
			Description: info.description,
		})
	}

	// MISSING: in keep set but not installed. Optional entries are
	// tracked but carry no install obligation.
	for name, entry := range keep {
		if entry.Status == manifest.StatusOptional {
			continue
		}
		if _, ok := installed[name]; ok {
			continue
		}
		if protect.IsProtected(name) {
			continue
		}
		result.Missing = append(result.Missing, Entry{
			Name:   name,
			Source: entry.Source,
			Kind:   KindMissing,
		})
	}

	// EXTRA: in remove set and still installed
	for name, entry := range remove {
		if entry.Status == manifest.StatusOptional {
			continue
		}
		info, ok := installed[name]
		if !ok {
			continue
		}
		result.Extra = append(result.Extra, Entry{
			Name:        name,
			Source:      info.source,
			Kind:        KindExtra,
			Version:     info.version,
			Description: info.description,
		})
	}

	sortEntries(result.New)
	sortEntries(result.Missing)
	sortEntries(result.Extra)

	logger.Debug().
		Int("new", len(result.New)).
		Int("missing", len(result.Missing)).
		Int("extra", len(result.Extra)).
		Msg("Diff computed")

	return result, nil
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Source != entries[j].Source {
			return entries[i].Source < entries[j].Source
		}
		return entries[i].Name < entries[j].Name
	})
}
