// Package advisor glues popctl to external AI CLI agents that help
// classify unknown packages into keep/remove decisions. Communication
// is file-based: popctl writes a scan export, the agent writes a
// decisions document back.
package advisor

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/types"
)

// ScanEntry is one package in the scan export.
type ScanEntry struct {
	Name        string `json:"name"`
	Source      string `json:"source"`
	Version     string `json:"version"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
	SizeBytes   int64  `json:"size_bytes,omitempty"`
}

// ScanExport is the scan.json document handed to the agent.
type ScanExport struct {
	ScanDate string                 `json:"scan_date"`
	System   map[string]string      `json:"system"`
	Summary  map[string]int         `json:"summary"`
	Packages map[string][]ScanEntry `json:"packages"`
}

// BuildScanExport assembles the export document from scanned
// packages. Every package lands in the "unknown" group for the agent
// to triage.
func BuildScanExport(packages []types.ScannedPackage, system map[string]string) ScanExport {
	entries := make([]ScanEntry, 0, len(packages))
	summary := map[string]int{
		"total_packages": len(packages),
		"manual_apt":     0,
		"auto_apt":       0,
		"flatpak":        0,
		"snap":           0,
	}

	for _, pkg := range packages {
		entries = append(entries, ScanEntry{
			Name:        pkg.Name,
			Source:      pkg.Source.String(),
			Version:     pkg.Version,
			Status:      string(pkg.Status),
			Description: pkg.Description,
			SizeBytes:   pkg.SizeBytes,
		})
		switch pkg.Source {
		case types.SourceApt:
			if pkg.IsManual() {
				summary["manual_apt"]++
			} else {
				summary["auto_apt"]++
			}
		case types.SourceFlatpak:
			summary["flatpak"]++
		case types.SourceSnap:
			summary["snap"]++
		}
	}
	summary["unknown"] = len(entries)

	return ScanExport{
		ScanDate: time.Now().UTC().Format(time.RFC3339),
		System:   system,
		Summary:  summary,
		Packages: map[string][]ScanEntry{
			"unknown":            entries,
			"new_since_manifest": {},
		},
	}
}

// WriteScanExport writes the export as indented JSON.
func WriteScanExport(export ScanExport, path string) error {
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "cannot serialize scan export")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot write scan export to %s", path)
	}
	return nil
}

// Decision is one package classification from the agent.
type Decision struct {
	Name       string  `toml:"name"`
	Reason     string  `toml:"reason"`
	Confidence float64 `toml:"confidence"`
	Category   string  `toml:"category"`
}

// SourceDecisions groups decisions for one ecosystem.
type SourceDecisions struct {
	Keep   []Decision `toml:"keep,omitempty"`
	Remove []Decision `toml:"remove,omitempty"`
	Ask    []Decision `toml:"ask,omitempty"`
}

// Decisions is the parsed decisions.toml document.
type Decisions struct {
	Packages map[string]SourceDecisions `toml:"packages"`
}

// ImportDecisions reads and validates an agent's decisions document.
func ImportDecisions(path string) (*Decisions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrNotFound, "decisions file not found at %s", path)
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot read decisions from %s", path)
	}

	var decisions Decisions
	if err := toml.Unmarshal(data, &decisions); err != nil {
		return nil, errors.Wrap(err, errors.ErrAdvisorDecisions, "decisions document is not valid TOML")
	}
	if err := decisions.validate(); err != nil {
		return nil, err
	}
	return &decisions, nil
}

func (d *Decisions) validate() error {
	if d.Packages == nil {
		return errors.New(errors.ErrAdvisorDecisions, "decisions document has no packages section")
	}
	for source, sd := range d.Packages {
		if _, err := types.ParseSource(source); err != nil {
			return errors.Newf(errors.ErrAdvisorDecisions, "decisions reference unknown source %q", source)
		}
		for _, list := range [][]Decision{sd.Keep, sd.Remove, sd.Ask} {
			for _, dec := range list {
				if dec.Name == "" {
					return errors.New(errors.ErrAdvisorDecisions, "decision with empty package name")
				}
				if dec.Confidence < 0 || dec.Confidence > 1 {
					return errors.Newf(errors.ErrAdvisorDecisions,
						"decision for %q has confidence %g outside [0,1]", dec.Name, dec.Confidence)
				}
			}
		}
	}
	return nil
}
