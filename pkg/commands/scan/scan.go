// Package scan implements the scan command: enumerate installed
// packages across all ecosystems.
package scan

import (
	"context"
	"sort"

	"github.com/arthur-debert/popctl/pkg/advisor"
	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/logging"
	"github.com/arthur-debert/popctl/pkg/scanners"
	"github.com/arthur-debert/popctl/pkg/types"
)

// ScanOptions contains options for the scan command.
type ScanOptions struct {
	// Registry supplies the scanners; defaults to the built-ins.
	Registry *scanners.Registry

	// Source restricts the scan to one ecosystem.
	Source *types.Source

	// ManualOnly drops auto-installed dependencies from the output.
	ManualOnly bool

	// Limit caps the returned packages; 0 means all.
	Limit int

	// ExportPath, when set, writes the scan-export JSON document to
	// this file for later advisor use.
	ExportPath string

	// SystemInfo annotates the export document.
	SystemInfo map[string]string
}

// ScanResult is the outcome of a scan.
type ScanResult struct {
	// Packages, sorted by (source, name). Limited when Limit is set.
	Packages []types.ScannedPackage

	// Total is the count before any limit was applied.
	Total int

	// Counts is the per-source breakdown (pre-limit).
	Counts map[types.Source]int
}

// Scan enumerates installed packages from every available scanner.
func Scan(ctx context.Context, opts ScanOptions) (*ScanResult, error) {
	logger := logging.GetLogger("commands.scan")

	reg := opts.Registry
	if reg == nil {
		reg = scanners.DefaultRegistry()
	}

	scannerList, err := reg.ForSources(opts.Source)
	if err != nil {
		return nil, err
	}

	var packages []types.ScannedPackage
	for _, s := range scannerList {
		if !s.Available() {
			logger.Debug().Str("source", s.Source().String()).Msg("Scanner unavailable, skipping")
			continue
		}
		scanned, err := s.Scan(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrScanFailed, "scanning %s packages failed", s.Source())
		}
		packages = append(packages, scanned...)
	}

	if opts.ManualOnly {
		kept := packages[:0]
		for _, pkg := range packages {
			if pkg.IsManual() {
				kept = append(kept, pkg)
			}
		}
		packages = kept
	}

	sort.Slice(packages, func(i, j int) bool {
		if packages[i].Source != packages[j].Source {
			return packages[i].Source < packages[j].Source
		}
		return packages[i].Name < packages[j].Name
	})

	counts := make(map[types.Source]int)
	for _, pkg := range packages {
		counts[pkg.Source]++
	}

	result := &ScanResult{Packages: packages, Total: len(packages), Counts: counts}

	if opts.ExportPath != "" {
		export := advisor.BuildScanExport(packages, opts.SystemInfo)
		if err := advisor.WriteScanExport(export, opts.ExportPath); err != nil {
			return nil, err
		}
	}

	if opts.Limit > 0 && len(result.Packages) > opts.Limit {
		result.Packages = result.Packages[:opts.Limit]
	}

	logger.Info().Int("count", result.Total).Msg("Scan complete")
	return result, nil
}
