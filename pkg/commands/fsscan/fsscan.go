// Package fsscan implements the fsscan command: find orphaned user
// data left behind by removed applications.
package fsscan

import (
	"context"
	"encoding/json"
	"os"

	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/filesystem"
	"github.com/arthur-debert/popctl/pkg/logging"
)

// FsScanOptions contains options for the fsscan command.
type FsScanOptions struct {
	// IncludeFiles scans loose files, not just directories.
	IncludeFiles bool

	// IncludeEtc adds /etc to the scan targets.
	IncludeEtc bool

	// Targets overrides the default scan locations.
	Targets []string

	// Limit caps the reported orphans; 0 means all. The export always
	// holds the full set.
	Limit int

	// ExportPath, when set, writes the full orphan list as JSON.
	ExportPath string
}

// FsScanResult is the outcome of a filesystem scan.
type FsScanResult struct {
	// Orphans, sorted by confidence descending. Limited when Limit is
	// set.
	Orphans []filesystem.ScannedPath

	// Total is the orphan count before any limit was applied.
	Total int

	// TotalSize is the combined size in bytes of all orphans.
	TotalSize int64
}

// FsScan walks the user-data targets and reports paths no installed
// package accounts for.
func FsScan(ctx context.Context, opts FsScanOptions) (*FsScanResult, error) {
	logger := logging.GetLogger("commands.fsscan")

	scanner := filesystem.NewScanner(filesystem.ScanOptions{
		IncludeFiles: opts.IncludeFiles,
		IncludeEtc:   opts.IncludeEtc,
		Targets:      opts.Targets,
	})

	orphans := scanner.Scan(ctx)
	filesystem.SortByConfidence(orphans)

	var totalSize int64
	for _, orphan := range orphans {
		totalSize += orphan.SizeBytes
	}

	result := &FsScanResult{Orphans: orphans, Total: len(orphans), TotalSize: totalSize}

	if opts.ExportPath != "" {
		data, err := json.MarshalIndent(orphans, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrInternal, "cannot serialize orphan list")
		}
		if err := os.WriteFile(opts.ExportPath, append(data, '\n'), 0644); err != nil {
			return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot write export %s", opts.ExportPath)
		}
	}

	if opts.Limit > 0 && len(result.Orphans) > opts.Limit {
		result.Orphans = result.Orphans[:opts.Limit]
	}

	logger.Info().Int("orphans", result.Total).Int64("bytes", totalSize).Msg("Filesystem scan complete")
	return result, nil
}
