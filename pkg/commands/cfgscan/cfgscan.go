// Package cfgscan implements the config scan command: find user
// configuration left behind by uninstalled applications.
package cfgscan

import (
	"context"
	"encoding/json"
	"os"

	"github.com/arthur-debert/popctl/pkg/configs"
	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/logging"
)

// CfgScanOptions contains options for the config scan command.
type CfgScanOptions struct {
	// Home overrides the home directory scanned.
	Home string

	// Limit caps the reported orphans; 0 means all. The export always
	// holds the full set.
	Limit int

	// ExportPath, when set, writes the full orphan list as JSON.
	ExportPath string
}

// CfgScanResult is the outcome of a config scan.
type CfgScanResult struct {
	// Orphans, sorted by confidence descending. Limited when Limit is
	// set.
	Orphans []configs.ScannedConfig

	// Total is the orphan count before any limit was applied.
	Total int

	// TotalSize is the combined size in bytes of all orphans.
	TotalSize int64
}

// CfgScan checks ~/.config and the shell dotfiles for configuration
// no installed package or app accounts for.
func CfgScan(ctx context.Context, opts CfgScanOptions) (*CfgScanResult, error) {
	logger := logging.GetLogger("commands.cfgscan")

	orphans := configs.NewScanner(configs.ScanOptions{Home: opts.Home}).Scan(ctx)
	configs.SortByConfidence(orphans)

	var totalSize int64
	for _, orphan := range orphans {
		totalSize += orphan.SizeBytes
	}

	result := &CfgScanResult{Orphans: orphans, Total: len(orphans), TotalSize: totalSize}

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

	logger.Info().Int("orphans", result.Total).Int64("bytes", totalSize).Msg("Config scan complete")
	return result, nil
}
