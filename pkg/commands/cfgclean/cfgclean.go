// Package cfgclean implements the config clean command: back up and
// delete the paths the manifest's config remove set names.
package cfgclean

import (
	"context"
	"sort"

	"github.com/arthur-debert/popctl/pkg/configs"
	"github.com/arthur-debert/popctl/pkg/logging"
	"github.com/arthur-debert/popctl/pkg/manifest"
	"github.com/arthur-debert/popctl/pkg/state"
)

// Command is the command string recorded with history entries.
const Command = "popctl config clean"

// CfgCleanOptions contains options for the config clean command.
type CfgCleanOptions struct {
	// ManifestPath locates the manifest; required.
	ManifestPath string

	// HistoryPath locates the history log; required unless DryRun.
	HistoryPath string

	// BackupDir is where deletion backups are collected; required
	// unless DryRun.
	BackupDir string

	// DryRun reports what would be deleted without touching anything.
	DryRun bool

	// Confirm is called with the deletion plan before anything runs;
	// returning false aborts. Nil means proceed.
	Confirm func(planned []string) bool
}

// CfgCleanResult is the outcome of a config cleanup run.
type CfgCleanResult struct {
	// Planned lists the paths slated for deletion, sorted.
	Planned []string

	// SkippedProtected lists manifest paths refused by the protection
	// rules, sorted.
	SkippedProtected []string

	// Results holds one entry per attempted deletion.
	Results []configs.DeleteResult

	// Aborted is set when the confirmation callback declined.
	Aborted bool

	DryRun bool
}

// Deleted returns the successfully removed paths.
func (r *CfgCleanResult) Deleted() []string {
	var out []string
	for _, result := range r.Results {
		if result.Success && !result.DryRun {
			out = append(out, result.Path)
		}
	}
	return out
}

// FailedCount returns the number of failed deletions.
func (r *CfgCleanResult) FailedCount() int {
	failed := 0
	for _, result := range r.Results {
		if !result.Success {
			failed++
		}
	}
	return failed
}

// CfgClean deletes every path in the manifest's config remove set,
// backing each one up first. Protected paths are dropped from the
// plan up front; a path that fails to delete never blocks its
// siblings.
func CfgClean(ctx context.Context, opts CfgCleanOptions) (*CfgCleanResult, error) {
	logger := logging.GetLogger("commands.cfgclean")

	m, err := manifest.Require(opts.ManifestPath)
	if err != nil {
		return nil, err
	}

	result := &CfgCleanResult{DryRun: opts.DryRun}

	for path := range m.ConfigRemovePaths() {
		if configs.IsProtectedConfig(path) {
			logger.Warn().Str("path", path).Msg("Refusing to delete protected config")
			result.SkippedProtected = append(result.SkippedProtected, path)
			continue
		}
		result.Planned = append(result.Planned, path)
	}
	sort.Strings(result.Planned)
	sort.Strings(result.SkippedProtected)

	if len(result.Planned) == 0 {
		logger.Info().Msg("No config paths marked for cleanup")
		return result, nil
	}

	if opts.Confirm != nil && !opts.Confirm(result.Planned) {
		result.Aborted = true
		logger.Info().Msg("Cleanup aborted by user")
		return result, nil
	}

	result.Results = configs.NewOperator(opts.DryRun, opts.BackupDir).Delete(result.Planned)

	if !opts.DryRun {
		if deleted := result.Deleted(); len(deleted) > 0 {
			mgr := state.NewManager(opts.HistoryPath)
			if err := configs.RecordDeletions(mgr, deleted, Command); err != nil {
				logger.Warn().Err(err).Msg("Cannot record config deletions")
			}
		}
	}

	logger.Info().
		Int("planned", len(result.Planned)).
		Int("failed", result.FailedCount()).
		Bool("dry_run", opts.DryRun).
		Msg("Config cleanup complete")

	return result, nil
}
