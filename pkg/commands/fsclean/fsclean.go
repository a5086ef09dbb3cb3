// Package fsclean implements the fsclean command: delete the paths the
// manifest marks for filesystem cleanup.
package fsclean

import (
	"context"
	"sort"

	"github.com/arthur-debert/popctl/pkg/filesystem"
	"github.com/arthur-debert/popctl/pkg/logging"
	"github.com/arthur-debert/popctl/pkg/manifest"
	"github.com/arthur-debert/popctl/pkg/state"
)

// Command is the command string recorded with history entries.
const Command = "popctl fs clean"

// FsCleanOptions contains options for the fsclean command.
type FsCleanOptions struct {
	// ManifestPath locates the manifest; required.
	ManifestPath string

	// HistoryPath locates the history log; required unless DryRun.
	HistoryPath string

	// DryRun reports what would be deleted without touching anything.
	DryRun bool

	// Confirm is called with the deletion plan before anything runs;
	// returning false aborts. Nil means proceed.
	Confirm func(planned []string) bool
}

// FsCleanResult is the outcome of a cleanup run.
type FsCleanResult struct {
	// Planned lists the paths slated for deletion, sorted.
	Planned []string

	// SkippedProtected lists manifest paths refused by the protection
	// rules, sorted.
	SkippedProtected []string

	// Results holds one entry per attempted deletion.
	Results []filesystem.DeleteResult

	// Aborted is set when the confirmation callback declined.
	Aborted bool

	DryRun bool
}

// Deleted returns the successfully removed paths.
func (r *FsCleanResult) Deleted() []string {
	var out []string
	for _, result := range r.Results {
		if result.Success && !result.DryRun {
			out = append(out, result.Path)
		}
	}
	return out
}

// FailedCount returns the number of failed deletions.
func (r *FsCleanResult) FailedCount() int {
	failed := 0
	for _, result := range r.Results {
		if !result.Success {
			failed++
		}
	}
	return failed
}

// FsClean deletes every path in the manifest's filesystem remove set.
// Protected paths are dropped from the plan up front; a path that
// fails to delete never blocks its siblings.
func FsClean(ctx context.Context, opts FsCleanOptions) (*FsCleanResult, error) {
	logger := logging.GetLogger("commands.fsclean")

	m, err := manifest.Require(opts.ManifestPath)
	if err != nil {
		return nil, err
	}

	result := &FsCleanResult{DryRun: opts.DryRun}

	for path := range m.FilesystemRemovePaths() {
		if filesystem.IsProtectedPath(path) {
			logger.Warn().Str("path", path).Msg("Refusing to delete protected path")
			result.SkippedProtected = append(result.SkippedProtected, path)
			continue
		}
		result.Planned = append(result.Planned, path)
	}
	sort.Strings(result.Planned)
	sort.Strings(result.SkippedProtected)

	if len(result.Planned) == 0 {
		logger.Info().Msg("No filesystem paths marked for cleanup")
		return result, nil
	}

	if opts.Confirm != nil && !opts.Confirm(result.Planned) {
		result.Aborted = true
		logger.Info().Msg("Cleanup aborted by user")
		return result, nil
	}

	result.Results = filesystem.NewOperator(opts.DryRun).Delete(ctx, result.Planned)

	if !opts.DryRun {
		if deleted := result.Deleted(); len(deleted) > 0 {
			mgr := state.NewManager(opts.HistoryPath)
			if err := filesystem.RecordDeletions(mgr, deleted, Command); err != nil {
				logger.Warn().Err(err).Msg("Cannot record filesystem deletions")
			}
		}
	}

	logger.Info().
		Int("planned", len(result.Planned)).
		Int("failed", result.FailedCount()).
		Bool("dry_run", opts.DryRun).
		Msg("Filesystem cleanup complete")

	return result, nil
}
