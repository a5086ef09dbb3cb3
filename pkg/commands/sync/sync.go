// Package sync implements the sync command: the full reconciliation
// pipeline from manifest bootstrap through package apply to filesystem
// cleanup.
package sync

import (
	"context"
	"fmt"

	"github.com/arthur-debert/popctl/pkg/commands/advisor"
	"github.com/arthur-debert/popctl/pkg/commands/apply"
	"github.com/arthur-debert/popctl/pkg/commands/fsclean"
	"github.com/arthur-debert/popctl/pkg/commands/initialize"
	"github.com/arthur-debert/popctl/pkg/config"
	"github.com/arthur-debert/popctl/pkg/logging"
	"github.com/arthur-debert/popctl/pkg/manifest"
	"github.com/arthur-debert/popctl/pkg/operators"
	"github.com/arthur-debert/popctl/pkg/scanners"
	"github.com/arthur-debert/popctl/pkg/types"
)

// SyncOptions contains options for the sync command.
type SyncOptions struct {
	// ManifestPath locates the manifest; required.
	ManifestPath string

	// HistoryPath locates the history log; required unless DryRun.
	HistoryPath string

	// SessionsDir is where advisor session workspaces live.
	SessionsDir string

	// Scanners supplies the scanners; defaults to the built-ins.
	Scanners *scanners.Registry

	// Operators supplies the operators; defaults to the built-ins,
	// honoring DryRun.
	Operators *operators.Registry

	// Config carries defaults (purge) and the advisor settings.
	Config *config.Config

	// NoAdvisor skips the agent classification phase.
	NoAdvisor bool

	// NoFilesystem skips the filesystem cleanup phase.
	NoFilesystem bool

	// DryRun threads through every phase: nothing is installed,
	// removed, deleted, or recorded.
	DryRun bool

	// SystemName seeds the manifest when sync has to bootstrap one.
	SystemName string

	// SystemInfo annotates the advisor scan export.
	SystemInfo map[string]string

	// ConfirmActions gates package execution. Nil means proceed.
	ConfirmActions func(planned []types.Action) bool

	// ConfirmDeletions gates filesystem cleanup. Nil means proceed.
	ConfirmDeletions func(planned []string) bool
}

// SyncResult is the outcome of a full sync run.
type SyncResult struct {
	// Initialized is set when sync bootstrapped a fresh manifest.
	Initialized bool

	// Init holds the bootstrap outcome when Initialized.
	Init *initialize.InitResult

	// AdvisorApplied holds the advisor phase outcome, when it ran and
	// produced decisions.
	AdvisorApplied *advisor.ApplyResult

	// Apply holds the package reconciliation outcome.
	Apply *apply.ApplyResult

	// Filesystem holds the cleanup phase outcome, when it ran.
	Filesystem *fsclean.FsCleanResult

	// Warnings collects non-fatal phase failures. Advisor and
	// filesystem trouble degrades the run; it never aborts it.
	Warnings []string

	DryRun bool
}

// Failed reports whether any package action or deletion failed.
func (r *SyncResult) Failed() bool {
	if r.Apply != nil && r.Apply.FailedCount() > 0 {
		return true
	}
	if r.Filesystem != nil && r.Filesystem.FailedCount() > 0 {
		return true
	}
	return false
}

// Sync runs the whole pipeline: bootstrap the manifest if absent, let
// the agent triage unknown packages, reconcile packages, then clean up
// orphaned user data. Only the package phase can fail the run.
func Sync(ctx context.Context, opts SyncOptions) (*SyncResult, error) {
	logger := logging.GetLogger("commands.sync")

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	result := &SyncResult{DryRun: opts.DryRun}

	// Phase 1: manifest bootstrap
	if !manifest.Exists(opts.ManifestPath) {
		logger.Info().Str("path", opts.ManifestPath).Msg("No manifest; bootstrapping from current system")
		initResult, err := initialize.Init(ctx, initialize.InitOptions{
			ManifestPath: opts.ManifestPath,
			Registry:     opts.Scanners,
			SystemName:   opts.SystemName,
			DryRun:       opts.DryRun,
		})
		if err != nil {
			return nil, err
		}
		result.Initialized = true
		result.Init = initResult
		if opts.DryRun {
			// Nothing was written; the rest of the pipeline has no
			// manifest to work from.
			return result, nil
		}
	}

	// Phase 2: agent triage of unknown packages
	if !opts.NoAdvisor {
		if err := runAdvisorPhase(ctx, opts, cfg, result); err != nil {
			warning := fmt.Sprintf("advisor phase skipped: %v", err)
			logger.Warn().Err(err).Msg("Advisor phase failed; continuing without it")
			result.Warnings = append(result.Warnings, warning)
		}
	}

	// Phase 3: package reconciliation
	applyResult, err := apply.Apply(ctx, apply.ApplyOptions{
		ManifestPath: opts.ManifestPath,
		HistoryPath:  opts.HistoryPath,
		Scanners:     opts.Scanners,
		Operators:    opts.Operators,
		Purge:        cfg.Defaults.Purge,
		DryRun:       opts.DryRun,
		Confirm:      opts.ConfirmActions,
	})
	if err != nil {
		return nil, err
	}
	result.Apply = applyResult
	if applyResult.Aborted {
		return result, nil
	}

	// Phase 4: filesystem cleanup
	if !opts.NoFilesystem {
		fsResult, err := fsclean.FsClean(ctx, fsclean.FsCleanOptions{
			ManifestPath: opts.ManifestPath,
			HistoryPath:  opts.HistoryPath,
			DryRun:       opts.DryRun,
			Confirm:      opts.ConfirmDeletions,
		})
		if err != nil {
			warning := fmt.Sprintf("filesystem phase skipped: %v", err)
			logger.Warn().Err(err).Msg("Filesystem phase failed; continuing")
			result.Warnings = append(result.Warnings, warning)
		} else {
			result.Filesystem = fsResult
		}
	}

	logger.Info().
		Bool("initialized", result.Initialized).
		Int("warnings", len(result.Warnings)).
		Bool("dry_run", opts.DryRun).
		Msg("Sync complete")

	return result, nil
}

// runAdvisorPhase classifies unknown packages headlessly and merges
// the decisions into the manifest. Any failure is reported to the
// caller as a warning; sync proceeds with the manifest as-is.
func runAdvisorPhase(ctx context.Context, opts SyncOptions, cfg *config.Config, result *SyncResult) error {
	classified, err := advisor.Classify(ctx, advisor.ClassifyOptions{
		SessionsDir:  opts.SessionsDir,
		ManifestPath: opts.ManifestPath,
		Registry:     opts.Scanners,
		Config:       cfg.Advisor,
		Auto:         true,
		SystemInfo:   opts.SystemInfo,
	})
	if err != nil {
		return err
	}

	applied, err := advisor.Apply(advisor.ApplyOptions{
		DecisionsPath: classified.DecisionsPath,
		ManifestPath:  opts.ManifestPath,
		HistoryPath:   opts.HistoryPath,
		DryRun:        opts.DryRun,
	})
	if err != nil {
		return err
	}
	result.AdvisorApplied = applied
	return nil
}
