// Package apply implements the apply command: diff the system against
// the manifest, translate the differences into actions, and execute
// them.
package apply

import (
	"context"

	"github.com/arthur-debert/popctl/pkg/actions"
	"github.com/arthur-debert/popctl/pkg/diff"
	"github.com/arthur-debert/popctl/pkg/executor"
	"github.com/arthur-debert/popctl/pkg/logging"
	"github.com/arthur-debert/popctl/pkg/manifest"
	"github.com/arthur-debert/popctl/pkg/operators"
	"github.com/arthur-debert/popctl/pkg/scanners"
	"github.com/arthur-debert/popctl/pkg/state"
	"github.com/arthur-debert/popctl/pkg/types"
)

// Command is the command string recorded with history entries.
const Command = "popctl apply"

// ApplyOptions contains options for the apply command.
type ApplyOptions struct {
	// ManifestPath locates the manifest; required.
	ManifestPath string

	// HistoryPath locates the history log; required unless DryRun.
	HistoryPath string

	// Scanners supplies the scanners; defaults to the built-ins.
	Scanners *scanners.Registry

	// Operators supplies the operators; defaults to the built-ins,
	// honoring DryRun.
	Operators *operators.Registry

	// Source restricts the run to one ecosystem.
	Source *types.Source

	// Purge upgrades removals to purges where the ecosystem supports it.
	Purge bool

	// DryRun reports what would happen without touching the system or
	// the history log.
	DryRun bool

	// Confirm is called with the planned actions before execution;
	// returning false aborts. Nil means proceed.
	Confirm func(planned []types.Action) bool
}

// ApplyResult is the outcome of an apply run.
type ApplyResult struct {
	// Diff is the computed difference the actions were derived from.
	Diff diff.Result

	// Actions is the executed (or planned, when aborted) set.
	Actions []types.Action

	// Results holds one entry per executed action. Empty when aborted
	// or when the system was already in sync.
	Results []types.ActionResult

	// Recorded lists the history entries written for the run.
	Recorded []types.HistoryEntry

	// Aborted is set when the confirmation callback declined.
	Aborted bool

	DryRun bool
}

// InSync reports whether there was nothing to do.
func (r *ApplyResult) InSync() bool {
	return r.Diff.InSync()
}

// FailedCount returns the number of failed actions.
func (r *ApplyResult) FailedCount() int {
	failed := 0
	for _, result := range r.Results {
		if !result.Success {
			failed++
		}
	}
	return failed
}

// Apply reconciles the system with the manifest.
func Apply(ctx context.Context, opts ApplyOptions) (*ApplyResult, error) {
	logger := logging.GetLogger("commands.apply")

	m, err := manifest.Require(opts.ManifestPath)
	if err != nil {
		return nil, err
	}

	scanReg := opts.Scanners
	if scanReg == nil {
		scanReg = scanners.DefaultRegistry()
	}

	diffResult, err := diff.NewEngine(m).Compute(ctx, scanReg, opts.Source)
	if err != nil {
		return nil, err
	}

	result := &ApplyResult{Diff: diffResult, DryRun: opts.DryRun}

	planned := actions.FromDiff(diffResult, opts.Purge)
	result.Actions = planned
	if len(planned) == 0 {
		logger.Info().Int("new", len(diffResult.New)).Msg("Nothing to apply")
		return result, nil
	}

	if opts.Confirm != nil && !opts.Confirm(planned) {
		result.Aborted = true
		logger.Info().Msg("Apply aborted by user")
		return result, nil
	}

	opReg := opts.Operators
	if opReg == nil {
		opReg = operators.DefaultRegistry(opts.DryRun)
	}

	results, err := executor.New(opReg).Execute(ctx, planned)
	if err != nil {
		return nil, err
	}
	result.Results = results

	if !opts.DryRun {
		mgr := state.NewManager(opts.HistoryPath)
		result.Recorded = executor.RecordResults(mgr, results, Command)
	}

	logger.Info().
		Int("actions", len(planned)).
		Int("failed", result.FailedCount()).
		Bool("dry_run", opts.DryRun).
		Msg("Apply complete")

	return result, nil
}
