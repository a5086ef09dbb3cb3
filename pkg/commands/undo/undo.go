// Package undo implements the undo command: reverse the most recent
// reversible history entry by running its inverse operations.
package undo

import (
	"context"

	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/executor"
	"github.com/arthur-debert/popctl/pkg/logging"
	"github.com/arthur-debert/popctl/pkg/operators"
	"github.com/arthur-debert/popctl/pkg/protect"
	"github.com/arthur-debert/popctl/pkg/state"
	"github.com/arthur-debert/popctl/pkg/types"
)

// UndoOptions contains options for the undo command.
type UndoOptions struct {
	// HistoryPath locates the history log; required.
	HistoryPath string

	// Operators supplies the operators; defaults to the built-ins,
	// honoring DryRun.
	Operators *operators.Registry

	// DryRun reports what would happen without touching the system or
	// the history log.
	DryRun bool

	// Confirm is called with the entry about to be reversed; returning
	// false aborts. Nil means proceed.
	Confirm func(entry types.HistoryEntry) bool
}

// UndoResult is the outcome of an undo run.
type UndoResult struct {
	// NothingToUndo is set when no reversible entry exists. That is a
	// clean outcome, not an error.
	NothingToUndo bool

	// Entry is the history entry being reversed.
	Entry *types.HistoryEntry

	// Actions is the inverse operation set derived from the entry.
	Actions []types.Action

	// SkippedProtected lists packages whose inverse removal was refused.
	SkippedProtected []string

	// Results holds one entry per executed action.
	Results []types.ActionResult

	// Reversed is set once the entry has been marked reversed, which
	// happens only when every action succeeded.
	Reversed bool

	// Reversal is the new history entry recording the undo.
	Reversal *types.HistoryEntry

	// Aborted is set when the confirmation callback declined.
	Aborted bool

	DryRun bool
}

// FailedCount returns the number of failed actions.
func (r *UndoResult) FailedCount() int {
	failed := 0
	for _, result := range r.Results {
		if !result.Success {
			failed++
		}
	}
	return failed
}

// Undo reverses the newest reversible entry in the history log. The
// entry is marked reversed only when every inverse action succeeded;
// a partial failure leaves it eligible for a retry.
func Undo(ctx context.Context, opts UndoOptions) (*UndoResult, error) {
	logger := logging.GetLogger("commands.undo")

	mgr := state.NewManager(opts.HistoryPath)

	entry, err := mgr.LastReversible()
	if err != nil {
		if errors.IsErrorCode(err, errors.ErrNotFound) {
			logger.Info().Msg("Nothing to undo")
			return &UndoResult{NothingToUndo: true, DryRun: opts.DryRun}, nil
		}
		return nil, err
	}

	result := &UndoResult{Entry: &entry, DryRun: opts.DryRun}

	inverseKind, err := actionKindFor(entry.Kind.InverseKind())
	if err != nil {
		return nil, err
	}

	for _, item := range entry.Items {
		// Undoing an install means removing; that direction gets the
		// same protected-package guard as a forward removal.
		if inverseKind != types.ActionInstall && protect.IsProtected(item.Name) {
			logger.Warn().Str("package", item.Name).Msg("Refusing to remove protected package during undo")
			result.SkippedProtected = append(result.SkippedProtected, item.Name)
			continue
		}
		action, err := types.NewAction(inverseKind, item.Name, item.Source,
			"reversing history entry "+entry.ID)
		if err != nil {
			logger.Warn().Err(err).Str("package", item.Name).Msg("Skipping invalid history item")
			continue
		}
		result.Actions = append(result.Actions, action)
	}

	if len(result.Actions) == 0 {
		logger.Info().Str("id", entry.ID).Msg("No reversible actions remain for entry")
		return result, nil
	}

	if opts.Confirm != nil && !opts.Confirm(entry) {
		result.Aborted = true
		logger.Info().Msg("Undo aborted by user")
		return result, nil
	}

	opReg := opts.Operators
	if opReg == nil {
		opReg = operators.DefaultRegistry(opts.DryRun)
	}

	results, err := executor.New(opReg).Execute(ctx, result.Actions)
	if err != nil {
		return nil, err
	}
	result.Results = results

	if opts.DryRun {
		return result, nil
	}

	if result.FailedCount() > 0 {
		logger.Warn().
			Str("id", entry.ID).
			Int("failed", result.FailedCount()).
			Msg("Undo partially failed; entry left eligible for retry")
		return result, nil
	}

	reversal, err := mgr.MarkReversed(entry)
	if err != nil {
		return nil, err
	}
	result.Reversed = true
	result.Reversal = &reversal

	logger.Info().Str("id", entry.ID).Str("reversal", reversal.ID).Msg("Entry reversed")
	return result, nil
}

// actionKindFor maps an inverse history kind onto the executable
// action kind. Audit-only kinds cannot be undone by running packages
// operations and are rejected upstream by LastReversible.
func actionKindFor(kind types.HistoryKind) (types.ActionKind, error) {
	switch kind {
	case types.HistoryInstall:
		return types.ActionInstall, nil
	case types.HistoryRemove:
		return types.ActionRemove, nil
	case types.HistoryPurge:
		return types.ActionPurge, nil
	default:
		return "", errors.Newf(errors.ErrHistoryInvalid, "history kind %q cannot be undone", kind)
	}
}
