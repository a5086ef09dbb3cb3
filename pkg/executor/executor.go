// Package executor dispatches actions to the per-ecosystem operators
// and records the outcome in the history log.
package executor

import (
	"context"

	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/logging"
	"github.com/arthur-debert/popctl/pkg/operators"
	"github.com/arthur-debert/popctl/pkg/state"
	"github.com/arthur-debert/popctl/pkg/types"
)

// Executor routes actions to operators, batching per ecosystem.
type Executor struct {
	registry *operators.Registry
}

// New creates an executor over the given operator registry.
func New(registry *operators.Registry) *Executor {
	return &Executor{registry: registry}
}

// Execute runs all actions, grouped per source in a stable order:
// installs first, then removals, then purges. Before touching anything
// it verifies an operator exists for every referenced source, so a
// half-configured run never starts.
func (e *Executor) Execute(ctx context.Context, actions []types.Action) ([]types.ActionResult, error) {
	logger := logging.GetLogger("executor")

	if len(actions) == 0 {
		return nil, nil
	}

	grouped := make(map[types.Source][]types.Action)
	for _, action := range actions {
		grouped[action.Source] = append(grouped[action.Source], action)
	}
	for source := range grouped {
		if _, err := e.registry.Get(source); err != nil {
			return nil, err
		}
	}

	var results []types.ActionResult
	for _, source := range types.AllSources() {
		sourceActions, ok := grouped[source]
		if !ok {
			continue
		}

		op, err := e.registry.Get(source)
		if err != nil {
			return results, err
		}
		if !op.Available() {
			for _, action := range sourceActions {
				results = append(results, types.FailureResult(action,
					errors.Newf(errors.ErrUnavailable, "%s is not available on this system", source)))
			}
			continue
		}

		results = append(results, e.runKind(ctx, op, sourceActions, types.ActionInstall)...)
		results = append(results, e.runKind(ctx, op, sourceActions, types.ActionRemove)...)
		results = append(results, e.runKind(ctx, op, sourceActions, types.ActionPurge)...)
	}

	logger.Info().Int("actions", len(actions)).Int("results", len(results)).Msg("Execution complete")
	return results, nil
}

func (e *Executor) runKind(ctx context.Context, op operators.Operator, actions []types.Action, kind types.ActionKind) []types.ActionResult {
	byName := make(map[string]types.Action)
	var names []string
	for _, action := range actions {
		if action.Kind != kind {
			continue
		}
		byName[action.Package] = action
		names = append(names, action.Package)
	}
	if len(names) == 0 {
		return nil
	}

	var pkgResults []operators.PackageResult
	switch kind {
	case types.ActionInstall:
		pkgResults = op.Install(ctx, names)
	case types.ActionRemove:
		pkgResults = op.Remove(ctx, names, false)
	case types.ActionPurge:
		pkgResults = op.Remove(ctx, names, true)
	}

	out := make([]types.ActionResult, 0, len(pkgResults))
	for _, pr := range pkgResults {
		action, ok := byName[pr.Package]
		if !ok {
			continue
		}
		if pr.Success {
			out = append(out, types.SuccessResult(action, pr.Message))
		} else {
			out = append(out, types.FailureResult(action, pr.Err))
		}
	}
	return out
}

// RecordResults persists the successful part of an execution as
// history entries, one per action kind. Recording failure is logged
// but never fails the run: the package operations already happened and
// must be reported to the user regardless.
func RecordResults(mgr *state.Manager, results []types.ActionResult, command string) []types.HistoryEntry {
	logger := logging.GetLogger("executor")

	byKind := make(map[types.ActionKind][]types.HistoryItem)
	for _, result := range results {
		if !result.Success {
			continue
		}
		byKind[result.Action.Kind] = append(byKind[result.Action.Kind], types.HistoryItem{
			Name:   result.Action.Package,
			Source: result.Action.Source,
		})
	}

	historyKinds := map[types.ActionKind]types.HistoryKind{
		types.ActionInstall: types.HistoryInstall,
		types.ActionRemove:  types.HistoryRemove,
		types.ActionPurge:   types.HistoryPurge,
	}

	var recorded []types.HistoryEntry
	for _, kind := range []types.ActionKind{types.ActionInstall, types.ActionRemove, types.ActionPurge} {
		items, ok := byKind[kind]
		if !ok {
			continue
		}
		entry, err := types.NewHistoryEntry(historyKinds[kind], items, true,
			map[string]string{"command": command})
		if err != nil {
			logger.Warn().Err(err).Msg("Cannot build history entry")
			continue
		}
		if err := mgr.Record(entry); err != nil {
			logger.Warn().Err(err).Msg("Cannot record history entry")
			continue
		}
		recorded = append(recorded, entry)
	}
	return recorded
}
