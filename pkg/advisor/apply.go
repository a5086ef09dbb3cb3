package advisor

import (
	"github.com/arthur-debert/popctl/pkg/logging"
	"github.com/arthur-debert/popctl/pkg/manifest"
	"github.com/arthur-debert/popctl/pkg/state"
	"github.com/arthur-debert/popctl/pkg/types"
)

// ApplySummary reports what a decisions merge changed.
type ApplySummary struct {
	Kept    []string
	Removed []string
	Asked   []string
}

// Changed reports whether the merge altered the manifest.
func (s ApplySummary) Changed() bool {
	return len(s.Kept)+len(s.Removed) > 0
}

// Merge folds agent decisions into the manifest: keep decisions enter
// the keep set, remove decisions the remove set, both carrying the
// agent's reason. Ask decisions are collected for the user and leave
// the manifest untouched. The manifest's updated timestamp is bumped
// when anything changed; saving is the caller's job.
func Merge(decisions *Decisions, m *manifest.Manifest) ApplySummary {
	var summary ApplySummary

	for sourceName, sd := range decisions.Packages {
		source, err := types.ParseSource(sourceName)
		if err != nil {
			continue // validated at import; belt and braces
		}
		for _, dec := range sd.Keep {
			m.SetKeep(dec.Name, manifest.Entry{Source: source, Reason: dec.Reason})
			summary.Kept = append(summary.Kept, dec.Name)
		}
		for _, dec := range sd.Remove {
			m.SetRemove(dec.Name, manifest.Entry{Source: source, Reason: dec.Reason})
			summary.Removed = append(summary.Removed, dec.Name)
		}
		for _, dec := range sd.Ask {
			summary.Asked = append(summary.Asked, dec.Name)
		}
	}

	if summary.Changed() {
		m.Touch()
	}
	return summary
}

// RecordApply writes the advisor_apply history entry naming the
// decided packages. The entry is an audit record, not reversible:
// undoing a classification is editing the manifest again.
func RecordApply(mgr *state.Manager, decisions *Decisions, command string) {
	logger := logging.GetLogger("advisor")

	var items []types.HistoryItem
	for sourceName, sd := range decisions.Packages {
		source, err := types.ParseSource(sourceName)
		if err != nil {
			continue
		}
		for _, dec := range sd.Keep {
			items = append(items, types.HistoryItem{Name: dec.Name, Source: source})
		}
		for _, dec := range sd.Remove {
			items = append(items, types.HistoryItem{Name: dec.Name, Source: source})
		}
	}
	if len(items) == 0 {
		return
	}

	entry, err := types.NewHistoryEntry(types.HistoryAdvisorApply, items, false,
		map[string]string{"command": command})
	if err != nil {
		logger.Warn().Err(err).Msg("Cannot build advisor history entry")
		return
	}
	if err := mgr.Record(entry); err != nil {
		logger.Warn().Err(err).Msg("Cannot record advisor history entry")
	}
}
