// Package advisor implements the advisor commands: prepare an agent
// classification session and fold its decisions back into the
// manifest.
package advisor

import (
	"context"
	"os"

	advisorcore "github.com/arthur-debert/popctl/pkg/advisor"
	"github.com/arthur-debert/popctl/pkg/config"
	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/logging"
	"github.com/arthur-debert/popctl/pkg/manifest"
	"github.com/arthur-debert/popctl/pkg/scanners"
	"github.com/arthur-debert/popctl/pkg/state"
	"github.com/arthur-debert/popctl/pkg/types"
)

// ApplyCommand is the command string recorded with history entries.
const ApplyCommand = "popctl advisor apply"

// ClassifyOptions contains options for the advisor classify command.
type ClassifyOptions struct {
	// SessionsDir is where session workspaces live; required.
	SessionsDir string

	// ManifestPath locates the manifest copied into the session. The
	// manifest may not exist yet; classification works either way.
	ManifestPath string

	// Registry supplies the scanners; defaults to the built-ins.
	Registry *scanners.Registry

	// Config selects the agent provider, model, and timeout.
	Config config.AdvisorConfig

	// Auto runs the agent headlessly instead of printing manual
	// instructions.
	Auto bool

	// SystemInfo annotates the scan export.
	SystemInfo map[string]string
}

// ClassifyResult is the outcome of session preparation (and, with
// Auto, the agent run).
type ClassifyResult struct {
	// SessionDir is the prepared workspace.
	SessionDir string

	// Instructions holds the manual-run help text; empty with Auto.
	Instructions string

	// DecisionsPath is set after a successful headless run.
	DecisionsPath string

	// Output is the agent's stdout from a headless run.
	Output string
}

// Classify scans the system, prepares an agent session workspace, and
// either runs the agent headlessly or tells the user how to.
func Classify(ctx context.Context, opts ClassifyOptions) (*ClassifyResult, error) {
	logger := logging.GetLogger("commands.advisor")

	reg := opts.Registry
	if reg == nil {
		reg = scanners.DefaultRegistry()
	}

	var packages []types.ScannedPackage
	scannerList, err := reg.ForSources(nil)
	if err != nil {
		return nil, err
	}
	for _, s := range scannerList {
		if !s.Available() {
			continue
		}
		scanned, err := s.Scan(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrScanFailed, "scanning %s packages failed", s.Source())
		}
		packages = append(packages, scanned...)
	}

	export := advisorcore.BuildScanExport(packages, opts.SystemInfo)

	manifestPath := opts.ManifestPath
	if !manifest.Exists(manifestPath) {
		manifestPath = ""
	}

	sessionDir, err := advisorcore.NewSession(opts.SessionsDir, export, manifestPath)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("session", sessionDir).Int("packages", len(packages)).Msg("Advisor session prepared")

	runner := advisorcore.NewRunner(opts.Config)
	result := &ClassifyResult{SessionDir: sessionDir}

	if !opts.Auto {
		result.Instructions = runner.InteractiveInstructions(sessionDir)
		return result, nil
	}

	if !runner.Available() {
		return nil, errors.Newf(errors.ErrAdvisorConfig,
			"agent CLI %q not found on PATH", opts.Config.Provider)
	}

	runResult, err := runner.RunHeadless(ctx, sessionDir)
	if err != nil {
		return nil, err
	}
	result.DecisionsPath = runResult.DecisionsPath
	result.Output = runResult.Output
	return result, nil
}

// ApplyOptions contains options for the advisor apply command.
type ApplyOptions struct {
	// SessionsDir is searched for the newest decisions when
	// DecisionsPath is empty.
	SessionsDir string

	// DecisionsPath points at a specific decisions document.
	DecisionsPath string

	// ManifestPath locates the manifest; required.
	ManifestPath string

	// HistoryPath locates the history log; required unless DryRun.
	HistoryPath string

	// DryRun merges in memory and reports, without saving anything.
	DryRun bool
}

// ApplyResult is the outcome of applying agent decisions.
type ApplyResult struct {
	// DecisionsPath is the document that was applied.
	DecisionsPath string

	// Summary reports what the merge changed.
	Summary advisorcore.ApplySummary

	DryRun bool
}

// Apply imports the newest (or given) decisions document, merges it
// into the manifest, saves, and records the audit entry.
func Apply(opts ApplyOptions) (*ApplyResult, error) {
	logger := logging.GetLogger("commands.advisor")

	decisionsPath := opts.DecisionsPath
	if decisionsPath == "" {
		var err error
		decisionsPath, err = advisorcore.LatestDecisions(opts.SessionsDir)
		if err != nil {
			return nil, err
		}
	} else if _, err := os.Stat(decisionsPath); err != nil {
		return nil, errors.Newf(errors.ErrNotFound, "no decisions document at %s", decisionsPath)
	}

	decisions, err := advisorcore.ImportDecisions(decisionsPath)
	if err != nil {
		return nil, err
	}

	m, err := manifest.Require(opts.ManifestPath)
	if err != nil {
		return nil, err
	}

	summary := advisorcore.Merge(decisions, m)
	result := &ApplyResult{DecisionsPath: decisionsPath, Summary: summary, DryRun: opts.DryRun}

	if opts.DryRun {
		logger.Info().Int("kept", len(summary.Kept)).Int("removed", len(summary.Removed)).
			Msg("Dry-run: manifest not saved")
		return result, nil
	}

	if summary.Changed() {
		if err := manifest.Save(m, opts.ManifestPath); err != nil {
			return nil, err
		}
		mgr := state.NewManager(opts.HistoryPath)
		advisorcore.RecordApply(mgr, decisions, ApplyCommand)
	}

	logger.Info().
		Int("kept", len(summary.Kept)).
		Int("removed", len(summary.Removed)).
		Int("asked", len(summary.Asked)).
		Msg("Advisor decisions applied")

	return result, nil
}
