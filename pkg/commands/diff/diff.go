// Package diff implements the diff command: compare the manifest
// against the installed system and report every difference.
package diff

import (
	"context"

	"github.com/arthur-debert/popctl/pkg/diff"
	"github.com/arthur-debert/popctl/pkg/logging"
	"github.com/arthur-debert/popctl/pkg/manifest"
	"github.com/arthur-debert/popctl/pkg/scanners"
	"github.com/arthur-debert/popctl/pkg/types"
)

// DiffOptions contains options for the diff command.
type DiffOptions struct {
	// ManifestPath locates the manifest; required.
	ManifestPath string

	// Registry supplies the scanners; defaults to the built-ins.
	Registry *scanners.Registry

	// Source restricts the diff to one ecosystem.
	Source *types.Source
}

// DiffResult is the outcome of a diff.
type DiffResult struct {
	Result   diff.Result
	Manifest *manifest.Manifest
}

// Diff loads the manifest and computes its difference against the
// currently installed packages.
func Diff(ctx context.Context, opts DiffOptions) (*DiffResult, error) {
	logger := logging.GetLogger("commands.diff")

	m, err := manifest.Require(opts.ManifestPath)
	if err != nil {
		return nil, err
	}

	reg := opts.Registry
	if reg == nil {
		reg = scanners.DefaultRegistry()
	}

	result, err := diff.NewEngine(m).Compute(ctx, reg, opts.Source)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Int("new", len(result.New)).
		Int("missing", len(result.Missing)).
		Int("extra", len(result.Extra)).
		Msg("Diff complete")

	return &DiffResult{Result: result, Manifest: m}, nil
}
