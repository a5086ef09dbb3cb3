package operators

import (
	"context"
	"strings"

	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/shell"
	"github.com/arthur-debert/popctl/pkg/types"
)

// SnapOperator drives the snap CLI, one package per invocation.
type SnapOperator struct {
	dryRun bool
	run    runFunc
}

// NewSnapOperator creates a Snap operator.
func NewSnapOperator(dryRun bool) *SnapOperator {
	return &SnapOperator{dryRun: dryRun, run: shell.Run}
}

func (o *SnapOperator) Source() types.Source {
	return types.SourceSnap
}

func (o *SnapOperator) Available() bool {
	return shell.Exists("snap")
}

func (o *SnapOperator) Install(ctx context.Context, packages []string) []PackageResult {
	if o.dryRun {
		return dryRunResults(packages, "install")
	}

	out := make([]PackageResult, 0, len(packages))
	for _, pkg := range packages {
		out = append(out, o.one(ctx, []string{"sudo", "snap", "install", pkg}, pkg, "installed"))
	}
	return out
}

// Remove uninstalls each snap. With purge, snapshot data is discarded
// instead of being kept for automatic restore.
func (o *SnapOperator) Remove(ctx context.Context, packages []string, purge bool) []PackageResult {
	verb := "remove"
	if purge {
		verb = "purge"
	}
	if o.dryRun {
		return dryRunResults(packages, verb)
	}

	out := make([]PackageResult, 0, len(packages))
	for _, pkg := range packages {
		argv := []string{"sudo", "snap", "remove"}
		if purge {
			argv = append(argv, "--purge")
		}
		argv = append(argv, pkg)
		out = append(out, o.one(ctx, argv, pkg, verb+"d"))
	}
	return out
}

func (o *SnapOperator) one(ctx context.Context, argv []string, pkg, doneMsg string) PackageResult {
	result, err := o.run(ctx, argv, shell.Options{})
	if err != nil {
		return PackageResult{Package: pkg, Err: err}
	}
	if !result.Success() {
		return PackageResult{Package: pkg, Err: errors.Newf(errors.ErrOperationFailed,
			"snap failed for %s: %s", pkg, strings.TrimSpace(result.Stderr))}
	}
	return PackageResult{Package: pkg, Success: true, Message: doneMsg}
}
