package operators

import (
	"context"
	"strings"
	"time"

	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/logging"
	"github.com/arthur-debert/popctl/pkg/shell"
	"github.com/arthur-debert/popctl/pkg/types"
)

// flatpakTimeout bounds one flatpak invocation; app downloads can be
// large.
const flatpakTimeout = 300 * time.Second

// FlatpakOperator drives the flatpak CLI. Unlike apt there is no
// transactional batch mode, so each application is handled on its own
// and a failure leaves the siblings unaffected.
type FlatpakOperator struct {
	dryRun bool
	run    runFunc
}

// NewFlatpakOperator creates a Flatpak operator installing to the
// user scope.
func NewFlatpakOperator(dryRun bool) *FlatpakOperator {
	return &FlatpakOperator{dryRun: dryRun, run: shell.Run}
}

func (o *FlatpakOperator) Source() types.Source {
	return types.SourceFlatpak
}

func (o *FlatpakOperator) Available() bool {
	return shell.Exists("flatpak")
}

func (o *FlatpakOperator) Install(ctx context.Context, packages []string) []PackageResult {
	if o.dryRun {
		return dryRunResults(packages, "install")
	}

	out := make([]PackageResult, 0, len(packages))
	for _, pkg := range packages {
		out = append(out, o.one(ctx, []string{"flatpak", "install", "-y", "--user", pkg}, pkg, "installed"))
	}
	return out
}

// Remove uninstalls each application. Flatpak has no purge concept;
// the flag is accepted and ignored.
func (o *FlatpakOperator) Remove(ctx context.Context, packages []string, purge bool) []PackageResult {
	if o.dryRun {
		return dryRunResults(packages, "remove")
	}
	if purge {
		logger := logging.GetLogger("operators.flatpak")
		logger.Debug().Msg("Purge requested; flatpak has no purge, removing normally")
	}

	out := make([]PackageResult, 0, len(packages))
	for _, pkg := range packages {
		out = append(out, o.one(ctx, []string{"flatpak", "uninstall", "-y", pkg}, pkg, "removed"))
	}
	return out
}

func (o *FlatpakOperator) one(ctx context.Context, argv []string, pkg, doneMsg string) PackageResult {
	result, err := o.run(ctx, argv, shell.Options{Timeout: flatpakTimeout})
	if err != nil {
		return PackageResult{Package: pkg, Err: err}
	}
	if !result.Success() {
		return PackageResult{Package: pkg, Err: errors.Newf(errors.ErrOperationFailed,
			"flatpak failed for %s: %s", pkg, strings.TrimSpace(result.Stderr))}
	}
	return PackageResult{Package: pkg, Success: true, Message: doneMsg}
}
