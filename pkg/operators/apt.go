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

// aptTimeout bounds one apt-get invocation. Installs can pull large
// dependency trees, so this is well above the shell default.
const aptTimeout = 300 * time.Second

// AptOperator drives apt-get. Operations are batched: one apt-get call
// covers all packages, and because apt resolves the transaction as a
// unit the whole batch succeeds or fails together.
type AptOperator struct {
	dryRun bool
	run    runFunc
}

// NewAptOperator creates an APT operator.
func NewAptOperator(dryRun bool) *AptOperator {
	return &AptOperator{dryRun: dryRun, run: shell.Run}
}

func (o *AptOperator) Source() types.Source {
	return types.SourceApt
}

func (o *AptOperator) Available() bool {
	return shell.Exists("apt-get")
}

func (o *AptOperator) Install(ctx context.Context, packages []string) []PackageResult {
	if o.dryRun {
		return dryRunResults(packages, "install")
	}
	return o.batch(ctx, "install", packages, "installed")
}

func (o *AptOperator) Remove(ctx context.Context, packages []string, purge bool) []PackageResult {
	verb := "remove"
	if purge {
		verb = "purge"
	}
	if o.dryRun {
		return dryRunResults(packages, verb)
	}
	return o.batch(ctx, verb, packages, verb+"d")
}

func (o *AptOperator) batch(ctx context.Context, verb string, packages []string, doneMsg string) []PackageResult {
	logger := logging.GetLogger("operators.apt")

	argv := append([]string{"sudo", "apt-get", verb, "-y"}, packages...)
	result, err := o.run(ctx, argv, shell.Options{
		Timeout: aptTimeout,
		Env:     []string{"DEBIAN_FRONTEND=noninteractive"},
	})
	if err != nil {
		return failAll(packages, err)
	}
	if !result.Success() {
		stderr := strings.TrimSpace(result.Stderr)
		logger.Error().Str("verb", verb).Int("exitCode", result.ExitCode).Str("stderr", stderr).
			Msg("apt-get failed")
		return failAll(packages, errors.Newf(errors.ErrOperationFailed,
			"apt-get %s failed: %s", verb, stderr))
	}

	logger.Info().Str("verb", verb).Int("count", len(packages)).Msg("apt-get batch complete")
	return successAll(packages, doneMsg)
}
