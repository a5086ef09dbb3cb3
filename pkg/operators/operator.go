// Package operators performs the actual install/remove/purge calls
// against each package ecosystem. Operators are the only code that
// mutates system package state.
package operators

import (
	"context"

	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/registry"
	"github.com/arthur-debert/popctl/pkg/shell"
	"github.com/arthur-debert/popctl/pkg/types"
)

// PackageResult is the outcome of one package operation.
type PackageResult struct {
	Package string
	Success bool
	Message string
	Err     error
}

// Operator executes package operations for one ecosystem.
type Operator interface {
	// Source returns the ecosystem this operator drives.
	Source() types.Source

	// Available reports whether the underlying tooling is present.
	Available() bool

	// Install installs the given packages, returning one result per
	// package. Partial failure is possible for ecosystems that operate
	// per package.
	Install(ctx context.Context, packages []string) []PackageResult

	// Remove uninstalls the given packages. Operators for ecosystems
	// without a purge concept ignore the flag.
	Remove(ctx context.Context, packages []string, purge bool) []PackageResult
}

// runFunc matches shell.Run and is swapped out in tests.
type runFunc func(ctx context.Context, argv []string, opts shell.Options) (shell.Result, error)

// Registry holds one operator per ecosystem, keyed by source tag.
type Registry struct {
	reg registry.Registry[Operator]
}

// NewRegistry creates an empty operator registry.
func NewRegistry() *Registry {
	return &Registry{reg: registry.New[Operator]()}
}

// DefaultRegistry returns a registry with every built-in operator.
// With dryRun set, operators report what they would do without
// touching the system.
func DefaultRegistry(dryRun bool) *Registry {
	r := NewRegistry()
	registry.MustRegister[Operator](r.reg, types.SourceApt.String(), NewAptOperator(dryRun))
	registry.MustRegister[Operator](r.reg, types.SourceFlatpak.String(), NewFlatpakOperator(dryRun))
	registry.MustRegister[Operator](r.reg, types.SourceSnap.String(), NewSnapOperator(dryRun))
	return r
}

// Register adds an operator under its own source tag.
func (r *Registry) Register(op Operator) error {
	return r.reg.Register(op.Source().String(), op)
}

// Get returns the operator for one source.
func (r *Registry) Get(source types.Source) (Operator, error) {
	op, err := r.reg.Get(source.String())
	if err != nil {
		return nil, errors.Newf(errors.ErrNoOperator, "no operator registered for source %q", source)
	}
	return op, nil
}

func successAll(packages []string, message string) []PackageResult {
	out := make([]PackageResult, 0, len(packages))
	for _, pkg := range packages {
		out = append(out, PackageResult{Package: pkg, Success: true, Message: message})
	}
	return out
}

func failAll(packages []string, err error) []PackageResult {
	out := make([]PackageResult, 0, len(packages))
	for _, pkg := range packages {
		out = append(out, PackageResult{Package: pkg, Err: err})
	}
	return out
}

func dryRunResults(packages []string, verb string) []PackageResult {
	out := make([]PackageResult, 0, len(packages))
	for _, pkg := range packages {
		out = append(out, PackageResult{Package: pkg, Success: true, Message: "would " + verb + " " + pkg})
	}
	return out
}
