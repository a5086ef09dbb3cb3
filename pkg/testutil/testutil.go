// Package testutil provides shared fakes for exercising the command
// layer without touching real package managers.
package testutil

import (
	"context"
	"sync"

	"github.com/arthur-debert/popctl/pkg/operators"
	"github.com/arthur-debert/popctl/pkg/scanners"
	"github.com/arthur-debert/popctl/pkg/types"
)

// StubScanner returns a fixed package list for one source.
type StubScanner struct {
	Src       types.Source
	Packages  []types.ScannedPackage
	Err       error
	Offline   bool
	ScanCalls int
}

// Source implements scanners.Scanner.
func (s *StubScanner) Source() types.Source { return s.Src }

// Available implements scanners.Scanner.
func (s *StubScanner) Available() bool { return !s.Offline }

// Scan implements scanners.Scanner.
func (s *StubScanner) Scan(ctx context.Context) ([]types.ScannedPackage, error) {
	s.ScanCalls++
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Packages, nil
}

// ScannerRegistry builds a registry from stub scanners.
func ScannerRegistry(t interface{ Fatalf(string, ...interface{}) }, stubs ...*StubScanner) *scanners.Registry {
	reg := scanners.NewRegistry()
	for _, stub := range stubs {
		if err := reg.Register(stub); err != nil {
			t.Fatalf("registering stub scanner: %v", err)
		}
	}
	return reg
}

// Call records one operator invocation.
type Call struct {
	Kind     types.ActionKind
	Packages []string
}

// FakeOperator records install/remove calls and answers with canned
// per-package outcomes.
type FakeOperator struct {
	Src     types.Source
	Offline bool

	// Fail lists package names whose operations should fail.
	Fail map[string]error

	mu    sync.Mutex
	Calls []Call
}

// Source implements operators.Operator.
func (o *FakeOperator) Source() types.Source { return o.Src }

// Available implements operators.Operator.
func (o *FakeOperator) Available() bool { return !o.Offline }

// Install implements operators.Operator.
func (o *FakeOperator) Install(ctx context.Context, packages []string) []operators.PackageResult {
	return o.record(types.ActionInstall, packages)
}

// Remove implements operators.Operator.
func (o *FakeOperator) Remove(ctx context.Context, packages []string, purge bool) []operators.PackageResult {
	kind := types.ActionRemove
	if purge {
		kind = types.ActionPurge
	}
	return o.record(kind, packages)
}

func (o *FakeOperator) record(kind types.ActionKind, packages []string) []operators.PackageResult {
	o.mu.Lock()
	o.Calls = append(o.Calls, Call{Kind: kind, Packages: append([]string(nil), packages...)})
	o.mu.Unlock()

	out := make([]operators.PackageResult, 0, len(packages))
	for _, pkg := range packages {
		if err, bad := o.Fail[pkg]; bad {
			out = append(out, operators.PackageResult{Package: pkg, Err: err})
			continue
		}
		out = append(out, operators.PackageResult{Package: pkg, Success: true, Message: string(kind) + " ok"})
	}
	return out
}

// OperatorRegistry builds a registry from fake operators.
func OperatorRegistry(t interface{ Fatalf(string, ...interface{}) }, fakes ...*FakeOperator) *operators.Registry {
	reg := operators.NewRegistry()
	for _, fake := range fakes {
		if err := reg.Register(fake); err != nil {
			t.Fatalf("registering fake operator: %v", err)
		}
	}
	return reg
}

// ManualPackage builds a manually installed package record.
func ManualPackage(name string, source types.Source) types.ScannedPackage {
	return types.ScannedPackage{Name: name, Source: source, Status: types.StatusManual}
}

// AutoPackage builds an auto-installed dependency record.
func AutoPackage(name string, source types.Source) types.ScannedPackage {
	return types.ScannedPackage{Name: name, Source: source, Status: types.StatusAuto}
}
