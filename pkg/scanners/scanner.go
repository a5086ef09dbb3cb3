// Package scanners enumerates installed packages, one scanner per
// ecosystem. Scanners are read-only; they never mutate system state.
package scanners

import (
	"context"

	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/registry"
	"github.com/arthur-debert/popctl/pkg/types"
)

// Scanner lists the currently installed packages for one ecosystem.
type Scanner interface {
	// Source returns the ecosystem this scanner reads.
	Source() types.Source

	// Available reports whether the underlying tooling is present.
	Available() bool

	// Scan enumerates installed packages. A failed tool invocation is
	// returned as an error; callers decide whether to continue with
	// sibling ecosystems.
	Scan(ctx context.Context) ([]types.ScannedPackage, error)
}

// Registry holds one scanner per ecosystem, keyed by source tag.
type Registry struct {
	reg registry.Registry[Scanner]
}

// NewRegistry creates an empty scanner registry.
func NewRegistry() *Registry {
	return &Registry{reg: registry.New[Scanner]()}
}

// DefaultRegistry returns a registry with every built-in scanner.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	registry.MustRegister[Scanner](r.reg, types.SourceApt.String(), NewAptScanner())
	registry.MustRegister[Scanner](r.reg, types.SourceFlatpak.String(), NewFlatpakScanner())
	registry.MustRegister[Scanner](r.reg, types.SourceSnap.String(), NewSnapScanner())
	return r
}

// Register adds a scanner under its own source tag.
func (r *Registry) Register(s Scanner) error {
	return r.reg.Register(s.Source().String(), s)
}

// Get returns the scanner for one source.
func (r *Registry) Get(source types.Source) (Scanner, error) {
	s, err := r.reg.Get(source.String())
	if err != nil {
		return nil, errors.Newf(errors.ErrUnknownSource, "no scanner registered for source %q", source)
	}
	return s, nil
}

// ForSources returns the scanners matching the filter, or every
// registered scanner when the filter is nil. An unknown filter is a
// configuration error.
func (r *Registry) ForSources(filter *types.Source) ([]Scanner, error) {
	if filter != nil {
		if !filter.Valid() {
			return nil, errors.Newf(errors.ErrUnknownSource, "unknown package source %q", *filter)
		}
		s, err := r.Get(*filter)
		if err != nil {
			return nil, err
		}
		return []Scanner{s}, nil
	}

	out := make([]Scanner, 0, r.reg.Count())
	for _, name := range r.reg.List() {
		s, err := r.reg.Get(name)
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// Available returns the registered scanners whose tooling is present.
func (r *Registry) Available() []Scanner {
	all, _ := r.ForSources(nil)
	out := make([]Scanner, 0, len(all))
	for _, s := range all {
		if s.Available() {
			out = append(out, s)
		}
	}
	return out
}
