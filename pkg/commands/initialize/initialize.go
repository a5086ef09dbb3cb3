// Package initialize implements the init command: bootstrap a manifest
// from the packages currently installed on the system.
package initialize

import (
	"context"
	"os"
	"sort"

	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/logging"
	"github.com/arthur-debert/popctl/pkg/manifest"
	"github.com/arthur-debert/popctl/pkg/protect"
	"github.com/arthur-debert/popctl/pkg/scanners"
)

// InitOptions contains options for the init command.
type InitOptions struct {
	// ManifestPath is where the manifest is written; required.
	ManifestPath string

	// Registry supplies the scanners; defaults to the built-ins.
	Registry *scanners.Registry

	// SystemName identifies the machine; defaults to the hostname.
	SystemName string

	// Force overwrites an existing manifest.
	Force bool

	// DryRun builds the manifest without writing it.
	DryRun bool
}

// InitResult is the outcome of manifest initialization.
type InitResult struct {
	// Manifest is the built document, written unless DryRun.
	Manifest *manifest.Manifest

	// ManifestPath is where it was (or would be) written.
	ManifestPath string

	// Added is the number of packages placed in the keep set.
	Added int

	// SkippedProtected lists protected names left out of the manifest,
	// sorted. Protected packages are managed by the system, not popctl.
	SkippedProtected []string

	DryRun bool
}

// Init scans the system and builds a manifest whose keep set holds
// every manually installed, unprotected package. An existing manifest
// is never overwritten unless Force is set.
func Init(ctx context.Context, opts InitOptions) (*InitResult, error) {
	logger := logging.GetLogger("commands.init")

	if manifest.Exists(opts.ManifestPath) && !opts.Force {
		return nil, errors.Newf(errors.ErrAlreadyExists,
			"manifest already exists at %s; use --force to rebuild it", opts.ManifestPath)
	}

	reg := opts.Registry
	if reg == nil {
		reg = scanners.DefaultRegistry()
	}

	systemName := opts.SystemName
	if systemName == "" {
		if hostname, err := os.Hostname(); err == nil {
			systemName = hostname
		} else {
			systemName = "pop-os"
		}
	}

	m := manifest.New(systemName)
	var skipped []string

	scannerList, err := reg.ForSources(nil)
	if err != nil {
		return nil, err
	}
	for _, s := range scannerList {
		if !s.Available() {
			logger.Debug().Str("source", s.Source().String()).Msg("Scanner unavailable, skipping")
			continue
		}
		packages, err := s.Scan(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrScanFailed, "scanning %s packages failed", s.Source())
		}
		for _, pkg := range packages {
			if !pkg.IsManual() {
				continue
			}
			if protect.IsProtected(pkg.Name) {
				skipped = append(skipped, pkg.Name)
				continue
			}
			m.SetKeep(pkg.Name, manifest.Entry{
				Source: pkg.Source,
				Reason: "present at init",
			})
		}
	}
	sort.Strings(skipped)

	result := &InitResult{
		Manifest:         m,
		ManifestPath:     opts.ManifestPath,
		Added:            len(m.Packages.Keep),
		SkippedProtected: skipped,
		DryRun:           opts.DryRun,
	}

	if opts.DryRun {
		logger.Info().Int("packages", result.Added).Msg("Dry-run: manifest not written")
		return result, nil
	}

	if err := manifest.Save(m, opts.ManifestPath); err != nil {
		return nil, err
	}

	logger.Info().
		Str("path", opts.ManifestPath).
		Int("packages", result.Added).
		Int("skipped_protected", len(skipped)).
		Msg("Manifest initialized")

	return result, nil
}
