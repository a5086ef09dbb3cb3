package scanners

import (
	"context"
	"strconv"
	"strings"

	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/logging"
	"github.com/arthur-debert/popctl/pkg/shell"
	"github.com/arthur-debert/popctl/pkg/types"
)

// dpkgQueryFormat yields Package, Version, Installed-Size (KiB), Summary.
const dpkgQueryFormat = "${Package}\t${Version}\t${Installed-Size}\t${binary:Summary}\n"

// AptScanner lists installed dpkg packages. Manual/auto status comes
// from apt-mark showauto; packages in that set are auto-installed
// dependencies.
type AptScanner struct{}

// NewAptScanner creates an APT scanner.
func NewAptScanner() *AptScanner {
	return &AptScanner{}
}

func (s *AptScanner) Source() types.Source {
	return types.SourceApt
}

func (s *AptScanner) Available() bool {
	return shell.Exists("dpkg-query") && shell.Exists("apt-mark")
}

func (s *AptScanner) Scan(ctx context.Context) ([]types.ScannedPackage, error) {
	logger := logging.GetLogger("scanners.apt")

	if !s.Available() {
		return nil, errors.New(errors.ErrUnavailable, "APT package manager is not available on this system")
	}

	auto, err := s.autoInstalled(ctx)
	if err != nil {
		return nil, err
	}

	result, err := shell.Run(ctx, []string{"dpkg-query", "-W", "-f", dpkgQueryFormat}, shell.Options{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrScanFailed, "dpkg-query failed")
	}
	if !result.Success() {
		return nil, errors.Newf(errors.ErrScanFailed, "dpkg-query failed: %s", strings.TrimSpace(result.Stderr))
	}

	var packages []types.ScannedPackage
	for _, line := range strings.Split(strings.TrimSpace(result.Stdout), "\n") {
		if line == "" {
			continue
		}
		pkg, ok := parseDpkgLine(line, auto)
		if !ok {
			logger.Debug().Str("line", truncate(line, 100)).Msg("Skipping malformed dpkg line")
			continue
		}
		packages = append(packages, pkg)
	}

	logger.Debug().Int("count", len(packages)).Msg("APT scan complete")
	return packages, nil
}

// autoInstalled returns the set of auto-installed package names. A
// failure here is fatal for the scan: without it every package would be
// misreported as manual.
func (s *AptScanner) autoInstalled(ctx context.Context) (map[string]struct{}, error) {
	result, err := shell.Run(ctx, []string{"apt-mark", "showauto"}, shell.Options{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrScanFailed, "apt-mark showauto failed")
	}
	if !result.Success() {
		return nil, errors.Newf(errors.ErrScanFailed, "apt-mark showauto failed: %s", strings.TrimSpace(result.Stderr))
	}

	auto := make(map[string]struct{})
	for _, name := range strings.Split(result.Stdout, "\n") {
		name = strings.TrimSpace(name)
		if name != "" {
			auto[name] = struct{}{}
		}
	}
	return auto, nil
}

// parseDpkgLine parses one tab-separated dpkg-query output line.
func parseDpkgLine(line string, auto map[string]struct{}) (types.ScannedPackage, bool) {
	parts := strings.Split(line, "\t")
	if len(parts) < 2 {
		return types.ScannedPackage{}, false
	}

	name := strings.TrimSpace(parts[0])
	version := strings.TrimSpace(parts[1])
	if name == "" || version == "" {
		return types.ScannedPackage{}, false
	}

	var sizeBytes int64
	if len(parts) >= 3 {
		// dpkg-query reports Installed-Size in KiB
		if kib, err := strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 64); err == nil {
			sizeBytes = kib * 1024
		}
	}

	var description string
	if len(parts) >= 4 {
		description = strings.TrimSpace(parts[3])
	}

	status := types.StatusManual
	if _, isAuto := auto[name]; isAuto {
		status = types.StatusAuto
	}

	return types.ScannedPackage{
		Name:        name,
		Source:      types.SourceApt,
		Version:     version,
		Status:      status,
		Description: description,
		SizeBytes:   sizeBytes,
	}, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
