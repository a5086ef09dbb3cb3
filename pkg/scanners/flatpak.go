package scanners

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/logging"
	"github.com/arthur-debert/popctl/pkg/shell"
	"github.com/arthur-debert/popctl/pkg/types"
)

// sizePattern matches human-readable sizes like "1.2 GB" or "500 MB".
var sizePattern = regexp.MustCompile(`(?i)^\s*([\d.]+)\s*(B|KB|MB|GB|TB)\s*$`)

var sizeMultipliers = map[string]int64{
	"B":  1,
	"KB": 1024,
	"MB": 1024 * 1024,
	"GB": 1024 * 1024 * 1024,
	"TB": 1024 * 1024 * 1024 * 1024,
}

// FlatpakScanner lists installed Flatpak applications. Runtimes are
// excluded, and every app is manual: Flatpak has no auto-dependency
// concept like APT's.
type FlatpakScanner struct {
	// appstreamSummaries fills in empty descriptions from the local
	// appstream catalog. Optional; nil disables enrichment.
	appstreamSummaries func() map[string]string
}

// NewFlatpakScanner creates a Flatpak scanner with appstream
// description enrichment enabled.
func NewFlatpakScanner() *FlatpakScanner {
	return &FlatpakScanner{appstreamSummaries: loadAppstreamSummaries}
}

func (s *FlatpakScanner) Source() types.Source {
	return types.SourceFlatpak
}

func (s *FlatpakScanner) Available() bool {
	return shell.Exists("flatpak")
}

func (s *FlatpakScanner) Scan(ctx context.Context) ([]types.ScannedPackage, error) {
	logger := logging.GetLogger("scanners.flatpak")

	if !s.Available() {
		return nil, errors.New(errors.ErrUnavailable, "Flatpak is not available on this system")
	}

	result, err := shell.Run(ctx, []string{
		"flatpak", "list", "--app", "--columns=application,version,size,description",
	}, shell.Options{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrScanFailed, "flatpak list failed")
	}
	if !result.Success() {
		return nil, errors.Newf(errors.ErrScanFailed, "flatpak list failed: %s", strings.TrimSpace(result.Stderr))
	}

	// Summaries are loaded once per scan, not cached on the scanner.
	var summaries map[string]string
	if s.appstreamSummaries != nil {
		summaries = s.appstreamSummaries()
	}

	var packages []types.ScannedPackage
	for _, line := range strings.Split(strings.TrimSpace(result.Stdout), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		pkg, ok := parseFlatpakLine(line)
		if !ok {
			logger.Debug().Str("line", truncate(line, 100)).Msg("Skipping malformed flatpak line")
			continue
		}
		if pkg.Description == "" {
			pkg.Description = summaries[pkg.Name]
		}
		packages = append(packages, pkg)
	}

	logger.Debug().Int("count", len(packages)).Msg("Flatpak scan complete")
	return packages, nil
}

// parseFlatpakLine parses one tab-separated flatpak list output line.
func parseFlatpakLine(line string) (types.ScannedPackage, bool) {
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
		sizeBytes = parseHumanSize(strings.TrimSpace(parts[2]))
	}

	var description string
	if len(parts) >= 4 {
		description = strings.TrimSpace(parts[3])
	}

	return types.ScannedPackage{
		Name:        name,
		Source:      types.SourceFlatpak,
		Version:     version,
		Status:      types.StatusManual,
		Description: description,
		SizeBytes:   sizeBytes,
	}, true
}

// parseHumanSize converts strings like "1.2 GB" to bytes, 0 on failure.
func parseHumanSize(s string) int64 {
	match := sizePattern.FindStringSubmatch(s)
	if match == nil {
		return 0
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0
	}
	return int64(value * float64(sizeMultipliers[strings.ToUpper(match[2])]))
}
