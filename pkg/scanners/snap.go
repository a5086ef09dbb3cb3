package scanners

import (
	"context"
	"strings"

	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/logging"
	"github.com/arthur-debert/popctl/pkg/shell"
	"github.com/arthur-debert/popctl/pkg/types"
)

// Notes values that indicate runtime/infrastructure snaps.
var runtimeNotes = map[string]struct{}{
	"base":  {},
	"snapd": {},
}

// Exact snap names that are always runtime infrastructure.
var runtimeNames = map[string]struct{}{
	"snapd": {},
	"bare":  {},
}

// SnapScanner lists installed snaps. Runtime and infrastructure snaps
// (cores, bases, snapd, platform snaps) are filtered out; the rest are
// classified as manual.
type SnapScanner struct{}

// NewSnapScanner creates a Snap scanner.
func NewSnapScanner() *SnapScanner {
	return &SnapScanner{}
}

func (s *SnapScanner) Source() types.Source {
	return types.SourceSnap
}

func (s *SnapScanner) Available() bool {
	return shell.Exists("snap")
}

func (s *SnapScanner) Scan(ctx context.Context) ([]types.ScannedPackage, error) {
	logger := logging.GetLogger("scanners.snap")

	if !s.Available() {
		return nil, errors.New(errors.ErrUnavailable, "Snap is not available on this system")
	}

	result, err := shell.Run(ctx, []string{"snap", "list"}, shell.Options{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrScanFailed, "snap list failed")
	}
	if !result.Success() {
		return nil, errors.Newf(errors.ErrScanFailed, "snap list failed: %s", strings.TrimSpace(result.Stderr))
	}

	lines := strings.Split(strings.TrimSpace(result.Stdout), "\n")

	var packages []types.ScannedPackage
	// First line is the column header
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		pkg, ok := parseSnapLine(line)
		if !ok {
			continue
		}
		packages = append(packages, pkg)
	}

	logger.Debug().Int("count", len(packages)).Msg("Snap scan complete")
	return packages, nil
}

// parseSnapLine parses one whitespace-separated snap list output line,
// returning false for malformed lines and runtime snaps.
func parseSnapLine(line string) (types.ScannedPackage, bool) {
	parts := strings.Fields(line)
	if len(parts) < 6 {
		return types.ScannedPackage{}, false
	}

	name := parts[0]
	version := parts[1]
	notes := parts[5]

	if isRuntimeSnap(name, notes) {
		return types.ScannedPackage{}, false
	}

	return types.ScannedPackage{
		Name:    name,
		Source:  types.SourceSnap,
		Version: version,
		Status:  types.StatusManual,
	}, true
}

func isRuntimeSnap(name, notes string) bool {
	if _, ok := runtimeNotes[notes]; ok {
		return true
	}
	if _, ok := runtimeNames[name]; ok {
		return true
	}
	if strings.HasPrefix(name, "core") {
		return true
	}
	if strings.HasPrefix(name, "gnome-") && strings.HasSuffix(name, "-platform") {
		return true
	}
	return false
}
