package filesystem

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/arthur-debert/popctl/pkg/logging"
	"github.com/arthur-debert/popctl/pkg/shell"
)

// Home directories scanned by default, relative to $HOME. ~/.config
// is deliberately absent: user configuration is governed by the
// manifest, not the orphan scanner.
var defaultHomeTargets = []string{
	".local/share",
	".cache",
}

const etcTarget = "/etc"

// ScanOptions configures one orphan scan.
type ScanOptions struct {
	// IncludeFiles scans top-level files as well as directories.
	IncludeFiles bool

	// IncludeEtc adds /etc to the scan targets.
	IncludeEtc bool

	// Targets overrides the default target directories entirely.
	Targets []string
}

// Scanner walks the top level of each target directory and classifies
// every entry as owned, protected, or orphaned. Ownership checks go
// through dpkg -S and the installed flatpak/snap app lists.
type Scanner struct {
	opts ScanOptions
	home string
	run  func(ctx context.Context, argv []string, opts shell.Options) (shell.Result, error)
}

// NewScanner creates a filesystem scanner.
func NewScanner(opts ScanOptions) *Scanner {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return &Scanner{opts: opts, home: home, run: shell.Run}
}

// ownership holds lookups valid for exactly one scan. A fresh value
// per Scan call keeps results consistent even when packages change
// between scans.
type ownership struct {
	dpkg map[string]bool
	apps map[string]struct{}
}

// Scan returns the orphaned entries found under the targets, in
// directory order. Missing targets are skipped silently; unreadable
// ones are logged and skipped.
func (s *Scanner) Scan(ctx context.Context) []ScannedPath {
	own := &ownership{dpkg: make(map[string]bool)}

	var found []ScannedPath
	for _, target := range s.targets() {
		info, err := os.Stat(target)
		if err != nil || !info.IsDir() {
			continue
		}
		found = append(found, s.scanDirectory(ctx, target, own)...)
	}
	return found
}

func (s *Scanner) targets() []string {
	if len(s.opts.Targets) > 0 {
		return s.opts.Targets
	}
	out := make([]string, 0, len(defaultHomeTargets)+1)
	for _, t := range defaultHomeTargets {
		out = append(out, filepath.Join(s.home, t))
	}
	if s.opts.IncludeEtc {
		out = append(out, etcTarget)
	}
	return out
}

func (s *Scanner) scanDirectory(ctx context.Context, target string, own *ownership) []ScannedPath {
	logger := logging.GetLogger("filesystem.scanner")

	entries, err := os.ReadDir(target)
	if err != nil {
		logger.Warn().Err(err).Str("target", target).Msg("Cannot read scan target")
		return nil
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var found []ScannedPath
	for _, entry := range entries {
		full := filepath.Join(target, entry.Name())
		pathType, err := classifyPath(full)
		if err != nil {
			logger.Warn().Str("path", full).Msg("Cannot determine entry type")
			continue
		}
		if pathType == TypeFile && !s.opts.IncludeFiles {
			continue
		}

		status := s.checkOwnership(ctx, entry.Name(), full, own)
		if status == StatusOwned || status == StatusProtected {
			continue
		}

		found = append(found, ScannedPath{
			Path:         full,
			Type:         pathType,
			Status:       StatusOrphan,
			SizeBytes:    pathSize(full),
			MTime:        pathMTime(full),
			ParentTarget: s.formatTarget(target),
			Reason:       orphanReason(pathType, target),
			Confidence:   confidenceFor(target),
		})
	}
	return found
}

// checkOwnership classifies a path: protected list first, then dpkg,
// then installed app names.
func (s *Scanner) checkOwnership(ctx context.Context, name, path string, own *ownership) PathStatus {
	if isProtectedPath(path, s.home) {
		return StatusProtected
	}
	if s.dpkgOwns(ctx, path, own) {
		return StatusOwned
	}
	if s.appNameMatches(ctx, name, own) {
		return StatusOwned
	}
	return StatusOrphan
}

func (s *Scanner) dpkgOwns(ctx context.Context, path string, own *ownership) bool {
	if owned, ok := own.dpkg[path]; ok {
		return owned
	}
	result, err := s.run(ctx, []string{"dpkg", "-S", path}, shell.Options{Timeout: 10 * time.Second})
	owned := err == nil && result.Success()
	own.dpkg[path] = owned
	return owned
}

// appNameMatches reports whether the name matches an installed
// flatpak or snap app, either exactly or as a component of a
// reverse-DNS ID ("firefox" matches "org.mozilla.firefox").
func (s *Scanner) appNameMatches(ctx context.Context, name string, own *ownership) bool {
	if own.apps == nil {
		own.apps = s.installedApps(ctx)
	}

	nameLower := strings.ToLower(name)
	for app := range own.apps {
		appLower := strings.ToLower(app)
		if nameLower == appLower {
			return true
		}
		if strings.Contains(appLower, ".") {
			for _, component := range strings.Split(appLower, ".") {
				if nameLower == component {
					return true
				}
			}
		}
	}
	return false
}

// installedApps gathers flatpak and snap app names. Either tool being
// absent just yields an empty contribution.
func (s *Scanner) installedApps(ctx context.Context) map[string]struct{} {
	apps := make(map[string]struct{})

	result, err := s.run(ctx, []string{"flatpak", "list", "--app", "--columns=application"},
		shell.Options{Timeout: 15 * time.Second})
	if err == nil && result.Success() {
		for _, line := range strings.Split(strings.TrimSpace(result.Stdout), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				apps[line] = struct{}{}
			}
		}
	}

	result, err = s.run(ctx, []string{"snap", "list"}, shell.Options{Timeout: 15 * time.Second})
	if err == nil && result.Success() {
		lines := strings.Split(strings.TrimSpace(result.Stdout), "\n")
		for i, line := range lines {
			if i == 0 {
				continue // header
			}
			if fields := strings.Fields(line); len(fields) > 0 {
				apps[fields[0]] = struct{}{}
			}
		}
	}
	return apps
}

func (s *Scanner) formatTarget(target string) string {
	if s.home != "" && strings.HasPrefix(target, s.home+"/") {
		return "~/" + strings.TrimPrefix(target, s.home+"/")
	}
	return target
}

func classifyPath(path string) (PathType, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return "", err
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		if _, err := os.Stat(path); err != nil {
			return TypeDeadSymlink, nil
		}
		return TypeSymlink, nil
	}
	if info.IsDir() {
		return TypeDirectory, nil
	}
	return TypeFile, nil
}

// pathSize returns the file size, or the recursive total for a
// directory. Zero on any error.
func pathSize(path string) int64 {
	info, err := os.Lstat(path)
	if err != nil {
		return 0
	}
	if !info.IsDir() {
		return info.Size()
	}

	var total int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			if fi, err := d.Info(); err == nil {
				total += fi.Size()
			}
		}
		return nil
	})
	return total
}

func pathMTime(path string) string {
	info, err := os.Lstat(path)
	if err != nil {
		return ""
	}
	return info.ModTime().UTC().Format(time.RFC3339)
}

func orphanReason(pathType PathType, target string) OrphanReason {
	if pathType == TypeDeadSymlink {
		return ReasonDeadLink
	}
	if strings.Contains(target, ".cache") {
		return ReasonStaleCache
	}
	return ReasonNoPackageMatch
}

// confidenceFor scores how safe deletion is for entries under a
// target. Cache content is nearly always reclaimable; /etc is not.
func confidenceFor(target string) float64 {
	switch {
	case strings.Contains(target, ".cache"):
		return 0.95
	case strings.Contains(target, ".local/share"):
		return 0.75
	case strings.HasPrefix(target, "/etc"):
		return 0.50
	default:
		return 0.60
	}
}

// SortByConfidence orders paths most-confident first, ties broken by
// path for stable output.
func SortByConfidence(paths []ScannedPath) {
	sort.SliceStable(paths, func(i, j int) bool {
		if paths[i].Confidence != paths[j].Confidence {
			return paths[i].Confidence > paths[j].Confidence
		}
		return paths[i].Path < paths[j].Path
	})
}
