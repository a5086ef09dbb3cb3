package configs

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

// shellDotfiles are the loose home-directory dotfiles worth checking
// besides ~/.config. Most are protected by default; the scan still
// visits them so a deliberately unprotected one is reported.
var shellDotfiles = []string{
	".bashrc",
	".bash_profile",
	".profile",
	".zshrc",
	".zprofile",
	".vimrc",
	".gitconfig",
	".tmux.conf",
	".wgetrc",
	".curlrc",
}

// Deletion confidence by entry shape. A directory is almost always
// named after its application, so an absent app is a strong signal; a
// loose dotfile is weaker evidence.
const (
	confidenceDirectory = 0.70
	confidenceFile      = 0.60
)

// ScanOptions configures one config scan.
type ScanOptions struct {
	// Home overrides the home directory scanned.
	Home string
}

// Scanner classifies top-level ~/.config entries and shell dotfiles
// as owned, protected, or orphaned. Ownership checks go through
// dpkg -S, the installed package name list, and the flatpak/snap app
// lists.
type Scanner struct {
	home string
	run  func(ctx context.Context, argv []string, opts shell.Options) (shell.Result, error)
}

// NewScanner creates a config scanner.
func NewScanner(opts ScanOptions) *Scanner {
	home := opts.Home
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			home = ""
		}
	}
	return &Scanner{home: home, run: shell.Run}
}

// ownership holds lookups valid for exactly one scan.
type ownership struct {
	dpkg  map[string]bool
	names map[string]struct{}
}

// Scan returns the orphaned configuration entries, ~/.config entries
// first in name order, then the dotfiles. Protected and owned entries
// are skipped silently.
func (s *Scanner) Scan(ctx context.Context) []ScannedConfig {
	own := &ownership{dpkg: make(map[string]bool)}

	var found []ScannedConfig
	found = append(found, s.scanConfigDir(ctx, own)...)
	found = append(found, s.scanDotfiles(ctx, own)...)
	return found
}

func (s *Scanner) scanConfigDir(ctx context.Context, own *ownership) []ScannedConfig {
	logger := logging.GetLogger("configs.scanner")

	configDir := filepath.Join(s.home, ".config")
	entries, err := os.ReadDir(configDir)
	if err != nil {
		logger.Warn().Err(err).Str("dir", configDir).Msg("Cannot read config directory")
		return nil
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var found []ScannedConfig
	for _, entry := range entries {
		full := filepath.Join(configDir, entry.Name())
		if sc, ok := s.classify(ctx, entry.Name(), full, ReasonAppNotInstalled, own); ok {
			found = append(found, sc)
		}
	}
	return found
}

func (s *Scanner) scanDotfiles(ctx context.Context, own *ownership) []ScannedConfig {
	var found []ScannedConfig
	for _, name := range shellDotfiles {
		full := filepath.Join(s.home, name)
		if _, err := os.Lstat(full); err != nil {
			continue
		}
		if sc, ok := s.classify(ctx, strings.TrimPrefix(name, "."), full, ReasonNoPackageMatch, own); ok {
			found = append(found, sc)
		}
	}
	return found
}

// classify builds the orphan record for one entry, or reports false
// when the entry is owned or protected.
func (s *Scanner) classify(ctx context.Context, name, path string, reason OrphanReason, own *ownership) (ScannedConfig, bool) {
	logger := logging.GetLogger("configs.scanner")

	if isProtectedConfig(path, s.home) {
		return ScannedConfig{}, false
	}

	configType, err := classifyConfig(path)
	if err != nil {
		logger.Warn().Str("path", path).Msg("Cannot determine config type")
		return ScannedConfig{}, false
	}

	// A dead symlink is an orphan regardless of what dpkg says
	if configType == TypeDeadSymlink {
		return ScannedConfig{
			Path:       path,
			Type:       configType,
			Status:     StatusOrphan,
			MTime:      configMTime(path),
			Reason:     ReasonDeadLink,
			Confidence: confidenceFor(configType),
		}, true
	}

	if s.dpkgOwns(ctx, path, own) {
		return ScannedConfig{}, false
	}
	if s.nameMatches(ctx, name, own) {
		return ScannedConfig{}, false
	}

	return ScannedConfig{
		Path:       path,
		Type:       configType,
		Status:     StatusOrphan,
		SizeBytes:  configSize(path),
		MTime:      configMTime(path),
		Reason:     reason,
		Confidence: confidenceFor(configType),
	}, true
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

// nameMatches reports whether the entry name matches an installed
// package or app: exactly, normalized (case and separators dropped),
// or as a component of a reverse-DNS app ID ("firefox" matches
// "org.mozilla.firefox").
func (s *Scanner) nameMatches(ctx context.Context, name string, own *ownership) bool {
	if own.names == nil {
		own.names = s.installedNames(ctx)
	}

	nameLower := strings.ToLower(name)
	nameNorm := normalizeName(name)
	for installed := range own.names {
		installedLower := strings.ToLower(installed)
		if nameLower == installedLower || nameNorm == normalizeName(installed) {
			return true
		}
		if strings.Contains(installedLower, ".") {
			for _, component := range strings.Split(installedLower, ".") {
				if nameLower == component {
					return true
				}
			}
		}
	}
	return false
}

// normalizeName strips the characters that vary between a config
// entry and its package: "gtk-3.0" and "GTK3.0" both collapse to
// "gtk30".
func normalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, ".", "")
	return strings.ReplaceAll(name, "-", "")
}

// installedNames gathers dpkg package names plus flatpak and snap app
// IDs. Any tool being absent just yields an empty contribution.
func (s *Scanner) installedNames(ctx context.Context) map[string]struct{} {
	names := make(map[string]struct{})

	result, err := s.run(ctx, []string{"dpkg-query", "-W", "-f=${Package}\n"},
		shell.Options{Timeout: 30 * time.Second})
	if err == nil && result.Success() {
		for _, line := range strings.Split(strings.TrimSpace(result.Stdout), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				names[line] = struct{}{}
			}
		}
	}

	result, err = s.run(ctx, []string{"flatpak", "list", "--app", "--columns=application"},
		shell.Options{Timeout: 15 * time.Second})
	if err == nil && result.Success() {
		for _, line := range strings.Split(strings.TrimSpace(result.Stdout), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				names[line] = struct{}{}
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
				names[fields[0]] = struct{}{}
			}
		}
	}
	return names
}

func classifyConfig(path string) (ConfigType, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return "", err
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		// Live symlinks are classified by their target
		target, err := os.Stat(path)
		if err != nil {
			return TypeDeadSymlink, nil
		}
		if target.IsDir() {
			return TypeDirectory, nil
		}
		return TypeFile, nil
	}
	if info.IsDir() {
		return TypeDirectory, nil
	}
	return TypeFile, nil
}

func confidenceFor(configType ConfigType) float64 {
	if configType == TypeDirectory {
		return confidenceDirectory
	}
	return confidenceFile
}

// configSize returns the file size, or the recursive total for a
// directory. Zero on any error.
func configSize(path string) int64 {
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

func configMTime(path string) string {
	info, err := os.Lstat(path)
	if err != nil {
		return ""
	}
	return info.ModTime().UTC().Format(time.RFC3339)
}

// SortByConfidence orders configs most-confident first, ties broken
// by path for stable output.
func SortByConfidence(configs []ScannedConfig) {
	sort.SliceStable(configs, func(i, j int) bool {
		if configs[i].Confidence != configs[j].Confidence {
			return configs[i].Confidence > configs[j].Confidence
		}
		return configs[i].Path < configs[j].Path
	})
}
