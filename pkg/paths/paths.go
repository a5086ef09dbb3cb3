// Package paths provides centralized path handling for popctl.
// It follows the XDG Base Directory specification and exposes a
// consistent API for every file the tool reads or writes.
package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/popctl/pkg/errors"
)

// Environment variable names
const (
	// EnvConfigDir overrides the XDG config directory for popctl
	EnvConfigDir = "POPCTL_CONFIG_DIR"

	// EnvStateDir overrides the XDG state directory for popctl
	EnvStateDir = "POPCTL_STATE_DIR"

	// EnvCacheDir overrides the XDG cache directory for popctl
	EnvCacheDir = "POPCTL_CACHE_DIR"
)

// Well-known file and directory names. These define popctl's on-disk
// layout and are not user-configurable.
const (
	// AppDirName is the directory name used under each XDG base directory
	AppDirName = "popctl"

	// ConfigFileName is the application configuration file
	ConfigFileName = "config.toml"

	// ManifestFileName is the declared-state manifest
	ManifestFileName = "manifest.toml"

	// HistoryFileName is the append-only history log
	HistoryFileName = "history.jsonl"

	// LastScanFileName caches the most recent scan export
	LastScanFileName = "last-scan.json"

	// AdvisorSessionsDirName holds per-session advisor workspaces
	AdvisorSessionsDirName = "advisor-sessions"

	// ConfigBackupsDirName holds timestamped backups taken before
	// config deletion
	ConfigBackupsDirName = "config-backups"

	// LogFileName is the name of the log file
	LogFileName = "popctl.log"
)

// Paths provides centralized path management for popctl
type Paths interface {
	ConfigDir() string
	StateDir() string
	CacheDir() string
	ConfigFile() string
	ManifestFile() string
	HistoryFile() string
	LastScanFile() string
	AdvisorSessionsDir() string
	ConfigBackupsDir() string
	LogFile() string
}

type paths struct {
	configDir string
	stateDir  string
	cacheDir  string
}

// New creates a Paths instance, resolving each base directory from the
// POPCTL_* environment overrides first and the XDG defaults second.
func New() Paths {
	return &paths{
		configDir: resolveDir(EnvConfigDir, xdg.ConfigHome),
		stateDir:  resolveDir(EnvStateDir, xdg.StateHome),
		cacheDir:  resolveDir(EnvCacheDir, xdg.CacheHome),
	}
}

func resolveDir(envVar, xdgBase string) string {
	if override := os.Getenv(envVar); override != "" {
		return override
	}
	return filepath.Join(xdgBase, AppDirName)
}

func (p *paths) ConfigDir() string { return p.configDir }
func (p *paths) StateDir() string  { return p.stateDir }
func (p *paths) CacheDir() string  { return p.cacheDir }

func (p *paths) ConfigFile() string {
	return filepath.Join(p.configDir, ConfigFileName)
}

func (p *paths) ManifestFile() string {
	return filepath.Join(p.configDir, ManifestFileName)
}

func (p *paths) HistoryFile() string {
	return filepath.Join(p.stateDir, HistoryFileName)
}

func (p *paths) LastScanFile() string {
	return filepath.Join(p.stateDir, LastScanFileName)
}

func (p *paths) AdvisorSessionsDir() string {
	return filepath.Join(p.stateDir, AdvisorSessionsDirName)
}

func (p *paths) ConfigBackupsDir() string {
	return filepath.Join(p.stateDir, ConfigBackupsDirName)
}

func (p *paths) LogFile() string {
	return filepath.Join(p.stateDir, LogFileName)
}

// EnsureDir creates a directory (and parents) if it does not exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "cannot create directory %s", dir)
	}
	return nil
}
