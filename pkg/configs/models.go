// Package configs finds and cleans orphaned user configuration:
// top-level ~/.config entries and shell dotfiles whose application is
// no longer installed. Deletions are backed up first, unlike general
// filesystem cleanup.
package configs

import (
	"github.com/arthur-debert/popctl/pkg/errors"
)

// ConfigType classifies one configuration entry.
type ConfigType string

const (
	TypeDirectory   ConfigType = "directory"
	TypeFile        ConfigType = "file"
	TypeDeadSymlink ConfigType = "dead_symlink"
)

// ConfigStatus is the ownership classification of a scanned config.
type ConfigStatus string

const (
	StatusOrphan    ConfigStatus = "orphan"
	StatusOwned     ConfigStatus = "owned"
	StatusProtected ConfigStatus = "protected"
)

// OrphanReason explains why a config was classified as orphaned.
type OrphanReason string

const (
	ReasonAppNotInstalled OrphanReason = "app_not_installed"
	ReasonNoPackageMatch  OrphanReason = "no_package_match"
	ReasonDeadLink        OrphanReason = "dead_link"
)

// ScannedConfig is one configuration entry discovered during a scan.
// Confidence expresses how safe deletion is, from 0 to 1; directories
// named after an absent application score higher than loose dotfiles.
type ScannedConfig struct {
	Path       string       `json:"path"`
	Type       ConfigType   `json:"config_type"`
	Status     ConfigStatus `json:"status"`
	SizeBytes  int64        `json:"size_bytes,omitempty"`
	MTime      string       `json:"mtime,omitempty"`
	Reason     OrphanReason `json:"orphan_reason,omitempty"`
	Confidence float64      `json:"confidence"`
}

// Validate checks the invariants of a scanned config.
func (c ScannedConfig) Validate() error {
	if c.Path == "" {
		return errors.New(errors.ErrInvalidInput, "scanned config path cannot be empty")
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return errors.Newf(errors.ErrInvalidInput,
			"confidence must be between 0 and 1, got %g", c.Confidence)
	}
	return nil
}
