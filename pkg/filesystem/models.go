// Package filesystem finds and cleans orphaned user data: directories
// and files under XDG locations that no installed package owns.
package filesystem

import (
	"github.com/arthur-debert/popctl/pkg/errors"
)

// PathType classifies one filesystem entry.
type PathType string

const (
	TypeDirectory   PathType = "directory"
	TypeFile        PathType = "file"
	TypeSymlink     PathType = "symlink"
	TypeDeadSymlink PathType = "dead_symlink"
)

// PathStatus is the ownership classification of a scanned path.
type PathStatus string

const (
	StatusOrphan    PathStatus = "orphan"
	StatusOwned     PathStatus = "owned"
	StatusProtected PathStatus = "protected"
	StatusUnknown   PathStatus = "unknown"
)

// OrphanReason explains why a path was classified as orphaned.
type OrphanReason string

const (
	ReasonNoPackageMatch OrphanReason = "no_package_match"
	ReasonPackageRemoved OrphanReason = "package_removed"
	ReasonStaleCache     OrphanReason = "stale_cache"
	ReasonDeadLink       OrphanReason = "dead_link"
)

// ScannedPath is one filesystem entry discovered during a scan.
// Confidence expresses how safe deletion is, from 0 to 1; cache
// entries score highest, /etc entries lowest.
type ScannedPath struct {
	Path         string       `json:"path"`
	Type         PathType     `json:"path_type"`
	Status       PathStatus   `json:"status"`
	SizeBytes    int64        `json:"size_bytes,omitempty"`
	MTime        string       `json:"mtime,omitempty"`
	ParentTarget string       `json:"parent_target"`
	Reason       OrphanReason `json:"orphan_reason,omitempty"`
	Confidence   float64      `json:"confidence"`
}

// Validate checks the invariants of a scanned path.
func (p ScannedPath) Validate() error {
	if p.Path == "" {
		return errors.New(errors.ErrInvalidInput, "scanned path cannot be empty")
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return errors.Newf(errors.ErrInvalidInput,
			"confidence must be between 0 and 1, got %g", p.Confidence)
	}
	return nil
}
