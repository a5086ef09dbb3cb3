package configs

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/logging"
	"github.com/arthur-debert/popctl/pkg/paths"
)

// DeleteResult is the outcome of one config deletion.
type DeleteResult struct {
	Path       string
	Success    bool
	Error      string
	DryRun     bool
	BackupPath string
}

// Operator deletes configuration paths, backing each one up first.
// All deletions in one batch share a timestamped backup directory;
// a failed backup is logged but never blocks the deletion. Protected
// paths are rejected per path.
type Operator struct {
	dryRun     bool
	home       string
	backupRoot string
}

// NewOperator creates a config delete operator. Backups land in
// timestamped directories under backupRoot.
func NewOperator(dryRun bool, backupRoot string) *Operator {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return &Operator{dryRun: dryRun, home: home, backupRoot: backupRoot}
}

// Delete removes each path, returning one result per input.
func (o *Operator) Delete(configPaths []string) []DeleteResult {
	batchDir := ""

	results := make([]DeleteResult, 0, len(configPaths))
	for _, path := range configPaths {
		if isProtectedConfig(path, o.home) {
			results = append(results, DeleteResult{
				Path:  path,
				Error: "protected config cannot be deleted: " + path,
			})
			continue
		}
		results = append(results, o.deleteOne(path, &batchDir))
	}
	return results
}

func (o *Operator) deleteOne(path string, batchDir *string) DeleteResult {
	logger := logging.GetLogger("configs.operator")

	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DeleteResult{Path: path, Error: "path does not exist: " + path}
		}
		return DeleteResult{Path: path, Error: err.Error()}
	}

	if o.dryRun {
		logger.Info().Str("path", path).Msg("Dry-run: would delete")
		return DeleteResult{Path: path, Success: true, DryRun: true}
	}

	backupPath, err := o.backup(path, info.IsDir(), batchDir)
	if err != nil {
		// Backup failure is non-fatal; deletion proceeds
		logger.Warn().Err(err).Str("path", path).Msg("Backup failed")
		backupPath = ""
	}

	if info.IsDir() {
		if err := os.RemoveAll(path); err != nil {
			return DeleteResult{Path: path, BackupPath: backupPath,
				Error: errors.Wrapf(err, errors.ErrFileDelete, "cannot delete %s", path).Error()}
		}
	} else {
		if err := os.Remove(path); err != nil {
			return DeleteResult{Path: path, BackupPath: backupPath,
				Error: errors.Wrapf(err, errors.ErrFileDelete, "cannot delete %s", path).Error()}
		}
	}
	return DeleteResult{Path: path, Success: true, BackupPath: backupPath}
}

// backup copies a path into the batch backup directory, preserving
// its home-relative layout so restoring by hand is obvious. The batch
// directory is created lazily on the first backup.
func (o *Operator) backup(path string, isDir bool, batchDir *string) (string, error) {
	if *batchDir == "" {
		dir := filepath.Join(o.backupRoot, time.Now().UTC().Format("20060102T150405Z"))
		if err := paths.EnsureDir(dir); err != nil {
			return "", err
		}
		*batchDir = dir
	}

	relative := filepath.Base(path)
	if o.home != "" && strings.HasPrefix(path, o.home+"/") {
		relative = strings.TrimPrefix(path, o.home+"/")
	}
	dest := filepath.Join(*batchDir, relative)
	if err := paths.EnsureDir(filepath.Dir(dest)); err != nil {
		return "", err
	}

	if isDir {
		if err := copyTree(path, dest); err != nil {
			return "", err
		}
	} else {
		if err := copyFile(path, dest); err != nil {
			return "", err
		}
	}
	return dest, nil
}

func copyTree(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relative, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, relative)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if !d.Type().IsRegular() {
			return nil // symlinks and specials are not backed up
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
