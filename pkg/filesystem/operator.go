package filesystem

import (
	"context"
	"os"
	"strings"

	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/logging"
	"github.com/arthur-debert/popctl/pkg/shell"
)

// DeleteResult is the outcome of one path deletion.
type DeleteResult struct {
	Path    string
	Success bool
	Error   string
	DryRun  bool
}

// Operator deletes filesystem paths. Protected paths are rejected
// per path; failures are isolated so one stubborn path never blocks
// the rest.
type Operator struct {
	dryRun bool
	home   string
	run    func(ctx context.Context, argv []string, opts shell.Options) (shell.Result, error)
}

// NewOperator creates a filesystem delete operator.
func NewOperator(dryRun bool) *Operator {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return &Operator{dryRun: dryRun, home: home, run: shell.Run}
}

// Delete removes each path, returning one result per input.
func (o *Operator) Delete(ctx context.Context, paths []string) []DeleteResult {
	results := make([]DeleteResult, 0, len(paths))
	for _, path := range paths {
		if isProtectedPath(path, o.home) {
			results = append(results, DeleteResult{
				Path:  path,
				Error: "protected path cannot be deleted: " + path,
			})
			continue
		}
		results = append(results, o.deleteOne(ctx, path))
	}
	return results
}

func (o *Operator) deleteOne(ctx context.Context, path string) DeleteResult {
	logger := logging.GetLogger("filesystem.operator")

	if o.dryRun {
		logger.Info().Str("path", path).Msg("Dry-run: would delete")
		return DeleteResult{Path: path, Success: true, DryRun: true}
	}

	// /etc requires root
	if strings.HasPrefix(path, "/etc/") {
		result, err := o.run(ctx, []string{"sudo", "rm", "-rf", path}, shell.Options{})
		if err != nil {
			return DeleteResult{Path: path, Error: err.Error()}
		}
		if !result.Success() {
			msg := strings.TrimSpace(result.Stderr)
			if msg == "" {
				msg = "sudo rm failed"
			}
			return DeleteResult{Path: path, Error: msg}
		}
		return DeleteResult{Path: path, Success: true}
	}

	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DeleteResult{Path: path, Error: "path does not exist: " + path}
		}
		return DeleteResult{Path: path, Error: err.Error()}
	}

	if info.IsDir() {
		if err := os.RemoveAll(path); err != nil {
			return DeleteResult{Path: path,
				Error: errors.Wrapf(err, errors.ErrFileDelete, "cannot delete %s", path).Error()}
		}
		return DeleteResult{Path: path, Success: true}
	}

	if err := os.Remove(path); err != nil {
		return DeleteResult{Path: path,
			Error: errors.Wrapf(err, errors.ErrFileDelete, "cannot delete %s", path).Error()}
	}
	return DeleteResult{Path: path, Success: true}
}
