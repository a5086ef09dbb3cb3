// Package shell runs external package-manager commands with captured
// output and explicit timeouts. All scanner, operator, and advisor
// subprocess use goes through this package.
package shell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	popctlerrors "github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/logging"
)

// DefaultTimeout bounds commands that do not set their own timeout.
const DefaultTimeout = 60 * time.Second

// Options adjusts how a command is run.
type Options struct {
	// Timeout overrides DefaultTimeout when positive.
	Timeout time.Duration

	// Env entries are appended to the current process environment.
	Env []string
}

// Result captures the outcome of one command invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Success reports whether the command exited zero.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Run executes argv with captured output. A non-zero exit status is not
// an error; it is reported through Result.ExitCode. Errors are reserved
// for missing binaries, timeouts, and other transport failures.
func Run(ctx context.Context, argv []string, opts Options) (Result, error) {
	logger := logging.GetLogger("shell")

	if len(argv) == 0 {
		return Result{}, popctlerrors.New(popctlerrors.ErrInvalidInput, "command cannot be empty")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger.Debug().Strs("argv", argv).Dur("timeout", timeout).Msg("Running command")

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return result, popctlerrors.Newf(popctlerrors.ErrOperationFailed,
				"command %q timed out after %s", argv[0], timeout)
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			logger.Debug().
				Str("command", argv[0]).
				Int("exitCode", result.ExitCode).
				Str("stderr", strings.TrimSpace(result.Stderr)).
				Msg("Command exited non-zero")
			return result, nil
		}

		// Missing binary or other start failure
		return result, popctlerrors.Wrapf(err, popctlerrors.ErrUnavailable,
			"cannot run command %q", argv[0])
	}

	return result, nil
}

// Exists reports whether a command is available on PATH.
func Exists(command string) bool {
	_, err := exec.LookPath(command)
	return err == nil
}
