package advisor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arthur-debert/popctl/pkg/config"
	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/shell"
)

// RunResult is the outcome of one headless agent run.
type RunResult struct {
	Output        string
	DecisionsPath string
}

// Runner drives the external AI agent CLI.
type Runner struct {
	cfg config.AdvisorConfig
	run func(ctx context.Context, argv []string, opts shell.Options) (shell.Result, error)
}

// NewRunner creates a runner for the configured provider.
func NewRunner(cfg config.AdvisorConfig) *Runner {
	return &Runner{cfg: cfg, run: shell.Run}
}

// Available reports whether the provider CLI is on PATH.
func (r *Runner) Available() bool {
	return shell.Exists(r.cfg.Provider)
}

// RunHeadless executes the agent autonomously against a prepared
// session workspace. The agent must leave decisions.toml in the
// session's output directory; a run that exits cleanly without it is
// still a failure.
func (r *Runner) RunHeadless(ctx context.Context, sessionDir string) (*RunResult, error) {
	promptPath := filepath.Join(sessionDir, PromptFileName)
	prompt, err := os.ReadFile(promptPath)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrAdvisorRun, "cannot read session prompt %s", promptPath)
	}

	argv := r.buildArgv(string(prompt))
	result, err := r.run(ctx, argv, shell.Options{
		Timeout: time.Duration(r.cfg.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrAdvisorRun, "%s agent failed", r.cfg.Provider)
	}
	if !result.Success() {
		msg := strings.TrimSpace(result.Stderr)
		if msg == "" {
			msg = fmt.Sprintf("agent exited with code %d", result.ExitCode)
		}
		return nil, errors.Newf(errors.ErrAdvisorRun, "%s agent failed: %s", r.cfg.Provider, msg)
	}

	decisionsPath := filepath.Join(sessionDir, OutputDirName, DecisionsFileName)
	if _, err := os.Stat(decisionsPath); err != nil {
		return nil, errors.Newf(errors.ErrAdvisorRun,
			"agent completed but wrote no decisions to %s", decisionsPath)
	}

	return &RunResult{Output: result.Stdout, DecisionsPath: decisionsPath}, nil
}

// InteractiveInstructions renders the manual-session help text: which
// files were prepared and how to start the agent by hand.
func (r *Runner) InteractiveInstructions(sessionDir string) string {
	var cmd string
	switch r.cfg.Provider {
	case config.ProviderGemini:
		cmd = fmt.Sprintf("gemini --prompt \"$(cat %s/%s)\"", sessionDir, PromptFileName)
	default:
		cmd = fmt.Sprintf("claude --print \"$(cat %s/%s)\" --output-format json", sessionDir, PromptFileName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Session workspace: %s\n\n", sessionDir)
	b.WriteString("Files prepared:\n")
	fmt.Fprintf(&b, "  %s/%s      (package inventory)\n", sessionDir, ScanFileName)
	fmt.Fprintf(&b, "  %s/%s     (classification prompt)\n", sessionDir, PromptFileName)
	fmt.Fprintf(&b, "  %s/manifest.toml  (current manifest, if any)\n\n", sessionDir)
	fmt.Fprintf(&b, "To run the %s agent manually:\n\n  %s\n\n", r.cfg.Provider, cmd)
	fmt.Fprintf(&b, "The agent should write:\n  %s/%s/%s\n\n", sessionDir, OutputDirName, DecisionsFileName)
	b.WriteString("Then run: popctl advisor apply\n")
	return b.String()
}

func (r *Runner) buildArgv(prompt string) []string {
	switch r.cfg.Provider {
	case config.ProviderGemini:
		return []string{"gemini", "--prompt", prompt}
	default:
		return []string{"claude", "--print", prompt, "--output-format", "json"}
	}
}
