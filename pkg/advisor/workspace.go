package advisor

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/logging"
	"github.com/arthur-debert/popctl/pkg/paths"
)

// Workspace file names.
const (
	ScanFileName      = "scan.json"
	PromptFileName    = "prompt.txt"
	DecisionsFileName = "decisions.toml"
	OutputDirName     = "output"
)

// sessionTimeFormat names session directories so lexical order equals
// chronological order.
const sessionTimeFormat = "20060102T150405"

// NewSession creates a timestamped workspace under sessionsDir holding
// everything an agent session needs: the scan export, the prompt, a
// copy of the manifest, and an output directory for decisions.
// Returns the session directory path.
func NewSession(sessionsDir string, export ScanExport, manifestPath string) (string, error) {
	logger := logging.GetLogger("advisor.workspace")

	sessionDir := filepath.Join(sessionsDir, time.Now().UTC().Format(sessionTimeFormat))
	if err := paths.EnsureDir(filepath.Join(sessionDir, OutputDirName)); err != nil {
		return "", err
	}

	if err := WriteScanExport(export, filepath.Join(sessionDir, ScanFileName)); err != nil {
		return "", err
	}

	prompt := buildPrompt(sessionDir)
	if err := os.WriteFile(filepath.Join(sessionDir, PromptFileName), []byte(prompt), 0644); err != nil {
		return "", errors.Wrap(err, errors.ErrFileAccess, "cannot write session prompt")
	}

	// A manifest copy gives the agent the current declared state; its
	// absence just means a fresh system.
	if manifestPath != "" {
		if err := copyFile(manifestPath, filepath.Join(sessionDir, "manifest.toml")); err != nil {
			logger.Warn().Err(err).Msg("Cannot copy manifest into session workspace")
		}
	}

	return sessionDir, nil
}

// ListSessions returns the session directories newest first.
func ListSessions(sessionsDir string) []string {
	entries, err := os.ReadDir(sessionsDir)
	if err != nil {
		return nil
	}

	var sessions []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			sessions = append(sessions, filepath.Join(sessionsDir, entry.Name()))
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(sessions)))
	return sessions
}

// LatestDecisions finds the newest session that produced a decisions
// document and returns its path.
func LatestDecisions(sessionsDir string) (string, error) {
	for _, session := range ListSessions(sessionsDir) {
		candidate := filepath.Join(session, OutputDirName, DecisionsFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", errors.Newf(errors.ErrNotFound, "no session under %s has produced decisions", sessionsDir)
}

func buildPrompt(sessionDir string) string {
	scanPath := filepath.Join(sessionDir, ScanFileName)
	decisionsPath := filepath.Join(sessionDir, OutputDirName, DecisionsFileName)

	var b strings.Builder
	b.WriteString("You are classifying installed packages on a Pop!_OS system.\n\n")
	b.WriteString("Read the package inventory from:\n  " + scanPath + "\n\n")
	b.WriteString("The file manifest.toml in the same directory, if present, holds the\n")
	b.WriteString("current declared state; packages already listed there are settled.\n\n")
	b.WriteString("For every package in the \"unknown\" group decide keep, remove, or ask.\n")
	b.WriteString("Write your decisions as TOML to:\n  " + decisionsPath + "\n\n")
	b.WriteString("Format, one [[packages.<source>.<decision>]] block per package:\n\n")
	b.WriteString("  [[packages.apt.keep]]\n")
	b.WriteString("  name = \"vim\"\n")
	b.WriteString("  reason = \"editor in daily use\"\n")
	b.WriteString("  confidence = 0.9\n")
	b.WriteString("  category = \"development\"\n\n")
	b.WriteString("Sources are apt, flatpak, and snap. Confidence is 0.0-1.0.\n")
	b.WriteString("Use \"ask\" when the call genuinely needs the user.\n")
	return b.String()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
