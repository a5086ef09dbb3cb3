package configs

import (
	"os"
	"path/filepath"
	"strings"
)

// protectedConfigPatterns lists glob patterns for configuration that
// must never be deleted. Patterns starting with ~ are expanded to the
// home directory before matching.
var protectedConfigPatterns = []string{
	// Desktop environment
	"~/.config/cosmic*",
	"~/.config/dconf",
	"~/.config/gtk-*",
	"~/.config/systemd",
	"~/.config/autostart",
	"~/.config/mimeapps.list",
	// Shell config
	"~/.bashrc",
	"~/.bash_profile",
	"~/.profile",
	"~/.zshrc",
	"~/.zprofile",
	"~/.config/zsh",
	"~/.config/bash",
	// Security
	"~/.ssh/*",
	"~/.gnupg/*",
	// popctl itself
	"~/.config/popctl",
	// Tooling people rarely want scrubbed
	"~/.config/docker",
	"~/.config/nvim",
	"~/.vimrc",
	"~/.gitconfig",
	"~/.config/git",
}

// IsProtectedConfig reports whether a configuration path must not be
// deleted.
func IsProtectedConfig(path string) bool {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return isProtectedConfig(path, home)
}

func isProtectedConfig(path, home string) bool {
	for _, pattern := range protectedConfigPatterns {
		expanded := pattern
		if strings.HasPrefix(pattern, "~") {
			if home == "" {
				continue
			}
			expanded = home + pattern[1:]
		}

		if ok, err := filepath.Match(expanded, path); err == nil && ok {
			return true
		}
		// A trailing /* also protects everything below that directory
		if strings.HasSuffix(expanded, "/*") &&
			strings.HasPrefix(path, strings.TrimSuffix(expanded, "*")) {
			return true
		}
	}
	return false
}
