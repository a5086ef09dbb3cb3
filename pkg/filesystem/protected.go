package filesystem

import (
	"os"
	"path/filepath"
	"strings"
)

// protectedPathPatterns lists glob patterns for paths that must never
// be deleted. Patterns starting with ~ are expanded to the home
// directory before matching.
var protectedPathPatterns = []string{
	// SSH and security
	"~/.ssh/*",
	"~/.gnupg/*",
	"~/.gpg/*",
	// Shell config
	"~/.config/zsh",
	"~/.config/bash",
	// XDG directories
	"~/.config/autostart",
	"~/.config/mimeapps.list",
	"~/.local/share/applications",
	"~/.local/share/icons",
	"~/.local/share/fonts",
	// Desktop environment
	"~/.config/cosmic*",
	"~/.config/dconf",
	"~/.config/gtk-*",
	"~/.config/systemd",
	// popctl itself
	"~/.config/popctl",
	"~/.local/share/popctl",
	"~/.local/state/popctl",
	// Package manager data
	"~/.local/share/flatpak",
	"~/.local/share/snap",
	// Container runtime
	"~/.config/docker",
	"~/.local/share/docker",
	"~/.local/share/containers",
	// Keyrings
	"~/.local/share/keyrings",
	// System (/etc)
	"/etc/fstab",
	"/etc/hosts",
	"/etc/hostname",
	"/etc/passwd",
	"/etc/shadow",
	"/etc/group",
	"/etc/sudoers*",
	"/etc/ssh/*",
	"/etc/ssl/*",
	"/etc/systemd/*",
	"/etc/NetworkManager/*",
	"/etc/apt/*",
	"/etc/dpkg/*",
	"/etc/default/*",
	"/etc/security/*",
	"/etc/pam.d/*",
}

// IsProtectedPath reports whether an absolute path must not be
// deleted.
func IsProtectedPath(path string) bool {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return isProtectedPath(path, home)
}

func isProtectedPath(path, home string) bool {
	for _, pattern := range protectedPathPatterns {
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
