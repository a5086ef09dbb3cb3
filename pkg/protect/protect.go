// Package protect defines the process-wide set of package names and
// glob patterns that may never be targeted for removal, regardless of
// manifest or diff content. The set is static configuration with no
// runtime mutation path.
package protect

import (
	"path"
	"strings"
)

// patterns are glob-style patterns matching critical system packages.
var patterns = []string{
	// Kernel and boot
	"linux-*",
	"grub-*",
	"initramfs-tools*",
	// System core
	"systemd*",
	"dbus*",
	"udev*",
	// Pop!_OS specific
	"pop-*",
	"cosmic-*",
	"system76-*",
	"kernelstub*",
	// Package management
	"apt*",
	"dpkg*",
	"flatpak",
	// Snap infrastructure
	"core*",
	"snapd*",
	// Essential system libs
	"libc6*",
	"libsystemd*",
	"libnss*",
	"libpam*",
	// Network essentials
	"networkmanager*",
	"network-manager*",
	// Display and session
	"gdm*",
	"plymouth*",
	// Recovery
	"pop-upgrade*",
	"system76-firmware*",
}

// exact is the set of explicitly protected package names.
var exact = map[string]struct{}{
	// Core utilities that must exist
	"bash":       {},
	"coreutils":  {},
	"util-linux": {},
	"sudo":       {},
	"passwd":     {},
	"login":      {},
	// Essential networking
	"iproute2": {},
	"netbase":  {},
	"hostname": {},
	// Package management
	"apt":       {},
	"dpkg":      {},
	"apt-utils": {},
	// Init and services
	"init":         {},
	"systemd":      {},
	"systemd-sysv": {},
	// Snap infrastructure
	"snapd": {},
	"bare":  {},
}

// IsProtected reports whether a package may never be removed.
// Matching is case-insensitive; exact names are checked before patterns.
func IsProtected(name string) bool {
	if _, ok := exact[name]; ok {
		return true
	}

	lower := strings.ToLower(name)
	for _, pattern := range patterns {
		if ok, err := path.Match(strings.ToLower(pattern), lower); err == nil && ok {
			return true
		}
	}
	return false
}

// Patterns returns a copy of the protected glob patterns.
func Patterns() []string {
	out := make([]string, len(patterns))
	copy(out, patterns)
	return out
}

// Names returns a copy of the explicitly protected package names.
func Names() []string {
	out := make([]string, 0, len(exact))
	for name := range exact {
		out = append(out, name)
	}
	return out
}
