// Package xdg resolves XDG Base Directory paths for datashelf.
// It falls back to traditional dot-directories when the XDG environment
// variables are unset and creates directories with private permissions,
// since the config dir can reference credential material.
package xdg

import (
	"os"
	"path/filepath"
)

// ConfigDir returns the XDG config directory for datashelf.
// The directory is created with private permissions (0700) if missing.
// It falls back to ~/.config/datashelf when XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	dir := filepath.Join(base, "datashelf")
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}
