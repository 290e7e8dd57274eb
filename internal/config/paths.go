// Package config provides configuration management for devdrive.
package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Paths holds platform-specific directory paths for devdrive.
type Paths struct {
	// ConfigDir is the per-user configuration directory.
	// Windows: %AppData%\devdrive
	// Linux: ~/.config/devdrive (or XDG_CONFIG_HOME)
	ConfigDir string

	// ConfigFile is the path to the per-user config file.
	ConfigFile string
}

// GetPaths returns platform-aware paths for devdrive.
func GetPaths() (*Paths, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}

	p := &Paths{ConfigDir: filepath.Join(base, "devdrive")}
	p.ConfigFile = filepath.Join(p.ConfigDir, "devdrive.yaml")
	return p, nil
}

var windowsAbs = regexp.MustCompile(`^[A-Za-z]:[\\/]`)

// IsAbsHostPath reports whether p is absolute either on this host or as a
// Windows drive or UNC path. Backing paths are Windows paths even when the
// configuration is checked elsewhere.
func IsAbsHostPath(p string) bool {
	return filepath.IsAbs(p) || windowsAbs.MatchString(p) || strings.HasPrefix(p, `\\`)
}
