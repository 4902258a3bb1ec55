// Package paths resolves where linkctl keeps its configuration and its
// link-target catalog.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// appName names the per-user directories.
const appName = "internallink"

// Environment variables overriding the directories.
const (
	EnvConfigDir  = "INTERNALLINK_CONFIG_DIR"
	EnvCatalogDir = "INTERNALLINK_CATALOG_DIR"
)

// catalogSubdir is the catalog directory below the data directory.
const catalogSubdir = "catalog"

// platformDir holds platform lookups that tests override.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the per-user configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/internallink (fallback ~/.config/internallink)
// macOS:   ~/Library/Application Support/internallink
// Windows: %APPDATA%/internallink
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// DefaultCatalogDir returns the per-user catalog directory.
//
// Linux:   $XDG_DATA_HOME/internallink/catalog (fallback ~/.local/share/...)
// Others:  <user config dir>/internallink/catalog
func DefaultCatalogDir() (string, error) {
	if runtime.GOOS == "linux" {
		dir, err := xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, catalogSubdir), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, catalogSubdir), nil
}

func xdgDir(env, fallback string) (string, error) {
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, appName), nil
}

// ResolveConfigDir applies flag > INTERNALLINK_CONFIG_DIR > platform default.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveCatalogDir applies flag > catalog_dir from config >
// INTERNALLINK_CATALOG_DIR > platform default.
func ResolveCatalogDir(flag, configValue string) (string, error) {
	for _, v := range []string{flag, configValue, os.Getenv(EnvCatalogDir)} {
		if v != "" {
			return filepath.Abs(v)
		}
	}
	return DefaultCatalogDir()
}
