package utils

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
)

// AppName names the config and data directories.
const AppName = "rootsearch"

// ConfigHome returns the platform config root without the app suffix.
func ConfigHome() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	switch runtime.GOOS {
	case "linux":
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			return configHome, nil
		}
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return appData, nil
		}
		return filepath.Join(homeDir, "AppData", "Roaming"), nil
	}
	return filepath.Join(homeDir, ".config"), nil
}

// ExpandPath resolves "~/" against the home directory and relative paths
// against base. Empty paths stay empty.
func ExpandPath(path, base string) string {
	if path == "" {
		return ""
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Warnf("Could not expand %s: %v", path, err)
			return path
		}
		return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
	}
	if filepath.IsAbs(path) || base == "" {
		return path
	}
	return filepath.Join(base, path)
}
