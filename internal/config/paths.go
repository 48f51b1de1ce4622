package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Environment overrides for the default locations.
const (
	EnvBHubHome        = "BHUB_HOME"
	EnvBHubInstallRoot = "BHUB_INSTALL_ROOT"
)

// LedgerFile is the install ledger's file name inside an install root.
const LedgerFile = ".bhub.db"

// DataDir returns the directory used to store bhub data.
func DataDir() (string, error) {
	if v := os.Getenv(EnvBHubHome); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".bhub"), nil
}

// EnsureDataDir creates the data directory if needed and returns it.
func EnsureDataDir() (string, error) {
	d, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(d, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return d, nil
}

// ConfigPath returns the settings file location.
func ConfigPath() (string, error) {
	d, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.yaml"), nil
}

// DefaultInstallRoot is where projects are installed when nothing else is
// configured.
func DefaultInstallRoot() (string, error) {
	if v := os.Getenv(EnvBHubInstallRoot); v != "" {
		return v, nil
	}
	d, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "apps"), nil
}

// LedgerPath returns the ledger database path for an install root.
func LedgerPath(installRoot string) string {
	return filepath.Join(installRoot, LedgerFile)
}
