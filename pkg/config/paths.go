package config

import (
	"fmt"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// DefaultCertPath returns ~/keys/ssl for the invoking user.
func DefaultCertPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, "keys", "ssl"), nil
}

// ExpandPath resolves a leading ~ in paths taken from flags, env or YAML.
func ExpandPath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("failed to expand path %s: %w", path, err)
	}
	return filepath.Clean(expanded), nil
}
