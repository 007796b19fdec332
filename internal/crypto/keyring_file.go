package crypto

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type fileKeyring struct {
	dir string
}

// NewFileKeyring reads secrets from INVOICER_<NAME> environment variables,
// falling back to owner-only files under dir/secrets.
func NewFileKeyring(dir string) Keyring {
	return &fileKeyring{dir: filepath.Join(dir, "secrets")}
}

func (k *fileKeyring) path(name string) string {
	return filepath.Join(k.dir, filepath.Base(name))
}

// Get retrieves name from the environment, then from disk
func (k *fileKeyring) Get(name string) (string, error) {
	if v := os.Getenv(EnvName(name)); v != "" {
		return v, nil
	}

	data, err := os.ReadFile(k.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s not set (export %s): %w", name, EnvName(name), ErrSecretNotFound)
		}
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}

	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", fmt.Errorf("%s is empty: %w", name, ErrSecretNotFound)
	}
	return value, nil
}

// Set writes name to disk with 0600 permissions
func (k *fileKeyring) Set(name, value string) error {
	if value == "" {
		return errors.New("secret cannot be empty")
	}

	if err := os.MkdirAll(k.dir, 0700); err != nil {
		return fmt.Errorf("failed to create secrets directory: %w", err)
	}

	if err := os.WriteFile(k.path(name), []byte(value), 0600); err != nil {
		return fmt.Errorf("failed to store %s: %w", name, err)
	}
	return nil
}

// Delete removes the stored file. A value supplied through the environment
// has to be unset by the user.
func (k *fileKeyring) Delete(name string) error {
	err := os.Remove(k.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s not stored: %w", name, ErrSecretNotFound)
		}
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

// IsAvailable reports whether the secrets directory can be written
func (k *fileKeyring) IsAvailable() bool {
	if err := os.MkdirAll(k.dir, 0700); err != nil {
		return false
	}
	probe := filepath.Join(k.dir, ".probe")
	if err := os.WriteFile(probe, nil, 0600); err != nil {
		return false
	}
	_ = os.Remove(probe)
	return true
}
