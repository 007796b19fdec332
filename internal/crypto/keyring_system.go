package crypto

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

type systemKeyring struct{}

// NewSystemKeyring stores secrets in the OS keychain
func NewSystemKeyring() Keyring {
	return &systemKeyring{}
}

// Get retrieves a secret from the keychain
func (k *systemKeyring) Get(name string) (string, error) {
	value, err := keyring.Get(ServiceName, name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("%s not found in keychain: %w", name, ErrSecretNotFound)
		}
		return "", fmt.Errorf("failed to retrieve %s from keychain: %w", name, err)
	}

	if value == "" {
		return "", fmt.Errorf("%s is empty: %w", name, ErrSecretNotFound)
	}

	return value, nil
}

// Set stores a secret in the keychain
func (k *systemKeyring) Set(name, value string) error {
	if value == "" {
		return errors.New("secret cannot be empty")
	}

	if err := keyring.Set(ServiceName, name, value); err != nil {
		return fmt.Errorf("failed to store %s in keychain: %w", name, err)
	}

	return nil
}

// Delete removes a secret from the keychain
func (k *systemKeyring) Delete(name string) error {
	err := keyring.Delete(ServiceName, name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("%s not found in keychain: %w", name, ErrSecretNotFound)
		}
		return fmt.Errorf("failed to delete %s from keychain: %w", name, err)
	}

	return nil
}

// IsAvailable checks if the keychain is accessible
func (k *systemKeyring) IsAvailable() bool {
	// round-trip a throwaway entry
	testKey := "__invoicer_availability_test__"
	if err := keyring.Set(ServiceName, testKey, "test"); err != nil {
		return false
	}

	_ = keyring.Delete(ServiceName, testKey)
	return true
}
