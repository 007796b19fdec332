// Package local keeps the unsynced customer and product lists. Each list
// lives in one named slot that is rewritten whole on every change.
package local

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrInvalidSlot     = errors.New("invalid slot name")
)

var slotName = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Slots is a directory of JSON documents, one file per key.
type Slots struct {
	dir string
}

// NewSlots stores slots under dir
func NewSlots(dir string) *Slots {
	return &Slots{dir: dir}
}

func (s *Slots) path(key string) (string, error) {
	if !slotName.MatchString(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSlot, key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// Load decodes slot key into v. It reports false when the slot was never
// written.
func (s *Slots) Load(key string, v any) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}

	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read slot %s: %w", key, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode slot %s: %w", key, err)
	}
	return true, nil
}

// Save replaces slot key with v
func (s *Slots) Save(key string, v any) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode slot %s: %w", key, err)
	}

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create local directory: %w", err)
	}

	// write then rename so a crash never leaves half a document
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write slot %s: %w", key, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("failed to replace slot %s: %w", key, err)
	}
	return nil
}

// Remove deletes slot key. Removing a missing slot is not an error.
func (s *Slots) Remove(key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove slot %s: %w", key, err)
	}
	return nil
}
