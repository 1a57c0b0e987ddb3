// pkg/store/registry.go - registry-backed Store.

package store

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"
)

// RegistryStore reads and writes string values under a fixed key.
type RegistryStore struct {
	root registry.Key
	path string
}

// NewMachineStore returns a Store over a machine-wide registry key.
func NewMachineStore(path string) *RegistryStore {
	return &RegistryStore{root: registry.LOCAL_MACHINE, path: path}
}

// NewUserStore returns a Store over a per-user registry key.
func NewUserStore(path string) *RegistryStore {
	return &RegistryStore{root: registry.CURRENT_USER, path: path}
}

func (s *RegistryStore) Get(name string) (string, bool, error) {
	k, err := registry.OpenKey(s.root, s.path, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to open registry key %s: %w", s.path, err)
	}
	defer k.Close()

	val, _, err := k.GetStringValue(name)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read %s\\%s: %w", s.path, name, err)
	}
	return val, true, nil
}

func (s *RegistryStore) Set(name, value string) error {
	k, _, err := registry.CreateKey(s.root, s.path, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to create registry key %s: %w", s.path, err)
	}
	defer k.Close()

	if err := k.SetStringValue(name, value); err != nil {
		return fmt.Errorf("failed to write %s\\%s: %w", s.path, name, err)
	}
	return nil
}

func (s *RegistryStore) Delete(name string) error {
	k, err := registry.OpenKey(s.root, s.path, registry.SET_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to open registry key %s: %w", s.path, err)
	}
	defer k.Close()

	if err := k.DeleteValue(name); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return fmt.Errorf("failed to delete %s\\%s: %w", s.path, name, err)
	}
	return nil
}
