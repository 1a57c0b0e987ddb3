// pkg/store/store.go - key-value persistence for installer state.
//
// The setup core records two pieces of state between runs: the installed
// version string and the tray autostart entry. Both live behind this
// interface so tests can substitute an in-memory store for the registry.

package store

// Store is a flat set of named string values. Set and Delete are idempotent;
// deleting an absent value is not an error.
type Store interface {
	// Get returns the value and whether it exists.
	Get(name string) (string, bool, error)
	Set(name, value string) error
	Delete(name string) error
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	values map[string]string
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{values: make(map[string]string)}
}

func (m *MemStore) Get(name string) (string, bool, error) {
	v, ok := m.values[name]
	return v, ok, nil
}

func (m *MemStore) Set(name, value string) error {
	m.values[name] = value
	return nil
}

func (m *MemStore) Delete(name string) error {
	delete(m.values, name)
	return nil
}
