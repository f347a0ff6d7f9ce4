package secret

import (
	"fmt"
	"strings"
	"sync"
)

// SecretStore keeps sensitive values such as catalog database passwords
// out of the config file.
type SecretStore interface {
	// Set stores a secret value under the given key.
	Set(key string, value []byte) error

	// Get retrieves the secret value for the given key.
	// Returns empty slice and nil error if key does not exist.
	Get(key string) ([]byte, error)

	// Delete removes the secret for the given key.
	Delete(key string) error
}

// CatalogKey names the secret of one catalog database.
func CatalogKey(driver, host, database string) string {
	if driver == "" {
		driver = "sqlite"
	}
	return fmt.Sprintf("catalog:%s@%s/%s", strings.ToLower(driver), host, database)
}

// MemoryStore is an in-process SecretStore.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string][]byte{}}
}

func (m *MemoryStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Resolve returns explicit when set, otherwise the stored secret for key.
func Resolve(store SecretStore, key, explicit string) (string, error) {
	if explicit != "" || store == nil {
		return explicit, nil
	}
	v, err := store.Get(key)
	if err != nil {
		return "", fmt.Errorf("read secret %s: %w", key, err)
	}
	return string(v), nil
}
