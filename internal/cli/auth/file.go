package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const storageFileName = "storage.json"

// FileStorage persists values as a JSON object in <dir>/storage.json.
// It is the fallback for machines without a usable keyring.
type FileStorage struct {
	mu   sync.Mutex
	path string
}

func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{path: filepath.Join(dir, storageFileName)}
}

// Path returns the location of the storage file
func (f *FileStorage) Path() string {
	return f.path
}

func (f *FileStorage) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (f *FileStorage) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		// An unreadable file must not block writing a fresh value
		values = make(map[string]string)
	}
	values[key] = value
	return f.save(values)
}

func (f *FileStorage) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		values = make(map[string]string)
	}
	if _, ok := values[key]; !ok && err == nil {
		return nil
	}
	delete(values, key)
	return f.save(values)
}

// load reads the storage file; a missing file is an empty store
func (f *FileStorage) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("failed to read storage file: %w", err)
	}

	// An unparsable file holds nothing recoverable; callers clear it like a corrupt record
	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w: failed to parse storage file: %v", ErrCorrupt, err)
	}
	return values, nil
}

func (f *FileStorage) save(values map[string]string) error {
	// Create config directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal storage: %w", err)
	}

	if err := os.WriteFile(f.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage file: %w", err)
	}
	return nil
}
