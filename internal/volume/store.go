package volume

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// StorageKey is the single persisted entry holding the last-set level.
const StorageKey = "soundtrack_volume"

// Store persists the level as a decimal string under one key.
type Store interface {
	// Load returns ok=false when nothing has been saved yet.
	Load() (v float64, ok bool, err error)
	Save(v float64) error
}

func formatLevel(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseLevel(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse volume %q: %w", s, err)
	}
	return v, nil
}

// MemoryStore keeps the raw string like browser storage does.
type MemoryStore struct {
	mu  sync.Mutex
	raw map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{raw: map[string]string{}}
}

func (m *MemoryStore) Load() (float64, bool, error) {
	m.mu.Lock()
	s, ok := m.raw[StorageKey]
	m.mu.Unlock()
	if !ok {
		return 0, false, nil
	}
	v, err := parseLevel(s)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func (m *MemoryStore) Save(v float64) error {
	m.mu.Lock()
	m.raw[StorageKey] = formatLevel(v)
	m.mu.Unlock()
	return nil
}

// Raw returns the persisted string for key.
func (m *MemoryStore) Raw(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.raw[key]
	return s, ok
}

// FileStore is a YAML key/value file. Other keys in the file are preserved.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) read() (map[string]string, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	m := map[string]string{}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}

func (f *FileStore) Load() (float64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, err := f.read()
	if err != nil {
		return 0, false, err
	}
	s, ok := m[StorageKey]
	if !ok {
		return 0, false, nil
	}
	v, err := parseLevel(s)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func (f *FileStore) Save(v float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, err := f.read()
	if err != nil {
		return err
	}
	m[StorageKey] = formatLevel(v)
	b, err := yaml.Marshal(m)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	tmp := f.path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
