package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Favorites is the set of favorited track ids, optionally persisted to a
// YAML file on every change.
type Favorites struct {
	path string

	mu  sync.Mutex
	set map[int]bool
}

type favoritesFile struct {
	Tracks []int `yaml:"tracks"`
}

// OpenFavorites loads path if it exists. An empty path keeps the set in
// memory only.
func OpenFavorites(path string) (*Favorites, error) {
	f := &Favorites{path: path, set: map[int]bool{}}
	if path == "" {
		return f, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, err
	}
	var ff favoritesFile
	if err := yaml.Unmarshal(b, &ff); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	for _, id := range ff.Tracks {
		f.set[id] = true
	}
	return f, nil
}

func (f *Favorites) Has(id int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.set[id]
}

// Toggle flips id and returns the new state.
func (f *Favorites) Toggle(id int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := !f.set[id]
	if now {
		f.set[id] = true
	} else {
		delete(f.set, id)
	}
	if err := f.flushLocked(); err != nil {
		// keep memory and disk in step
		if now {
			delete(f.set, id)
		} else {
			f.set[id] = true
		}
		return !now, err
	}
	return now, nil
}

func (f *Favorites) IDs() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.idsLocked()
}

func (f *Favorites) idsLocked() []int {
	out := make([]int, 0, len(f.set))
	for id := range f.set {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

func (f *Favorites) flushLocked() error {
	if f.path == "" {
		return nil
	}
	b, err := yaml.Marshal(favoritesFile{Tracks: f.idsLocked()})
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
