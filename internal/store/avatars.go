package store

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

var ErrNotImage = errors.New("not an image")

// currentFile records which stored avatar is in use. The leading dot keeps
// it out of the served names.
const currentFile = ".current.yaml"

type currentRecord struct {
	Current string `yaml:"current"`
}

// Avatars stores uploaded images content-addressed under one directory.
// Identical uploads resolve to the same file.
type Avatars struct {
	dir string
	log zerolog.Logger

	sf singleflight.Group

	mu      sync.Mutex
	current string
}

type SaveResult struct {
	Name     string // file name inside the directory
	Existed  bool
	MimeType string
}

func NewAvatars(dir string, log zerolog.Logger) (*Avatars, error) {
	if dir == "" {
		return nil, errors.New("missing avatar dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	a := &Avatars{dir: dir, log: log}
	if err := a.loadCurrent(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Avatars) Dir() string { return a.dir }

// Current is the name of the avatar in use, or "" when none was set.
func (a *Avatars) Current() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// SetCurrent marks a stored avatar as the one in use and persists the
// choice next to the images.
func (a *Avatars) SetCurrent(name string) error {
	if !validName(name) || !fileExists(filepath.Join(a.dir, name)) {
		return fmt.Errorf("avatar %q not stored", name)
	}
	b, err := yaml.Marshal(currentRecord{Current: name})
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	path := filepath.Join(a.dir, currentFile)
	tmp := path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	a.current = name
	return nil
}

func (a *Avatars) loadCurrent() error {
	path := filepath.Join(a.dir, currentFile)
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	var rec currentRecord
	if err := yaml.Unmarshal(b, &rec); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if rec.Current == "" {
		return nil
	}
	if !validName(rec.Current) || !fileExists(filepath.Join(a.dir, rec.Current)) {
		a.log.Warn().Str("file", rec.Current).Msg("current avatar missing; using default")
		return nil
	}
	a.current = rec.Current
	return nil
}

// Save sniffs data, rejects anything that is not image/*, and writes it
// atomically as <sha256>.<ext>.
func (a *Avatars) Save(data []byte) (SaveResult, error) {
	mime := http.DetectContentType(data)
	ext := extensionFromMime(mime)
	if ext == "" {
		return SaveResult{MimeType: mime}, ErrNotImage
	}

	sum := sha256.Sum256(data)
	name := hex.EncodeToString(sum[:]) + "." + ext
	finalPath := filepath.Join(a.dir, name)

	if fileExists(finalPath) {
		return SaveResult{Name: name, Existed: true, MimeType: mime}, nil
	}

	v, err, _ := a.sf.Do(name, func() (any, error) {
		if fileExists(finalPath) {
			return SaveResult{Name: name, Existed: true, MimeType: mime}, nil
		}

		tmp := finalPath + ".tmp-" + uuid.NewString()
		if err := os.WriteFile(tmp, data, 0o644); err != nil {
			return SaveResult{}, err
		}
		if err := os.Rename(tmp, finalPath); err != nil {
			_ = os.Remove(tmp)
			return SaveResult{}, err
		}
		a.log.Info().Str("file", name).Int("bytes", len(data)).Msg("avatar stored")
		return SaveResult{Name: name, MimeType: mime}, nil
	})
	if err != nil {
		return SaveResult{}, err
	}
	return v.(SaveResult), nil
}

func extensionFromMime(m string) string {
	m = strings.ToLower(strings.TrimSpace(m))
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = m[:i]
	}
	switch m {
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	case "image/bmp":
		return "bmp"
	default:
		return ""
	}
}

func validName(name string) bool {
	return name != "" && !strings.HasPrefix(name, ".") && !strings.ContainsAny(name, `/\`)
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !st.IsDir() && st.Size() > 0
}
