package library

import (
	"errors"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Library is the soundtrack catalog rendered as cards on the media page.
type Library struct {
	Tracks []Track `yaml:"tracks"`
}

type Track struct {
	ID       int    `yaml:"id"`
	Title    string `yaml:"title"`
	Artist   string `yaml:"artist,omitempty"`
	Album    string `yaml:"album,omitempty"`
	Src      string `yaml:"src"`
	Cover    string `yaml:"cover,omitempty"`
	Duration int    `yaml:"duration,omitempty"` // seconds
	Enabled  *bool  `yaml:"enabled,omitempty"`
}

func Load(path string) (*Library, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

func Parse(b []byte) (*Library, error) {
	var lib Library
	if err := yaml.Unmarshal(b, &lib); err != nil {
		return nil, err
	}
	lib.Normalize()
	if len(lib.Tracks) == 0 {
		return nil, errors.New("library empty")
	}
	return &lib, nil
}

// Normalize drops tracks without an id or source, keeps the first of any
// duplicate id and sorts by id.
func (l *Library) Normalize() {
	seen := map[int]bool{}
	out := make([]Track, 0, len(l.Tracks))

	for _, t := range l.Tracks {
		t.Title = strings.TrimSpace(t.Title)
		t.Src = strings.TrimSpace(t.Src)
		t.Artist = strings.TrimSpace(t.Artist)
		t.Album = strings.TrimSpace(t.Album)
		if t.ID <= 0 || t.Src == "" {
			continue
		}
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		if t.Title == "" {
			t.Title = "Untitled"
		}
		if t.Duration < 0 {
			t.Duration = 0
		}
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	l.Tracks = out
}

// Active returns enabled tracks in id order.
func (l *Library) Active() []Track {
	if l == nil {
		return nil
	}
	out := make([]Track, 0, len(l.Tracks))
	for _, t := range l.Tracks {
		if t.Enabled != nil && !*t.Enabled {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (l *Library) Find(id int) *Track {
	if l == nil {
		return nil
	}
	i := sort.Search(len(l.Tracks), func(i int) bool { return l.Tracks[i].ID >= id })
	if i < len(l.Tracks) && l.Tracks[i].ID == id {
		if t := &l.Tracks[i]; t.Enabled == nil || *t.Enabled {
			return t
		}
	}
	return nil
}
