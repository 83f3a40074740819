// Package player keeps an explicit registry of the page's audio elements and
// their play controls, and enforces that at most one element plays at a time.
package player

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

type Glyph string

const (
	GlyphPlay  Glyph = "bi-play-fill"
	GlyphPause Glyph = "bi-pause-fill"
)

var (
	ErrUnknownTrack = errors.New("player: unknown track")
	ErrDuplicate    = errors.New("player: track already registered")
)

// Control is the play button for one audio element.
type Control struct {
	AudioID string

	mu    sync.Mutex
	glyph Glyph
}

func NewControl(audioID string) *Control {
	return &Control{AudioID: audioID, glyph: GlyphPlay}
}

func (c *Control) Glyph() Glyph {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.glyph
}

func (c *Control) set(g Glyph) {
	c.mu.Lock()
	c.glyph = g
	c.mu.Unlock()
}

type entry struct {
	audio   Audio
	control *Control
}

// Registry maps audio ids to their element and control. Built once at
// setup; clicks never rescan the page.
type Registry struct {
	mu    sync.RWMutex
	byID  map[string]*entry
	order []string
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*entry)}
}

// Register adds an element and its control and hooks the completion handler
// exactly once. control may be nil for an element without a play button.
func (r *Registry) Register(a Audio, control *Control) error {
	id := a.ID()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, id)
	}
	if control == nil {
		control = NewControl(id)
	}
	r.byID[id] = &entry{audio: a, control: control}
	r.order = append(r.order, id)

	a.OnEnded(func() { control.set(GlyphPlay) })
	return nil
}

func (r *Registry) lookup(id string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	return e, ok
}

func (r *Registry) entries() []*entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

func (r *Registry) Audio(id string) (Audio, bool) {
	e, ok := r.lookup(id)
	if !ok {
		return nil, false
	}
	return e.audio, true
}

func (r *Registry) Control(id string) (*Control, bool) {
	e, ok := r.lookup(id)
	if !ok {
		return nil, false
	}
	return e.control, true
}

func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// ApplyVolume sets v on every registered element.
func (r *Registry) ApplyVolume(v float64) {
	for _, e := range r.entries() {
		e.audio.SetVolume(v)
	}
}

// Controller handles play-button clicks and seeks.
type Controller struct {
	reg *Registry
	log zerolog.Logger

	// one click at a time, as on a UI thread
	mu sync.Mutex
}

func NewController(reg *Registry, log zerolog.Logger) *Controller {
	return &Controller{reg: reg, log: log}
}

// Click stops and rewinds every other element, resets their controls, then
// toggles id between playing and paused.
func (c *Controller) Click(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	target, ok := c.reg.lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTrack, id)
	}

	for _, e := range c.reg.entries() {
		if e == target {
			continue
		}
		e.audio.Pause()
		e.audio.SetCurrentTime(0)
		e.control.set(GlyphPlay)
	}

	if !target.audio.Paused() {
		target.audio.Pause()
		target.control.set(GlyphPlay)
		c.log.Debug().Str("track", id).Msg("paused")
		return nil
	}

	if err := target.audio.Play(); err != nil {
		target.control.set(GlyphPlay)
		c.log.Error().Err(err).Str("track", id).Msg("playback failed")
		return err
	}
	target.control.set(GlyphPause)
	c.log.Debug().Str("track", id).Msg("playing")
	return nil
}

// Seek moves id to sec, clamped to the element's duration when known.
func (c *Controller) Seek(id string, sec float64) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.reg.lookup(id)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTrack, id)
	}
	if sec < 0 {
		sec = 0
	}
	if d := e.audio.Duration(); d > 0 && sec > d {
		sec = d
	}
	e.audio.SetCurrentTime(sec)
	return sec, nil
}

// Playing returns the id of the element currently playing, if any.
func (c *Controller) Playing() (string, bool) {
	for _, e := range c.reg.entries() {
		if !e.audio.Paused() {
			return e.audio.ID(), true
		}
	}
	return "", false
}
