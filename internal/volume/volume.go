// Package volume holds the one page-wide volume level: loaded from a Store
// at start, applied to every audio element, saved on each slider input.
package volume

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const DefaultLevel = 0.5

type Band int

const (
	Muted Band = iota
	Low
	Full
)

func (b Band) String() string {
	switch b {
	case Muted:
		return "muted"
	case Low:
		return "low"
	default:
		return "full"
	}
}

// Glyph is the icon class shown for the band.
func (b Band) Glyph() string {
	switch b {
	case Muted:
		return "bi-volume-mute-fill"
	case Low:
		return "bi-volume-down-fill"
	default:
		return "bi-volume-up-fill"
	}
}

// BandFor maps 0 to Muted, (0, 0.5) to Low and [0.5, 1] to Full.
func BandFor(v float64) Band {
	switch {
	case v <= 0:
		return Muted
	case v < 0.5:
		return Low
	default:
		return Full
	}
}

// Sink receives the shared level; the player registry applies it to every
// audio element it holds.
type Sink interface {
	ApplyVolume(v float64)
}

// Slider is one volume range input.
type Slider struct {
	mu    sync.Mutex
	value float64
}

func (s *Slider) Value() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func (s *Slider) set(v float64) {
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
}

// Icon is one volume indicator.
type Icon struct {
	mu   sync.Mutex
	band Band
}

func (i *Icon) Band() Band {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.band
}

func (i *Icon) Glyph() string { return i.Band().Glyph() }

func (i *Icon) set(b Band) {
	i.mu.Lock()
	i.band = b
	i.mu.Unlock()
}

var ErrBadLevel = errors.New("volume: not a number")

type Controller struct {
	store   Store
	sink    Sink
	sliders []*Slider
	icons   []*Icon
	log     zerolog.Logger

	mu    sync.Mutex
	level float64
}

func NewController(store Store, sink Sink, sliders []*Slider, icons []*Icon, log zerolog.Logger) *Controller {
	return &Controller{
		store:   store,
		sink:    sink,
		sliders: sliders,
		icons:   icons,
		log:     log,
		level:   DefaultLevel,
	}
}

// Init loads the persisted level (DefaultLevel when absent or unreadable)
// and pushes it to audio, every slider and every icon.
func (c *Controller) Init() float64 {
	v, ok, err := c.store.Load()
	switch {
	case err != nil:
		c.log.Warn().Err(err).Msg("stored volume unreadable; using default")
		v = DefaultLevel
	case !ok:
		v = DefaultLevel
	}
	v = clamp(v)

	c.mu.Lock()
	c.level = v
	c.mu.Unlock()

	if c.sink != nil {
		c.sink.ApplyVolume(v)
	}
	for _, s := range c.sliders {
		s.set(v)
	}
	c.setIcons(v)
	return v
}

// Input handles one slider's input event. Only that slider's value moves;
// audio, storage and every icon follow.
func (c *Controller) Input(s *Slider, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) {
		return c.Level(), ErrBadLevel
	}
	v = clamp(v)

	c.mu.Lock()
	c.level = v
	c.mu.Unlock()

	if s != nil {
		s.set(v)
	}
	if c.sink != nil {
		c.sink.ApplyVolume(v)
	}
	c.setIcons(v)

	if err := c.store.Save(v); err != nil {
		c.log.Error().Err(err).Float64("volume", v).Msg("failed to persist volume")
		return v, err
	}
	return v, nil
}

func (c *Controller) Level() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

func (c *Controller) Band() Band { return BandFor(c.Level()) }

func (c *Controller) setIcons(v float64) {
	b := BandFor(v)
	for _, i := range c.icons {
		i.set(b)
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
