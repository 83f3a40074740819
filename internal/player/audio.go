package player

import (
	"sync"
)

// Audio is one playable element. Implementations must be safe for use from
// the controller and from their own playback goroutine.
type Audio interface {
	ID() string
	Play() error
	Pause()
	Paused() bool
	CurrentTime() float64
	SetCurrentTime(sec float64)
	Duration() float64
	Volume() float64
	SetVolume(v float64)
	// OnEnded registers fn to run when playback reaches the end naturally.
	OnEnded(fn func())
}

// Element is a headless Audio: it tracks state without decoding anything.
// Finish simulates natural end of playback.
type Element struct {
	id       string
	src      string
	duration float64

	mu      sync.Mutex
	paused  bool
	pos     float64
	volume  float64
	onEnded []func()
}

func NewElement(id, src string, duration float64) *Element {
	return &Element{
		id:       id,
		src:      src,
		duration: duration,
		paused:   true,
		volume:   1,
	}
}

func (e *Element) ID() string  { return e.id }
func (e *Element) Src() string { return e.src }

func (e *Element) Play() error {
	e.mu.Lock()
	e.paused = false
	e.mu.Unlock()
	return nil
}

func (e *Element) Pause() {
	e.mu.Lock()
	e.paused = true
	e.mu.Unlock()
}

func (e *Element) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

func (e *Element) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pos
}

func (e *Element) SetCurrentTime(sec float64) {
	e.mu.Lock()
	e.pos = sec
	e.mu.Unlock()
}

func (e *Element) Duration() float64 { return e.duration }

func (e *Element) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

func (e *Element) SetVolume(v float64) {
	e.mu.Lock()
	e.volume = v
	e.mu.Unlock()
}

func (e *Element) OnEnded(fn func()) {
	e.mu.Lock()
	e.onEnded = append(e.onEnded, fn)
	e.mu.Unlock()
}

// EndedHandlers reports how many completion handlers are registered.
func (e *Element) EndedHandlers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.onEnded)
}

// Finish plays out to the end: paused, position at duration, handlers run.
func (e *Element) Finish() {
	e.mu.Lock()
	e.paused = true
	e.pos = e.duration
	hs := append([]func(){}, e.onEnded...)
	e.mu.Unlock()

	for _, fn := range hs {
		fn()
	}
}
