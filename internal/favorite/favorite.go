// Package favorite flips a track's heart button once the server confirms.
package favorite

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var ErrBadAudioID = errors.New("favorite: audio id must look like audio-{id}")

// ParseAudioID extracts the track id from an audio element id "audio-{id}".
func ParseAudioID(s string) (int, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), "audio-")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrBadAudioID, s)
	}
	id, err := strconv.Atoi(rest)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadAudioID, s)
	}
	return id, nil
}

// Toggler notifies the server; a nil error means a 2xx answer.
type Toggler interface {
	ToggleFavorite(ctx context.Context, trackID int) error
}

// Button is the heart button of one soundtrack card.
type Button struct {
	TrackID int

	mu        sync.Mutex
	favorited bool
}

func NewButton(trackID int, favorited bool) *Button {
	return &Button{TrackID: trackID, favorited: favorited}
}

func (b *Button) Favorited() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.favorited
}

// IconClass is the heart glyph for the current state.
func (b *Button) IconClass() string {
	if b.Favorited() {
		return "bi-heart-fill"
	}
	return "bi-heart"
}

// ButtonClass is the button style for the current state.
func (b *Button) ButtonClass() string {
	if b.Favorited() {
		return "btn-danger"
	}
	return "btn-outline-light"
}

func (b *Button) flip() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.favorited = !b.favorited
	return b.favorited
}

type Result struct {
	TrackID   int
	Favorited bool // state after the call
	Err       error
}

func (r Result) OK() bool { return r.Err == nil }

type Controller struct {
	api Toggler
	log zerolog.Logger
}

func NewController(api Toggler, log zerolog.Logger) *Controller {
	return &Controller{api: api, log: log}
}

// Toggle notifies the server and flips b once if it answered 2xx. Failures
// leave b as it was and are only logged. Concurrent clicks are not
// sequenced: each successful answer flips once.
func (c *Controller) Toggle(ctx context.Context, b *Button) Result {
	if err := c.api.ToggleFavorite(ctx, b.TrackID); err != nil {
		c.log.Error().Err(err).Int("track", b.TrackID).Msg("favorite toggle failed")
		return Result{TrackID: b.TrackID, Favorited: b.Favorited(), Err: err}
	}
	return Result{TrackID: b.TrackID, Favorited: b.flip()}
}

// ToggleAsync runs Toggle in the background and delivers exactly one Result.
func (c *Controller) ToggleAsync(ctx context.Context, b *Button) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		out <- c.Toggle(ctx, b)
	}()
	return out
}
