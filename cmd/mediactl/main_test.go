package main

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"mediapage/internal/page"
	"mediapage/internal/player"
	"mediapage/internal/volume"
)

const staticPage = `<html><body>
<div class="soundtrack-card">
  <audio id="audio-1" src="/1.mp3" data-duration="100"></audio>
  <button class="play-btn" data-audio-id="audio-1"><i class="bi bi-play-fill"></i></button>
  <i class="volume-icon bi"></i><input class="volume-slider" type="range">
</div>
<div class="soundtrack-card">
  <audio id="audio-2" src="/2.mp3" data-duration="50"></audio>
  <button class="play-btn" data-audio-id="audio-2"><i class="bi bi-play-fill"></i></button>
  <i class="volume-icon bi"></i><input class="volume-slider" type="range">
</div>
</body></html>`

func bindStatic(t *testing.T, vs volume.Store) *page.Page {
	t.Helper()
	p, err := page.Bind(strings.NewReader(staticPage), page.Deps{VolumeStore: vs, Log: zerolog.Nop()})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRunPlaySequence(t *testing.T) {
	p := bindStatic(t, nil)
	if err := run(context.Background(), p, []string{"play", "1", "audio-2"}); err != nil {
		t.Fatal(err)
	}
	id, ok := p.Player.Playing()
	if !ok || id != "audio-2" {
		t.Errorf("playing = %q %v", id, ok)
	}
	ctl, _ := p.Registry.Control("audio-1")
	if ctl.Glyph() != player.GlyphPlay {
		t.Errorf("audio-1 glyph = %s", ctl.Glyph())
	}
}

func TestRunSeekClamps(t *testing.T) {
	p := bindStatic(t, nil)
	if err := run(context.Background(), p, []string{"seek", "2", "80"}); err != nil {
		t.Fatal(err)
	}
	a, _ := p.Registry.Audio("audio-2")
	if a.CurrentTime() != 50 || a.Paused() {
		t.Errorf("pos=%v paused=%v", a.CurrentTime(), a.Paused())
	}
}

func TestRunVolume(t *testing.T) {
	vs := volume.NewMemoryStore()
	p := bindStatic(t, vs)
	if err := run(context.Background(), p, []string{"volume", "0"}); err != nil {
		t.Fatal(err)
	}
	if raw, _ := vs.Raw(volume.StorageKey); raw != "0" {
		t.Errorf("persisted %q", raw)
	}
	for _, ic := range p.Icons {
		if ic.Band() != volume.Muted {
			t.Errorf("icon = %v", ic.Band())
		}
	}
	if err := run(context.Background(), p, []string{"volume", "max"}); err == nil {
		t.Error("expected parse error")
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	p := bindStatic(t, nil)
	for _, args := range [][]string{
		{"dance"},
		{"play"},
		{"play", "9"},
		{"seek", "1"},
		{"seek", "1", "soon"},
		{"favorite"},
		{"avatar", "x.png"}, // static page has no avatar widget
	} {
		if err := run(context.Background(), p, args); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestAudioID(t *testing.T) {
	if audioID("3") != "audio-3" || audioID("audio-3") != "audio-3" {
		t.Error("audioID mismatch")
	}
}
