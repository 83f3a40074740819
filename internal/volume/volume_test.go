package volume

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

type recordSink struct {
	applied []float64
}

func (r *recordSink) ApplyVolume(v float64) { r.applied = append(r.applied, v) }

func (r *recordSink) last() float64 { return r.applied[len(r.applied)-1] }

func TestBandFor(t *testing.T) {
	for _, tc := range []struct {
		v    float64
		want Band
	}{
		{0, Muted},
		{0.01, Low},
		{0.2, Low},
		{0.4999, Low},
		{0.5, Full},
		{0.8, Full},
		{1, Full},
	} {
		if got := BandFor(tc.v); got != tc.want {
			t.Errorf("BandFor(%v) = %v, want %v", tc.v, got, tc.want)
		}
	}
}

func TestInitDefaultsWhenNothingStored(t *testing.T) {
	sink := &recordSink{}
	sliders := []*Slider{{}, {}}
	icons := []*Icon{{}}
	c := NewController(NewMemoryStore(), sink, sliders, icons, zerolog.Nop())

	if v := c.Init(); v != DefaultLevel {
		t.Fatalf("Init = %v", v)
	}
	if sink.last() != DefaultLevel {
		t.Errorf("applied %v", sink.last())
	}
	for i, s := range sliders {
		if s.Value() != DefaultLevel {
			t.Errorf("slider %d = %v", i, s.Value())
		}
	}
	if icons[0].Band() != Full {
		t.Errorf("icon band = %v", icons[0].Band())
	}
}

func TestInputAppliesPersistsAndSetsIcon(t *testing.T) {
	store := NewMemoryStore()
	sink := &recordSink{}
	a, b := &Slider{}, &Slider{}
	icon := &Icon{}
	c := NewController(store, sink, []*Slider{a, b}, []*Icon{icon}, zerolog.Nop())
	c.Init()

	for _, tc := range []struct {
		raw   string
		want  Band
		glyph string
	}{
		{"0.2", Low, "bi-volume-down-fill"},
		{"0", Muted, "bi-volume-mute-fill"},
		{"0.8", Full, "bi-volume-up-fill"},
	} {
		v, err := c.Input(a, tc.raw)
		if err != nil {
			t.Fatalf("Input(%q): %v", tc.raw, err)
		}
		if sink.last() != v {
			t.Errorf("%s: audio volume = %v", tc.raw, sink.last())
		}
		if raw, _ := store.Raw(StorageKey); raw != tc.raw {
			t.Errorf("%s: persisted %q", tc.raw, raw)
		}
		if icon.Band() != tc.want || icon.Glyph() != tc.glyph {
			t.Errorf("%s: icon = %v %s", tc.raw, icon.Band(), icon.Glyph())
		}
	}

	// the other slider keeps its init value
	if b.Value() != DefaultLevel {
		t.Errorf("untouched slider moved to %v", b.Value())
	}
	if a.Value() != 0.8 {
		t.Errorf("input slider = %v", a.Value())
	}
}

func TestInputRejectsGarbage(t *testing.T) {
	store := NewMemoryStore()
	c := NewController(store, nil, nil, nil, zerolog.Nop())
	c.Init()
	if _, err := c.Input(nil, "loud"); !errors.Is(err, ErrBadLevel) {
		t.Fatalf("err = %v", err)
	}
	if _, ok := store.Raw(StorageKey); ok {
		t.Error("garbage input was persisted")
	}
}

func TestInputClamps(t *testing.T) {
	c := NewController(NewMemoryStore(), nil, nil, nil, zerolog.Nop())
	if v, _ := c.Input(nil, "1.7"); v != 1 {
		t.Errorf("clamped high = %v", v)
	}
	if v, _ := c.Input(nil, "-3"); v != 0 {
		t.Errorf("clamped low = %v", v)
	}
}

func TestFileStoreReloadsAcrossControllers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "client.yaml")

	first := NewController(NewFileStore(path), nil, nil, nil, zerolog.Nop())
	first.Init()
	if _, err := first.Input(nil, "0.2"); err != nil {
		t.Fatal(err)
	}

	// a fresh page load
	sink := &recordSink{}
	slider := &Slider{}
	icon := &Icon{}
	second := NewController(NewFileStore(path), sink, []*Slider{slider}, []*Icon{icon}, zerolog.Nop())
	if v := second.Init(); v != 0.2 {
		t.Fatalf("reloaded %v", v)
	}
	if sink.last() != 0.2 || slider.Value() != 0.2 || icon.Band() != Low {
		t.Errorf("reload not applied: sink=%v slider=%v icon=%v", sink.last(), slider.Value(), icon.Band())
	}
}
