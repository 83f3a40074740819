// Package page binds the four controllers to a rendered media page. The
// document is scanned once; afterwards every controller works off its own
// handles and registry.
package page

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"mediapage/internal/api"
	"mediapage/internal/avatar"
	"mediapage/internal/favorite"
	"mediapage/internal/player"
	"mediapage/internal/volume"
)

// Element ids the avatar widget needs.
var avatarIDs = []string{
	"#changeAvatarBtn", "#avatarModal", "#avatarForm", "#avatarInput",
	"#avatarError", "#submitBtn", "#userAvatar",
}

type Deps struct {
	Client      *api.Client
	VolumeStore volume.Store
	NotifyAfter time.Duration
	Log         zerolog.Logger
}

type Page struct {
	// nil when the page has no avatar widget
	Avatar *avatar.Controller
	Modal  *avatar.Dialog
	Toasts *avatar.Toasts

	Favorites *favorite.Controller
	buttons   map[int]*favorite.Button
	order     []int

	Registry *player.Registry
	Player   *player.Controller

	Volume  *volume.Controller
	Sliders []*volume.Slider
	Icons   []*volume.Icon
}

// Bind parses r and wires every widget found. The volume controller is
// initialised before Bind returns, as on page load.
func Bind(r io.Reader, deps Deps) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	log := deps.Log
	p := &Page{buttons: map[int]*favorite.Button{}}

	if hasAll(doc, avatarIDs) {
		src, _ := doc.Find("#userAvatar").Attr("src")
		p.Modal = &avatar.Dialog{}
		p.Toasts = avatar.NewToasts(deps.NotifyAfter)
		p.Avatar = avatar.NewController(deps.Client, p.Modal, p.Toasts, src, log)
	}

	p.Registry = player.NewRegistry()
	controls := map[string]*player.Control{}
	doc.Find(".play-btn").Each(func(_ int, s *goquery.Selection) {
		id, ok := s.Attr("data-audio-id")
		if !ok || strings.TrimSpace(id) == "" {
			return
		}
		controls[strings.TrimSpace(id)] = player.NewControl(strings.TrimSpace(id))
	})

	doc.Find("audio[id]").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		src, _ := s.Attr("src")
		dur, _ := strconv.ParseFloat(s.AttrOr("data-duration", "0"), 64)
		el := player.NewElement(id, src, dur)
		if err := p.Registry.Register(el, controls[id]); err != nil {
			log.Warn().Err(err).Str("audio", id).Msg("skipping audio element")
		}
		delete(controls, id)
	})
	for id := range controls {
		log.Warn().Str("audio", id).Msg("play button targets missing audio element")
	}
	if p.Registry.Len() == 0 {
		log.Debug().Msg("page has no audio elements")
	}
	p.Player = player.NewController(p.Registry, log)

	p.Favorites = favorite.NewController(deps.Client, log)
	doc.Find(".soundtrack-card").Each(func(_ int, card *goquery.Selection) {
		btn := card.Find(".favorite-btn").First()
		if btn.Length() == 0 {
			return
		}
		audioID, _ := card.Find("audio").First().Attr("id")
		trackID, err := favorite.ParseAudioID(audioID)
		if err != nil {
			log.Warn().Err(err).Msg("favorite button without track")
			return
		}
		if _, dup := p.buttons[trackID]; dup {
			return
		}
		fav := btn.Find("i").HasClass("bi-heart-fill")
		p.buttons[trackID] = favorite.NewButton(trackID, fav)
		p.order = append(p.order, trackID)
	})

	doc.Find(".volume-slider").Each(func(int, *goquery.Selection) {
		p.Sliders = append(p.Sliders, &volume.Slider{})
	})
	doc.Find(".volume-icon").Each(func(int, *goquery.Selection) {
		p.Icons = append(p.Icons, &volume.Icon{})
	})
	store := deps.VolumeStore
	if store == nil {
		store = volume.NewMemoryStore()
	}
	p.Volume = volume.NewController(store, p.Registry, p.Sliders, p.Icons, log)
	p.Volume.Init()

	return p, nil
}

// FavoriteButton returns the heart button of a track's card.
func (p *Page) FavoriteButton(trackID int) (*favorite.Button, bool) {
	b, ok := p.buttons[trackID]
	return b, ok
}

// FavoriteTracks lists track ids with a favorite button, in page order.
func (p *Page) FavoriteTracks() []int {
	return append([]int(nil), p.order...)
}

// Close releases timers held by the page.
func (p *Page) Close() {
	if p.Toasts != nil {
		p.Toasts.Close()
	}
}

func hasAll(doc *goquery.Document, sels []string) bool {
	for _, sel := range sels {
		if doc.Find(sel).Length() == 0 {
			return false
		}
	}
	return true
}
