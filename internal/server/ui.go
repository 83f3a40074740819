package server

import (
	"html/template"
	"net/http"
)

type cardView struct {
	ID        int
	Title     string
	Artist    string
	Album     string
	Src       string
	Cover     string
	Duration  int
	Favorited bool
}

type pageView struct {
	AvatarURL string
	Cards     []cardView
}

func (s *Server) pageView() pageView {
	tracks := s.lib.Active()
	cards := make([]cardView, 0, len(tracks))
	for _, t := range tracks {
		cards = append(cards, cardView{
			ID:        t.ID,
			Title:     t.Title,
			Artist:    t.Artist,
			Album:     t.Album,
			Src:       t.Src,
			Cover:     t.Cover,
			Duration:  t.Duration,
			Favorited: s.favs.Has(t.ID),
		})
	}
	return pageView{AvatarURL: s.AvatarURL(), Cards: cards}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := indexTmpl.Execute(w, s.pageView()); err != nil {
		s.log.Error().Err(err).Msg("failed to render index")
	}
}

func (s *Server) handleAppJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	_, _ = w.Write([]byte(appJS))
}

func (s *Server) handleDefaultAvatar(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write([]byte(defaultAvatarSVG))
}

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

const defaultAvatarSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="96" height="96" viewBox="0 0 96 96"><rect width="96" height="96" rx="48" fill="#2b2b2b"/><circle cx="48" cy="38" r="16" fill="#888"/><path d="M18 82c4-16 16-24 30-24s26 8 30 24" fill="#888"/></svg>`

const indexHTML = `<!doctype html>
<html lang="en" data-bs-theme="dark">
<head>
  <meta charset="utf-8"/>
  <meta name="viewport" content="width=device-width,initial-scale=1"/>
  <title>Soundtracks</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/css/bootstrap.min.css"/>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootstrap-icons@1.11.3/font/bootstrap-icons.min.css"/>
  <style>
    .avatar { width: 96px; height: 96px; border-radius: 50%; object-fit: cover; }
    .soundtrack-card { border-radius: 14px; }
    .soundtrack-card .cover { width: 100%; aspect-ratio: 1; object-fit: cover; border-radius: 10px; }
    .volume-slider { max-width: 140px; }
    #toasts { position: fixed; right: 16px; bottom: 16px; z-index: 1080; }
  </style>
</head>
<body class="container py-4">
  <div class="d-flex align-items-center gap-3 mb-4">
    <img id="userAvatar" class="avatar" src="{{.AvatarURL}}" alt="avatar"/>
    <button id="changeAvatarBtn" class="btn btn-outline-light btn-sm">Change avatar</button>
  </div>

  <div class="row g-3">
  {{range .Cards}}
    <div class="col-12 col-sm-6 col-lg-4">
      <div class="soundtrack-card card p-3 h-100">
        {{if .Cover}}<img class="cover mb-2" src="{{.Cover}}" alt=""/>{{end}}
        <div class="fw-bold">{{.Title}}</div>
        {{if or .Artist .Album}}<div class="meta text-secondary small">{{.Artist}}{{if and .Artist .Album}} · {{end}}{{.Album}}</div>{{end}}
        <audio id="audio-{{.ID}}" src="{{.Src}}" preload="none" data-duration="{{.Duration}}"></audio>
        <div class="d-flex align-items-center gap-2 mt-2">
          <button class="play-btn btn btn-light btn-sm" data-audio-id="audio-{{.ID}}"><i class="bi bi-play-fill"></i></button>
          <button class="favorite-btn btn btn-sm {{if .Favorited}}btn-danger{{else}}btn-outline-light{{end}}"><i class="bi {{if .Favorited}}bi-heart-fill{{else}}bi-heart{{end}}"></i></button>
          <i class="volume-icon bi bi-volume-up-fill ms-auto"></i>
          <input type="range" class="volume-slider form-range" min="0" max="1" step="0.01" value="0.5"/>
        </div>
      </div>
    </div>
  {{else}}
    <p class="text-secondary">No soundtracks yet.</p>
  {{end}}
  </div>

  <div class="modal fade" id="avatarModal" tabindex="-1" aria-hidden="true">
    <div class="modal-dialog">
      <form id="avatarForm" class="modal-content" enctype="multipart/form-data">
        <div class="modal-header"><h5 class="modal-title">Change avatar</h5></div>
        <div class="modal-body">
          <input id="avatarInput" class="form-control" type="file" name="avatar" accept="image/*" required/>
          <div id="avatarError" class="invalid-feedback"></div>
        </div>
        <div class="modal-footer">
          <button id="submitBtn" type="submit" class="btn btn-primary">
            <span class="spinner-border spinner-border-sm d-none" role="status"></span>
            Save
          </button>
        </div>
      </form>
    </div>
  </div>

  <div id="toasts"></div>

  <script src="https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/js/bootstrap.bundle.min.js"></script>
  <script src="/static/app.js"></script>
</body>
</html>
`

const appJS = `
(() => {
  const VOLUME_KEY = 'soundtrack_volume';

  function volumeGlyph(v) {
    if (v <= 0) return 'bi-volume-mute-fill';
    if (v < 0.5) return 'bi-volume-down-fill';
    return 'bi-volume-up-fill';
  }

  function setGlyph(icon, on, off) {
    icon.classList.remove(off);
    icon.classList.add(on);
  }

  function initAvatar() {
    const btn = document.getElementById('changeAvatarBtn');
    const modalEl = document.getElementById('avatarModal');
    const form = document.getElementById('avatarForm');
    const input = document.getElementById('avatarInput');
    const errBox = document.getElementById('avatarError');
    const submit = document.getElementById('submitBtn');
    const img = document.getElementById('userAvatar');
    if (!btn || !modalEl || !form) return;

    const modal = new bootstrap.Modal(modalEl);
    const spinner = submit.querySelector('.spinner-border');

    function showError(msg) {
      errBox.textContent = msg;
      input.classList.add('is-invalid');
    }

    btn.addEventListener('click', () => {
      errBox.textContent = '';
      input.classList.remove('is-invalid');
      input.value = '';
      modal.show();
    });

    form.addEventListener('submit', async (ev) => {
      ev.preventDefault();
      const file = input.files[0];
      if (!file) return;

      const body = new FormData();
      body.append('avatar', file);
      submit.disabled = true;
      spinner.classList.remove('d-none');
      try {
        const resp = await fetch('/update_avatar', { method: 'POST', body });
        const data = await resp.json();
        if (data.success) {
          img.src = data.avatar_url + (data.avatar_url.includes('?') ? '&' : '?') + Date.now();
          modal.hide();
          toast('Avatar updated');
        } else {
          showError(data.message || 'Failed to update avatar. Please try again.');
        }
      } catch (err) {
        console.error('avatar upload failed', err);
        showError('Failed to update avatar. Please try again.');
      } finally {
        submit.disabled = false;
        spinner.classList.add('d-none');
      }
    });
  }

  function toast(msg) {
    const host = document.getElementById('toasts');
    if (!host) return;
    const el = document.createElement('div');
    el.className = 'alert alert-success py-2 px-3 mb-2';
    el.textContent = msg;
    host.appendChild(el);
    setTimeout(() => el.remove(), 3000);
  }

  function initFavorites() {
    document.querySelectorAll('.favorite-btn').forEach((btn) => {
      btn.addEventListener('click', () => {
        const audio = btn.closest('.soundtrack-card').querySelector('audio');
        const id = audio.id.split('-')[1];
        const icon = btn.querySelector('i');
        fetch('/toggle_favorite/' + id, {
          method: 'POST',
          headers: { 'X-Requested-With': 'XMLHttpRequest' },
        })
          .then((resp) => {
            if (!resp.ok) return;
            icon.classList.toggle('bi-heart');
            icon.classList.toggle('bi-heart-fill');
            btn.classList.toggle('btn-outline-light');
            btn.classList.toggle('btn-danger');
          })
          .catch((err) => console.error('favorite toggle failed', err));
      });
    });
  }

  function initPlayback() {
    const tracks = new Map();
    document.querySelectorAll('.play-btn').forEach((btn) => {
      const audio = document.getElementById(btn.dataset.audioId);
      if (!audio) return;
      const icon = btn.querySelector('i');
      tracks.set(audio, icon);
      audio.addEventListener('ended', () => setGlyph(icon, 'bi-play-fill', 'bi-pause-fill'));
    });

    tracks.forEach((icon, audio) => {
      const btn = icon.closest('.play-btn');
      btn.addEventListener('click', () => {
        tracks.forEach((otherIcon, other) => {
          if (other === audio) return;
          other.pause();
          other.currentTime = 0;
          setGlyph(otherIcon, 'bi-play-fill', 'bi-pause-fill');
        });
        if (audio.paused) {
          audio.play()
            .then(() => setGlyph(icon, 'bi-pause-fill', 'bi-play-fill'))
            .catch((err) => console.error('playback failed', err));
        } else {
          audio.pause();
          setGlyph(icon, 'bi-play-fill', 'bi-pause-fill');
        }
      });
    });
  }

  function initVolume() {
    const sliders = document.querySelectorAll('.volume-slider');
    const icons = document.querySelectorAll('.volume-icon');

    function apply(v) {
      document.querySelectorAll('audio').forEach((a) => { a.volume = v; });
      icons.forEach((i) => {
        i.classList.remove('bi-volume-mute-fill', 'bi-volume-down-fill', 'bi-volume-up-fill');
        i.classList.add(volumeGlyph(v));
      });
    }

    let v = parseFloat(localStorage.getItem(VOLUME_KEY));
    if (Number.isNaN(v)) v = 0.5;
    v = Math.min(1, Math.max(0, v));
    sliders.forEach((s) => { s.value = v; });
    apply(v);

    sliders.forEach((s) => {
      s.addEventListener('input', () => {
        const next = parseFloat(s.value);
        if (Number.isNaN(next)) return;
        apply(next);
        localStorage.setItem(VOLUME_KEY, String(next));
      });
    });
  }

  document.addEventListener('DOMContentLoaded', () => {
    initAvatar();
    initFavorites();
    initPlayback();
    initVolume();
  });
})();
`
