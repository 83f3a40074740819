package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"mediapage/internal/api"
	"mediapage/internal/library"
	"mediapage/internal/store"
)

const defaultAvatarURL = "/static/default-avatar.svg"

type Config struct {
	Bind              string
	Port              int
	ReadHeaderTimeout time.Duration
	MaxUploadBytes    int64
}

type Server struct {
	cfg     Config
	lib     *library.Library
	favs    *store.Favorites
	avatars *store.Avatars
	metrics *metrics
	log     zerolog.Logger
}

func New(cfg Config, lib *library.Library, favs *store.Favorites, avatars *store.Avatars, log zerolog.Logger) *Server {
	if cfg.Bind == "" {
		cfg.Bind = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 8092
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 5 * time.Second
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 5 << 20
	}
	s := &Server{
		cfg:     cfg,
		lib:     lib,
		favs:    favs,
		avatars: avatars,
		metrics: newMetrics(),
		log:     log,
	}
	s.metrics.favorites.Set(float64(len(favs.IDs())))
	return s
}

func (s *Server) Addr() string {
	return fmt.Sprintf("http://%s:%d", s.cfg.Bind, s.cfg.Port)
}

// AvatarURL is the src the page renders for #userAvatar. It survives
// restarts because the avatar store persists its current pick.
func (s *Server) AvatarURL() string {
	if name := s.avatars.Current(); name != "" {
		return "/avatars/" + name
	}
	return defaultAvatarURL
}

// Handler builds the router. Start serves it; tests mount it directly.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	// UI
	r.Get("/", s.handleIndex)
	r.Get("/static/app.js", s.handleAppJS)
	r.Get("/static/default-avatar.svg", s.handleDefaultAvatar)

	// page endpoints
	r.Post(api.AvatarPath, s.handleUpdateAvatar)
	r.Post(api.FavoritePath+"{id}", s.handleToggleFavorite)
	r.Get("/api/favorites", s.handleFavoritesJSON)

	r.Get("/avatars/*", s.handleAvatarFile)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())
	return r
}

func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Bind, s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	s.log.Info().Str("addr", srv.Addr).Msg("http server listening")
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func (s *Server) handleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.MaxUploadBytes
	// room for multipart framing around the file
	r.Body = http.MaxBytesReader(w, r.Body, limit+64<<10)

	file, hdr, err := r.FormFile(api.AvatarField)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.rejectAvatar(w, "File too large")
			return
		}
		s.rejectAvatar(w, "No file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		s.rejectAvatar(w, "File too large")
		return
	}
	if int64(len(data)) > limit {
		s.rejectAvatar(w, "File too large")
		return
	}
	if len(data) == 0 {
		s.rejectAvatar(w, "No file uploaded")
		return
	}

	res, err := s.avatars.Save(data)
	if errors.Is(err, store.ErrNotImage) {
		s.rejectAvatar(w, "Unsupported file type")
		return
	}
	if err != nil {
		s.metrics.uploads.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Str("file", hdr.Filename).Msg("failed to store avatar")
		writeJSON(w, http.StatusInternalServerError, api.AvatarResponse{Message: "Could not save avatar"})
		return
	}

	if err := s.avatars.SetCurrent(res.Name); err != nil {
		s.metrics.uploads.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Str("file", hdr.Filename).Msg("failed to record current avatar")
		writeJSON(w, http.StatusInternalServerError, api.AvatarResponse{Message: "Could not save avatar"})
		return
	}

	u := "/avatars/" + res.Name
	s.metrics.uploads.WithLabelValues("ok").Inc()
	s.log.Info().Str("file", hdr.Filename).Str("avatar_url", u).Bool("existed", res.Existed).Msg("avatar updated")
	writeJSON(w, http.StatusOK, api.AvatarResponse{Success: true, AvatarURL: u})
}

func (s *Server) rejectAvatar(w http.ResponseWriter, msg string) {
	s.metrics.uploads.WithLabelValues("rejected").Inc()
	writeJSON(w, http.StatusBadRequest, api.AvatarResponse{Message: msg})
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		http.Error(w, "bad track id", http.StatusBadRequest)
		return
	}
	if s.lib.Find(id) == nil {
		s.metrics.toggles.WithLabelValues("not_found").Inc()
		http.NotFound(w, r)
		return
	}

	on, err := s.favs.Toggle(id)
	if err != nil {
		s.metrics.toggles.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Int("track", id).Msg("failed to toggle favorite")
		http.Error(w, "could not save favorite", http.StatusInternalServerError)
		return
	}

	result := "off"
	if on {
		result = "on"
	}
	s.metrics.toggles.WithLabelValues(result).Inc()
	s.metrics.favorites.Set(float64(len(s.favs.IDs())))
	writeJSON(w, http.StatusOK, map[string]any{
		"track_id":  id,
		"favorited": on,
	})
}

func (s *Server) handleFavoritesJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tracks": s.favs.IDs(),
	})
}

func (s *Server) handleAvatarFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if name == "" || strings.ContainsAny(name, `/\`) {
		http.NotFound(w, r)
		return
	}
	clean := filepath.Clean(name)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".") {
		http.Error(w, "bad path", http.StatusBadRequest)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeFile(w, r, filepath.Join(s.avatars.Dir(), clean))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
