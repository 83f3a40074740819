package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"mediapage/internal/config"
	"mediapage/internal/library"
	"mediapage/internal/server"
	"mediapage/internal/store"
)

func main() {
	var cfgPath string
	var libPath string

	flag.StringVar(&cfgPath, "config", "config.yaml", "Path to config YAML")
	flag.StringVar(&libPath, "library", "", "Path to soundtrack library YAML (overrides config)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg = config.Default()
	} else if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Logging
	zerolog.TimeFieldFormat = time.RFC3339Nano
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	log.Logger = logger

	if libPath == "" {
		libPath = cfg.Library.Path
	}
	lib, err := library.Load(libPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", libPath).Msg("failed to load library")
	}

	favs, err := store.OpenFavorites(cfg.Storage.FavoritesFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open favorites")
	}
	avatars, err := store.NewAvatars(cfg.Storage.AvatarDir, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open avatar store")
	}

	srv := server.New(server.Config{
		Bind:              cfg.Server.Bind,
		Port:              cfg.Server.Port,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout.ToDuration(),
		MaxUploadBytes:    cfg.Server.MaxUploadBytes,
	}, lib, favs, avatars, log.Logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info().
		Int("tracks", len(lib.Active())).
		Int("favorites", len(favs.IDs())).
		Str("addr", srv.Addr()).
		Msg("running")

	if err := srv.Start(ctx); err != nil {
		log.Error().Err(err).Msg("http server stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("shut down")
}
