package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"mediapage/internal/api"
	"mediapage/internal/avatar"
	"mediapage/internal/config"
	"mediapage/internal/page"
	"mediapage/internal/volume"
)

const usage = `usage: mediactl [flags] <command> [args]

commands:
  avatar <image-file>     upload a new avatar
  favorite <track-id>     toggle a track's favorite
  play <track-id>...      click play on each track in turn
  seek <track-id> <sec>   start a track and move it to sec
  volume [level]          show or set the persisted volume (0..1)
`

func main() {
	var cfgPath string
	var baseURL string

	flag.StringVar(&cfgPath, "config", "config.yaml", "Path to config YAML")
	flag.StringVar(&baseURL, "url", "", "Media page base URL (overrides config and MEDIAPAGE_BASE_URL)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg = config.Default()
	} else if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()

	if baseURL == "" {
		baseURL = strings.TrimSpace(os.Getenv("MEDIAPAGE_BASE_URL"))
	}
	if baseURL == "" {
		baseURL = cfg.Client.BaseURL
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	client, err := api.NewClient(api.Config{
		BaseURL: baseURL,
		Timeout: cfg.Client.Timeout.ToDuration(),
	}, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init client")
	}

	ctx := context.Background()
	body, err := client.Page(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("url", baseURL).Msg("failed to load media page")
	}
	p, err := page.Bind(bytes.NewReader(body), page.Deps{
		Client:      client,
		VolumeStore: volume.NewFileStore(cfg.Client.StateFile),
		NotifyAfter: cfg.Client.NotifyAfter.ToDuration(),
		Log:         log.Logger,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to bind media page")
	}
	defer p.Close()

	if err := run(ctx, p, args); err != nil {
		log.Error().Err(err).Str("command", args[0]).Msg("command failed")
		p.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, p *page.Page, args []string) error {
	switch args[0] {
	case "avatar":
		if len(args) != 2 {
			return errors.New("avatar needs one file")
		}
		return runAvatar(ctx, p, args[1])
	case "favorite":
		if len(args) != 2 {
			return errors.New("favorite needs one track id")
		}
		return runFavorite(ctx, p, args[1])
	case "play":
		if len(args) < 2 {
			return errors.New("play needs at least one track id")
		}
		for _, id := range args[1:] {
			if err := p.Player.Click(audioID(id)); err != nil {
				return err
			}
		}
		printPlayback(p)
		return nil
	case "seek":
		if len(args) != 3 {
			return errors.New("seek needs a track id and seconds")
		}
		sec, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("seconds: %w", err)
		}
		id := audioID(args[1])
		if err := p.Player.Click(id); err != nil {
			return err
		}
		pos, err := p.Player.Seek(id, sec)
		if err != nil {
			return err
		}
		fmt.Printf("%s at %.1fs\n", id, pos)
		return nil
	case "volume":
		if len(args) == 2 {
			var slider *volume.Slider
			if len(p.Sliders) > 0 {
				slider = p.Sliders[0]
			}
			if _, err := p.Volume.Input(slider, args[1]); err != nil {
				return err
			}
		}
		fmt.Printf("volume %s (%s)\n", strconv.FormatFloat(p.Volume.Level(), 'f', -1, 64), p.Volume.Band())
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runAvatar(ctx context.Context, p *page.Page, path string) error {
	if p.Avatar == nil {
		return errors.New("page has no avatar widget")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	p.Avatar.Open()
	p.Avatar.Select(&avatar.File{Name: filepath.Base(path), Data: data})
	res := p.Avatar.Submit(ctx)
	if !res.OK() {
		fmt.Fprintln(os.Stderr, res.Message)
		return res.Err
	}
	fmt.Println(res.AvatarSrc)
	for _, msg := range p.Toasts.Active() {
		fmt.Println(msg)
	}
	return nil
}

func runFavorite(ctx context.Context, p *page.Page, raw string) error {
	id, err := strconv.Atoi(strings.TrimPrefix(raw, "audio-"))
	if err != nil {
		return fmt.Errorf("track id: %w", err)
	}
	b, ok := p.FavoriteButton(id)
	if !ok {
		return fmt.Errorf("no favorite button for track %d", id)
	}
	res := <-p.Favorites.ToggleAsync(ctx, b)
	if !res.OK() {
		return res.Err
	}
	fmt.Printf("track %d favorited=%v\n", res.TrackID, res.Favorited)
	return nil
}

func printPlayback(p *page.Page) {
	for _, id := range p.Registry.IDs() {
		ctl, _ := p.Registry.Control(id)
		fmt.Printf("%-10s %s\n", id, ctl.Glyph())
	}
	if id, ok := p.Player.Playing(); ok {
		fmt.Printf("playing %s\n", id)
	}
}

func audioID(s string) string {
	if strings.HasPrefix(s, "audio-") {
		return s
	}
	return "audio-" + s
}
