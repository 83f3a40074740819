package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Duration time.Duration

func (d Duration) ToDuration() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		*d = 0
		return nil
	}
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar")
	}

	// "750ms", "3s", or bare integer seconds
	if value.Tag == "!!int" {
		i, err := strconv.ParseInt(value.Value, 10, 64)
		if err != nil {
			return err
		}
		*d = Duration(time.Duration(i) * time.Second)
		return nil
	}
	if value.Value == "" {
		*d = 0
		return nil
	}
	if dur, err := time.ParseDuration(value.Value); err == nil {
		*d = Duration(dur)
		return nil
	}
	if i, err := strconv.ParseInt(value.Value, 10, 64); err == nil {
		*d = Duration(time.Duration(i) * time.Second)
		return nil
	}
	return fmt.Errorf("invalid duration: %q", value.Value)
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Client  ClientConfig  `yaml:"client"`
	Storage StorageConfig `yaml:"storage"`
	Library LibraryConfig `yaml:"library"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Bind              string   `yaml:"bind"`
	Port              int      `yaml:"port"`
	ReadHeaderTimeout Duration `yaml:"read_header_timeout"`
	MaxUploadBytes    int64    `yaml:"max_upload_bytes"`
}

type ClientConfig struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`

	// Local file standing in for browser storage (persisted volume).
	StateFile string `yaml:"state_file"`

	// How long the avatar success toast stays up.
	NotifyAfter Duration `yaml:"notify_after"`
}

type StorageConfig struct {
	AvatarDir     string `yaml:"avatar_dir"`
	FavoritesFile string `yaml:"favorites_file"`
}

type LibraryConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

const (
	defaultBind           = "0.0.0.0"
	defaultPort           = 8092
	defaultMaxUploadBytes = 5 << 20
	defaultBaseURL        = "http://127.0.0.1:8092"
	defaultAvatarDir      = "./data/avatars"
	defaultFavoritesFile  = "./data/favorites.yaml"
	defaultStateFile      = "./data/client-state.yaml"
	defaultLibraryPath    = "library.yaml"
)

func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind:              defaultBind,
			Port:              defaultPort,
			ReadHeaderTimeout: Duration(5 * time.Second),
			MaxUploadBytes:    defaultMaxUploadBytes,
		},
		Client: ClientConfig{
			BaseURL:     defaultBaseURL,
			Timeout:     Duration(30 * time.Second),
			StateFile:   defaultStateFile,
			NotifyAfter: Duration(3 * time.Second),
		},
		Storage: StorageConfig{
			AvatarDir:     defaultAvatarDir,
			FavoritesFile: defaultFavoritesFile,
		},
		Library: LibraryConfig{
			Path: defaultLibraryPath,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path over Default. A missing file is an error; callers that
// want to run on defaults alone should check os.IsNotExist.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.Sanitize()
	return cfg, nil
}

// Sanitize restores defaults for zero or invalid values.
func (cfg *Config) Sanitize() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = defaultBind
	}
	if cfg.Server.ReadHeaderTimeout.ToDuration() <= 0 {
		cfg.Server.ReadHeaderTimeout = Duration(5 * time.Second)
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		cfg.Server.MaxUploadBytes = defaultMaxUploadBytes
	}

	if cfg.Client.BaseURL == "" {
		cfg.Client.BaseURL = defaultBaseURL
	}
	if cfg.Client.Timeout.ToDuration() <= 0 {
		cfg.Client.Timeout = Duration(30 * time.Second)
	}
	if cfg.Client.StateFile == "" {
		cfg.Client.StateFile = defaultStateFile
	}
	if cfg.Client.NotifyAfter.ToDuration() <= 0 {
		cfg.Client.NotifyAfter = Duration(3 * time.Second)
	}

	if cfg.Storage.AvatarDir == "" {
		cfg.Storage.AvatarDir = defaultAvatarDir
	}
	if cfg.Storage.FavoritesFile == "" {
		cfg.Storage.FavoritesFile = defaultFavoritesFile
	}
	if cfg.Library.Path == "" {
		cfg.Library.Path = defaultLibraryPath
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
