package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

const DefaultPort = 8000

type Config struct {
	Server ServerConfig `toml:"server"`
	CORS   CORSConfig   `toml:"cors"`
	Log    LogConfig    `toml:"log"`
}

type ServerConfig struct {
	// Host が空の場合はすべてのインターフェースで待ち受ける
	Host string `toml:"host"`
	// Port が0の場合は空いているポートを使う
	Port        int  `toml:"port"`
	OpenBrowser bool `toml:"open_browser"`
}

type CORSConfig struct {
	AllowOrigin  string   `toml:"allow_origin"`
	AllowMethods []string `toml:"allow_methods"`
	AllowHeaders []string `toml:"allow_headers"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Access bool   `toml:"access"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:        DefaultPort,
			OpenBrowser: true,
		},
		CORS: CORSConfig{
			AllowOrigin:  "*",
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Content-Type"},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load はTOMLファイルをデフォルト設定の上に読み込む。path が空の場合はデフォルト設定を返す。
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("failed to decode config %s: %s", path, strict.String())
		}
		return Config{}, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 0 and 65535", c.Server.Port)
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}

	return nil
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}
	return level, nil
}
