package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	DocumentPath string `yaml:"document"`
	MessagesDir  string `yaml:"messages_dir"`

	HTTPAddr string        `yaml:"http_addr"`
	RedisURL string        `yaml:"redis_url"`
	CacheTTL time.Duration `yaml:"cache_ttl"`

	Settle        time.Duration `yaml:"settle"`
	AutoplayPause time.Duration `yaml:"autoplay_pause"`
	SlideFast     time.Duration `yaml:"slide_fast"`
	SlideSlow     time.Duration `yaml:"slide_slow"`

	Stride     int `yaml:"stride"`
	SquareSize int `yaml:"square_size"`

	DiagramSpacing int `yaml:"diagram_spacing"`
}

// Defaults: 1s settle, 500ms autoplay pause,
// 200/600ms slides on a 36px grid.
func Defaults() *AppConfig {
	return &AppConfig{
		HTTPAddr:       ":8085",
		CacheTTL:       10 * time.Minute,
		Settle:         time.Second,
		AutoplayPause:  500 * time.Millisecond,
		SlideFast:      200 * time.Millisecond,
		SlideSlow:      600 * time.Millisecond,
		Stride:         36,
		SquareSize:     48,
		DiagramSpacing: 20,
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by PLAYER_CONFIG and then the environment.
func Load() (*AppConfig, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv("PLAYER_CONFIG")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if v := strings.TrimSpace(os.Getenv("PLAYER_DOCUMENT")); v != "" {
		cfg.DocumentPath = v
	}
	if v := strings.TrimSpace(os.Getenv("PLAYER_MESSAGES_DIR")); v != "" {
		cfg.MessagesDir = v
	}
	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		cfg.RedisURL = v
	}

	envDuration("RENDER_CACHE_TTL", &cfg.CacheTTL)
	envDuration("PLAYER_SETTLE", &cfg.Settle)
	envDuration("PLAYER_AUTOPLAY_PAUSE", &cfg.AutoplayPause)
	envDuration("PLAYER_SLIDE_FAST", &cfg.SlideFast)
	envDuration("PLAYER_SLIDE_SLOW", &cfg.SlideSlow)

	envInt("PLAYER_STRIDE", &cfg.Stride)
	envInt("RENDER_SQUARE_SIZE", &cfg.SquareSize)
	envInt("PLAYER_DIAGRAM_SPACING", &cfg.DiagramSpacing)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate rejects values no component can work with.
func (c *AppConfig) Validate() error {
	if c.Stride <= 0 {
		return errors.New("PLAYER_STRIDE must be positive")
	}
	if c.SquareSize < 8 {
		return errors.New("RENDER_SQUARE_SIZE must be at least 8")
	}
	if c.DiagramSpacing <= 0 {
		return errors.New("PLAYER_DIAGRAM_SPACING must be positive")
	}
	if c.Settle < 0 || c.AutoplayPause < 0 || c.SlideFast < 0 || c.SlideSlow < 0 {
		return errors.New("durations must not be negative")
	}
	return nil
}

// envDuration accepts a Go duration ("750ms") or whole milliseconds.
func envDuration(key string, dst *time.Duration) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
		return
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 {
		*dst = time.Duration(n) * time.Millisecond
	}
}

func envInt(key string, dst *int) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}
