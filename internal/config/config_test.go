package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"PLAYER_CONFIG", "PLAYER_DOCUMENT", "PLAYER_MESSAGES_DIR", "HTTP_ADDR", "REDIS_URL",
		"RENDER_CACHE_TTL", "PLAYER_SETTLE", "PLAYER_AUTOPLAY_PAUSE", "PLAYER_SLIDE_FAST",
		"PLAYER_SLIDE_SLOW", "PLAYER_STRIDE", "RENDER_SQUARE_SIZE", "PLAYER_DIAGRAM_SPACING",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.Settle)
	assert.Equal(t, 500*time.Millisecond, cfg.AutoplayPause)
	assert.Equal(t, 200*time.Millisecond, cfg.SlideFast)
	assert.Equal(t, 600*time.Millisecond, cfg.SlideSlow)
	assert.Equal(t, 36, cfg.Stride)
	assert.Equal(t, 20, cfg.DiagramSpacing)
	assert.Equal(t, ":8085", cfg.HTTPAddr)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "player.yaml")
	require.NoError(t, os.WriteFile(path, []byte("document: games/a.yaml\nsettle: 2s\nstride: 40\nredis_url: redis://file:6379/0\n"), 0o644))
	t.Setenv("PLAYER_CONFIG", path)
	t.Setenv("REDIS_URL", "redis://env:6379/1")
	t.Setenv("PLAYER_AUTOPLAY_PAUSE", "750")
	t.Setenv("PLAYER_SLIDE_FAST", "150ms")
	t.Setenv("PLAYER_STRIDE", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "games/a.yaml", cfg.DocumentPath)
	assert.Equal(t, 2*time.Second, cfg.Settle)
	assert.Equal(t, 40, cfg.Stride, "bad env values keep the previous value")
	assert.Equal(t, "redis://env:6379/1", cfg.RedisURL)
	assert.Equal(t, 750*time.Millisecond, cfg.AutoplayPause)
	assert.Equal(t, 150*time.Millisecond, cfg.SlideFast)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("PLAYER_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	require.Error(t, err)

	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("square_size: 2\n"), 0o644))
	t.Setenv("PLAYER_CONFIG", path)
	_, err = Load()
	assert.ErrorContains(t, err, "RENDER_SQUARE_SIZE")
}
