package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestWatcherReloadsOnChange(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "log_level: info\n")

	initial, err := load(path)
	require.NoError(t, err)

	w, err := NewWatcher(path, initial, zap.NewNop())
	require.NoError(t, err)
	w.debounce = 10 * time.Millisecond
	t.Cleanup(func() { _ = w.Stop() })

	changed := make(chan *Config, 4)
	w.OnChange(func(cfg *Config) { changed <- cfg })
	w.Start()

	writeFile(t, path, "log_level: debug\n")

	select {
	case cfg := <-changed:
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "debug", w.Current().LogLevel)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcherKeepsConfigOnInvalidReload(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "log_level: info\n")

	initial, err := load(path)
	require.NoError(t, err)

	w, err := NewWatcher(path, initial, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	called := false
	w.OnChange(func(*Config) { called = true })

	writeFile(t, path, "cascade_concurrency: [not, a, number]\n")
	w.reload()

	assert.False(t, called)
	assert.Same(t, initial, w.Current())
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "")

	w, err := NewWatcher(path, defaults(), zap.NewNop())
	require.NoError(t, err)
	w.Start()

	require.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
