package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bastiangx/wordrecall/pkg/trie"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestInitConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wordrecall", "config.toml")

	cfg, err := InitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	require.FileExists(t, path)

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), loaded)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
[history]
style = "lexicographical"
limit = 5
backend = "sqlite"
path = "/tmp/h.db"
autosave_every = 0

[server]
max_limit = 8
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, trie.Lexicographical, cfg.History.Style)
	assert.Equal(t, 5, cfg.History.Limit)
	assert.Equal(t, "sqlite", cfg.History.Backend)
	assert.Equal(t, "/tmp/h.db", cfg.History.Path)
	assert.Equal(t, 0, cfg.History.AutosaveEvery)
	assert.Equal(t, 8, cfg.Server.MaxLimit)
	// untouched sections keep defaults
	assert.Equal(t, DefaultConfig().Server.MaxPrefix, cfg.Server.MaxPrefix)
	assert.Equal(t, DefaultConfig().CLI, cfg.CLI)
}

func TestLoadConfigPartialRecovery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	// an unknown style fails the typed decode, the rest still applies
	writeFile(t, path, `
[history]
style = "random"
limit = 7

[cli]
default_limit = 3
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().History.Style, cfg.History.Style)
	assert.Equal(t, 7, cfg.History.Limit)
	assert.Equal(t, 3, cfg.CLI.DefaultLimit)
}

func TestLoadConfigGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "this is [not toml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestUpdateSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := DefaultConfig()

	style := trie.Lexicographical
	limit := 3
	require.NoError(t, cfg.Update(path, &style, &limit, nil))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, trie.Lexicographical, loaded.History.Style)
	assert.Equal(t, 3, loaded.History.Limit)
	assert.Equal(t, DefaultConfig().History.AutosaveEvery, loaded.History.AutosaveEvery)
}

func TestLoadConfigWithPriority(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	custom := filepath.Join(t.TempDir(), "custom.toml")
	writeFile(t, custom, "[cli]\ndefault_limit = 42\n")

	cfg, used, err := LoadConfigWithPriority(custom)
	require.NoError(t, err)
	assert.Equal(t, custom, used)
	assert.Equal(t, 42, cfg.CLI.DefaultLimit)

	cfg, used, err = LoadConfigWithPriority(filepath.Join(xdg, "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(xdg, "wordrecall", "config.toml"), used)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfigDirCandidates(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	dirs := configDirCandidates()
	require.NotEmpty(t, dirs)
	assert.Equal(t, filepath.Join(xdg, "wordrecall"), dirs[0])

	dir, err := GetConfigDir()
	require.NoError(t, err)
	assert.Equal(t, dirs[0], dir)
}

func TestHistoryPath(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	cfg := DefaultConfig()
	path, err := cfg.HistoryPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(xdg, "wordrecall", "history.msgpack"), path)

	cfg.History.Backend = "sqlite"
	path, err = cfg.HistoryPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(xdg, "wordrecall", "history.db"), path)

	cfg.History.Path = "/var/lib/words.db"
	path, err = cfg.HistoryPath()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/words.db", path)
}

func TestWatchReloads(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, SaveConfig(DefaultConfig(), path))

	ctx, cancel := context.WithCancel(context.Background())
	reloaded := make(chan *Config, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg *Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		})
	}()

	// give the watcher time to register before writing
	time.Sleep(100 * time.Millisecond)
	writeFile(t, path, "[history]\nlimit = 99\n")

	// truncation may fire a reload of the empty file first
	timeout := time.After(5 * time.Second)
	for got := false; !got; {
		select {
		case cfg := <-reloaded:
			got = cfg.History.Limit == 99
		case <-timeout:
			t.Fatal("config was not reloaded")
		}
	}

	cancel()
	require.NoError(t, <-done)
}
