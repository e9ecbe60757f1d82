/*
Package config manages TOML config for WordRecall.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/bastiangx/wordrecall/internal/utils"
	"github.com/bastiangx/wordrecall/pkg/history"
	"github.com/bastiangx/wordrecall/pkg/trie"
	"github.com/charmbracelet/log"
)

const appDirName = "wordrecall"

// Config holds the entire config structure
type Config struct {
	History HistoryConfig `toml:"history"`
	Server  ServerConfig  `toml:"server"`
	CLI     CliConfig     `toml:"cli"`
}

// HistoryConfig controls how submissions are stored and ranked.
type HistoryConfig struct {
	Style         trie.Style `toml:"style"`
	Limit         int        `toml:"limit"`
	Backend       string     `toml:"backend"`
	Path          string     `toml:"path"`
	AutosaveEvery int        `toml:"autosave_every"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	MaxLimit  int `toml:"max_limit"`
	MinPrefix int `toml:"min_prefix"`
	MaxPrefix int `toml:"max_prefix"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit int `toml:"default_limit"`
}

// configDirCandidates lists the writable locations tried for the config
// directory, most preferred first.
func configDirCandidates() []string {
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, appDirName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(home, ".config", appDirName),
			filepath.Join(home, "Library", "Application Support", appDirName))
	} else {
		log.Warnf("Home directory unavailable: %v", err)
	}
	return dirs
}

// GetConfigDir returns the first writable of $XDG_CONFIG_HOME/wordrecall,
// ~/.config/wordrecall and ~/Library/Application Support/wordrecall, or the
// executable's directory when none is.
func GetConfigDir() (string, error) {
	for _, dir := range configDirCandidates() {
		if utils.CheckDirStatus(dir).Writable {
			return dir, nil
		}
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("No usable config directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// HistoryPath returns the configured history location. An empty path
// resolves next to the config file, named after the backend.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return utils.GetAbsolutePath(c.History.Path), nil
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	if c.History.Backend == history.BackendSQLite {
		return filepath.Join(configDir, "history.db"), nil
	}
	return filepath.Join(configDir, "history.msgpack"), nil
}

// LoadConfigWithPriority returns the config at customConfigPath when it
// loads, else the one at the default path (created if missing), else the
// builtin defaults. The second value is the file actually used, empty for
// defaults.
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		config, err := loadExisting(customConfigPath)
		if err == nil {
			log.Debugf("Loaded config from custom path: %s", customConfigPath)
			return config, customConfigPath, nil
		}
		log.Warnf("Ignoring config %s: %v", customConfigPath, err)
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("No default config path (%v), using builtin defaults", err)
		return DefaultConfig(), "", nil
	}
	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Config at %s unusable (%v), using builtin defaults", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	return config, defaultPath, nil
}

func loadExisting(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return LoadConfig(path)
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		History: HistoryConfig{
			Style:         trie.Frequency,
			Limit:         24,
			Backend:       history.BackendFile,
			Path:          "",
			AutosaveEvery: 20,
		},
		Server: ServerConfig{
			MaxLimit:  64,
			MinPrefix: 0,
			MaxPrefix: 120,
		},
		CLI: CliConfig{
			DefaultLimit: 10,
		},
	}
}

// InitConfig loads configPath, writing the defaults there first when the
// file does not exist. Any failure falls back to the defaults in memory.
func InitConfig(configPath string) (*Config, error) {
	if utils.FileExists(configPath) {
		config, err := LoadConfig(configPath)
		if err != nil {
			log.Warnf("Reading %s failed, using defaults: %v", configPath, err)
			return DefaultConfig(), nil
		}
		return config, nil
	}

	config := DefaultConfig()
	if err := utils.EnsureDir(filepath.Dir(configPath)); err != nil {
		log.Warnf("Cannot create %s, using defaults: %v", filepath.Dir(configPath), err)
		return config, nil
	}
	if err := SaveConfig(config, configPath); err != nil {
		log.Warnf("Cannot write default config to %s: %v", configPath, err)
		return config, nil
	}
	log.Debugf("Created default config file at: %s", configPath)
	return config, nil
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse keeps every section value that parses and falls back to
// defaults for the rest.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if historySection, ok := utils.ExtractSection(tempConfig, "history"); ok {
		extractHistoryConfig(historySection, &config.History)
	}
	if serverSection, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(serverSection, &config.Server)
	}
	if cliSection, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(cliSection, &config.CLI)
	}
	return config, nil
}

// extractHistoryConfig extracts history configuration from a map
func extractHistoryConfig(data map[string]any, h *HistoryConfig) {
	if val, ok := utils.ExtractString(data, "style"); ok {
		if style, err := trie.ParseStyle(val); err == nil {
			h.Style = style
		} else {
			log.Warnf("Ignoring history.style: %v", err)
		}
	}
	if val, ok := utils.ExtractInt64(data, "limit"); ok {
		h.Limit = val
	}
	if val, ok := utils.ExtractString(data, "backend"); ok {
		h.Backend = val
	}
	if val, ok := utils.ExtractString(data, "path"); ok {
		h.Path = val
	}
	if val, ok := utils.ExtractInt64(data, "autosave_every"); ok {
		h.AutosaveEvery = val
	}
}

// extractServerConfig extracts server configuration from a map
func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_limit"); ok {
		server.MaxLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "min_prefix"); ok {
		server.MinPrefix = val
	}
	if val, ok := utils.ExtractInt64(data, "max_prefix"); ok {
		server.MaxPrefix = val
	}
}

// extractCliConfig extracts CLI config from a map
func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		cli.DefaultLimit = val
	}
}

// RebuildConfigFile force creates a new config.toml at default
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(defaultPath)); err != nil {
		return err
	}
	return utils.SaveTOMLFile(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// Update changes the history values and saves to file
func (c *Config) Update(configPath string, style *trie.Style, limit, autosaveEvery *int) error {
	h := &c.History
	if style != nil {
		h.Style = *style
	}
	if limit != nil {
		h.Limit = *limit
	}
	if autosaveEvery != nil {
		h.AutosaveEvery = *autosaveEvery
	}
	return SaveConfig(c, configPath)
}
