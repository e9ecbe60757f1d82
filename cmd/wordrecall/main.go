// Copyright 2025 The WordRecall Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the WordRecall history server and CLI.

WordRecall remembers text a user has submitted and suggests earlier entries
that start with what is being typed. Suggestions are ordered alphabetically
or by how often each entry was submitted.

# Usage

Start the msgpack IPC server on stdin/stdout:

	wordrecall serve

Expose Prometheus metrics while serving:

	wordrecall serve --metrics :9101

Try completions interactively:

	wordrecall cli -d

Seed or back up the history:

	wordrecall import words.txt
	wordrecall export backup.db

# Configuration

The config file lives at $XDG_CONFIG_HOME/wordrecall/config.toml (or
~/.config/wordrecall/config.toml) and is created with defaults if missing:

	[history]
	style = "frequency"
	limit = 24
	backend = "file"
	path = ""
	autosave_every = 20

	[server]
	max_limit = 64
	min_prefix = 0
	max_prefix = 120

	[cli]
	default_limit = 10

The serve command reloads the file when it changes.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bastiangx/wordrecall/internal/logger"
	"github.com/bastiangx/wordrecall/pkg/config"
	"github.com/bastiangx/wordrecall/pkg/history"
	"github.com/bastiangx/wordrecall/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
	AppName = "wordrecall"
	gh      = "https://github.com/bastiangx/wordrecall"
)

var (
	configPath  string
	historyPath string
	backend     string
	debugMode   bool
)

var rootCmd = &cobra.Command{
	Use:   AppName,
	Short: "Suggests previously submitted text by prefix",
	Long: `WordRecall keeps a history of submitted text in a prefix trie and
suggests earlier entries alphabetically or by frequency.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Setup(debugMode)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show current version",
	Run: func(cmd *cobra.Command, args []string) {
		banner := logger.Banner(cmd.ErrOrStderr())
		banner.Print("")
		banner.Print("[ WordRecall ] Remembers what you typed!")
		banner.Print("", "version", Version)
		banner.Print("")
		banner.Print("use -h or --help to see available options")
		banner.Print("Github Repo", "gh", gh)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.toml")
	rootCmd.PersistentFlags().StringVar(&historyPath, "history", "", "History file, overrides history.path")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "History backend: file or sqlite (default guessed from --history)")
	rootCmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false, "Toggle debug mode")

	rootCmd.AddCommand(serveCmd, cliCmd, importCmd, exportCmd, configCmd, versionCmd)
}

// sigHandler cancels the returned context on SIGINT or SIGTERM so commands
// can save the history before exiting.
func sigHandler() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(c)
		select {
		case <-c:
			fmt.Fprintf(os.Stderr, "\nExiting...\n")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// main only wires the flow; each subcommand lives in its own file.
func main() {
	ctx, cancel := sigHandler()
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// session is what every history command needs.
type session struct {
	cfg        *config.Config
	configPath string
	store      history.Store
	provider   *suggest.Provider
}

// applyOverrides puts the persistent flags on top of a loaded config.
func applyOverrides(cfg *config.Config) {
	if historyPath != "" {
		cfg.History.Path = historyPath
		cfg.History.Backend = backend
	} else if backend != "" {
		cfg.History.Backend = backend
	}
}

// openSession loads the config, opens the store and restores the history.
// A corrupt history is set aside and replaced by an empty one.
func openSession(ctx context.Context) (*session, error) {
	cfg, usedPath, err := config.LoadConfigWithPriority(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyOverrides(cfg)
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(usedPath))

	path, err := cfg.HistoryPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve history path: %w", err)
	}
	store, err := history.Open(cfg.History.Backend, path)
	if err != nil {
		return nil, err
	}
	log.Debugf("Using history at: %s", path)

	provider := suggest.NewProvider(
		suggest.WithStyle(cfg.History.Style),
		suggest.WithLimit(cfg.History.Limit),
	)
	if err := provider.Restore(ctx, store); err != nil {
		if !history.IsCorrupt(err) {
			store.Close()
			return nil, fmt.Errorf("failed to restore history: %w", err)
		}
		if store, err = setAside(store, cfg.History.Backend, path); err != nil {
			return nil, err
		}
	}

	return &session{cfg: cfg, configPath: usedPath, store: store, provider: provider}, nil
}

// setAside moves a corrupt history to path.corrupt so the next save does not
// overwrite it, then reopens an empty store at path.
func setAside(store history.Store, backend, path string) (history.Store, error) {
	store.Close()
	moved := path + ".corrupt"
	if err := os.Rename(path, moved); err != nil {
		return nil, fmt.Errorf("failed to move corrupt history aside: %w", err)
	}
	log.Warnf("History at %s is corrupt, moved to %s and starting empty", path, moved)

	return history.Open(backend, path)
}

// close saves the history and releases the store.
func (s *session) close(ctx context.Context) error {
	defer s.store.Close()
	return s.provider.Persist(context.WithoutCancel(ctx), s.store)
}
