package main

import (
	"errors"
	"fmt"

	"github.com/bastiangx/wordrecall/internal/cli"
	"github.com/bastiangx/wordrecall/pkg/config"
	"github.com/bastiangx/wordrecall/pkg/dictionary"
	"github.com/bastiangx/wordrecall/pkg/history"
	"github.com/bastiangx/wordrecall/pkg/trie"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	cliLimit    int
	setStyle    string
	setLimit    int
	setAutosave int
)

var cliCmd = &cobra.Command{
	Use:   "cli",
	Short: "Type prefixes and see suggestions -- useful for testing and debugging",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()
		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, sess.close(ctx))
		}()

		limit := sess.cfg.CLI.DefaultLimit
		if cmd.Flags().Changed("limit") {
			limit = cliLimit
		}
		sess.provider.SetLimit(limit)
		log.Debug("Input info:",
			"minPrefix", sess.cfg.Server.MinPrefix,
			"maxPrefix", sess.cfg.Server.MaxPrefix,
			"limit", limit)

		handler := cli.NewInputHandler(sess.provider, sess.store, cmd.InOrStdin(), cmd.OutOrStdout(),
			sess.cfg.Server.MinPrefix, sess.cfg.Server.MaxPrefix)
		return handler.Start(ctx)
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Merge a word list, snapshot or SQLite history into the history",
	Long: `Merge records from file into the history. Counts are added to existing
ones. Accepted formats are picked by extension:

  .txt .list             one entry per line, optional tab and count
  .msgpack .bin          history snapshot
  .db .sqlite .sqlite3   SQLite history`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()
		records, err := dictionary.LoadFile(ctx, args[0])
		if err != nil {
			return err
		}

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, sess.close(ctx))
		}()

		n, err := sess.provider.Import(records)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d records, history has %d words\n", n, sess.provider.Stats()["words"])
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the history to a word list, snapshot or SQLite file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.store.Close()

		records := history.FromEntries(sess.provider.Trie().Entries())
		if err := dictionary.SaveFile(ctx, args[0], records); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d records to %s\n", len(records), args[0])
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the config file",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the active config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, used, err := config.LoadConfigWithPriority(configPath)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), config.GetActiveConfigPath(used))
		return nil
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Rewrite the default config file with builtin defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.RebuildConfigFile(); err != nil {
			return fmt.Errorf("failed to rebuild config: %w", err)
		}
		path, _ := config.GetDefaultConfigPath()
		fmt.Fprintf(cmd.OutOrStdout(), "wrote defaults to %s\n", path)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change history settings in the config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, used, err := config.LoadConfigWithPriority(configPath)
		if err != nil {
			return err
		}
		if used == "" {
			return fmt.Errorf("no writable config file")
		}

		var (
			style           *trie.Style
			limit, autosave *int
		)
		if cmd.Flags().Changed("style") {
			parsed, err := trie.ParseStyle(setStyle)
			if err != nil {
				return err
			}
			style = &parsed
		}
		if cmd.Flags().Changed("limit") {
			if setLimit < 0 {
				return fmt.Errorf("limit must not be negative")
			}
			limit = &setLimit
		}
		if cmd.Flags().Changed("autosave") {
			if setAutosave < 0 {
				return fmt.Errorf("autosave must not be negative")
			}
			autosave = &setAutosave
		}
		if style == nil && limit == nil && autosave == nil {
			return fmt.Errorf("nothing to change, use --style, --limit or --autosave")
		}

		if err := cfg.Update(used, style, limit, autosave); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", used)
		return nil
	},
}

func init() {
	cliCmd.Flags().IntVar(&cliLimit, "limit", 0, "Number of suggestions to show (default from config, 0 = all)")

	configSetCmd.Flags().StringVar(&setStyle, "style", "", "Completion style: lexicographical or frequency")
	configSetCmd.Flags().IntVar(&setLimit, "limit", 0, "Suggestion limit (0 = all)")
	configSetCmd.Flags().IntVar(&setAutosave, "autosave", 0, "Save after this many records (0 = only on exit)")
	configCmd.AddCommand(configPathCmd, configResetCmd, configSetCmd)
}
