// Package cli implements the command-line interface for arelcop.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// ErrOffenses is returned when a run found offenses or failed on a file.
// The command has already reported them, so callers only set the exit code.
var ErrOffenses = errors.New("offenses found")

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "arelcop",
	Short: "arelcop - find and rewrite legacy hash-style ActiveRecord queries",
	Long: `arelcop inspects Ruby sources for ActiveRecord calls written in the
pre-Rails-4 style, such as options hashes passed to all, first, find and
count, has_many option hashes, and dynamic finders like find_all_by_name,
and rewrites them into chained query methods.

Commands:
  lint       Report offenses
  fix        Rewrite offenses in place
  watch      Re-lint files as they change
  init       Create a .arelcop.yaml config file
  config     Show the effective configuration
  rules      List the rules
  cache      Manage the result cache`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .arelcop.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	bindFlag := func(key, flag string) {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("failed to bind %s flag: %v", flag, err))
		}
	}
	bindFlag("config_file", "config")

	// Add subcommands
	rootCmd.AddCommand(newLintCmd())
	rootCmd.AddCommand(newFixCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newRulesCmd())
	rootCmd.AddCommand(newCacheCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// newLogger returns the logger for a command. Verbose mode shows debug
// records; otherwise only warnings and errors are printed.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
