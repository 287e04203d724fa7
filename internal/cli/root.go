// Package cli provides the command-line interface for schedcompare.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/schedcompare/internal/cli/commands"
	"github.com/ccollicutt/schedcompare/internal/cli/plugins"
	"github.com/ccollicutt/schedcompare/pkg/config"
	"github.com/ccollicutt/schedcompare/pkg/logutil"
)

// DefaultLogLevel is used when neither --log-level nor the environment sets one.
const DefaultLogLevel = "warn"

// Execute runs the root command and returns the exit code.
func Execute() int {
	return execute(NewRootCommand(), os.Args[1:])
}

func execute(rootCmd *cobra.Command, args []string) int {
	defer func() { _ = logutil.GetLogger().Sync() }()

	// Unknown first words may be plugins
	if len(args) > 0 && isCommandWord(args[0]) && !isBuiltinCommand(rootCmd, args[0]) {
		if pluginPath, err := plugins.FindPlugin(args[0]); err == nil {
			return plugins.Execute(pluginPath, args[1:])
		}
		_, _ = fmt.Fprintln(rootCmd.ErrOrStderr(), plugins.FormatNotFoundError(args[0]))
		return commands.ExitUsageError
	}

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors keeps cobra from printing this itself
		_, _ = fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return commands.ExitCodeFor(err)
	}
	return commands.ExitOK
}

func isCommandWord(arg string) bool {
	return arg != "" && arg[0] != '-'
}

// isBuiltinCommand checks if a command name is a built-in cobra command.
func isBuiltinCommand(rootCmd *cobra.Command, name string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == name || cmd.HasAlias(name) {
			return true
		}
	}
	return name == "help" || name == "completion"
}

func defaultLogLevel() string {
	if v := os.Getenv(config.EnvLogLevel); v != "" {
		return v
	}
	return DefaultLogLevel
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:   "schedcompare",
		Short: "Compare scheduler execution traces",
		Long: `schedcompare extracts metrics from scheduler execution traces and compares
a rate-monotonic scheduler against a standard one.

Metrics per trace:
  - Idle time percentage over a fixed observation window
  - Task finish timeline
  - Context switches

PLUGINS:
  Unknown commands run standalone binaries named schedcompare-<command>.

  Plugin locations (searched in order):
    1. Same directory as the schedcompare binary
    2. $SCHEDCOMPARE_PLUGIN_DIR
    3. ~/.schedcompare/plugins/
    4. Anywhere in PATH`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logutil.InitLogger(logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel(),
		"Log level (debug|info|warn|error), also "+config.EnvLogLevel)

	rootCmd.AddCommand(commands.NewCompareCommand())
	rootCmd.AddCommand(commands.NewExtractCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
