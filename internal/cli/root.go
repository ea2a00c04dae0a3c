package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/modelq/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text" | "table"
	ConfigFile string

	// Config and Logger are set before any subcommand runs.
	Config *config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "table"}

// NewRootCommand creates the root command for the modelq CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "modelq",
		Short: "modelq - query models by type",
		Long: `Load models that conform to a CUE metamodel and query their
instances by type, filtered by string and numeric conditions.

Configuration is read from modelq.yaml, MODELQ_* environment
variables and flags, in increasing order of precedence.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(opts, cmd)
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (text|json|table)")
	flags.StringVar(&opts.ConfigFile, "config", "", "config file (default: modelq.yaml in the working directory)")
	flags.String("metamodel", "", "CUE metamodel file or directory")
	flags.String("database", config.DefaultDatabase, "session database path")
	flags.StringSlice("search-path", nil, "directories searched for relative model paths")
	flags.String("log-level", config.DefaultLogLevel, "log level (debug|info|warn|error)")

	// Add subcommands
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewInstancesCommand(opts))
	cmd.AddCommand(NewSelectCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// setup loads configuration and builds the logger. Logs go to stderr so
// they never mix with JSON output.
func setup(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.ConfigFile, cmd.Flags())
	if err != nil {
		return NewExitError(ExitCommandError, err.Error())
	}
	if !isValidFormat(cfg.Output) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", cfg.Output, ValidFormats))
	}

	level := cfg.Level()
	if opts.Verbose {
		level = slog.LevelDebug
	}

	opts.Config = cfg
	opts.Format = cfg.Output
	opts.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
