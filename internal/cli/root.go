package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string   // "json" | "text"
	EnvFile []string // .env files read before NFTJR_* variables

	Logger *zap.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the migrate CLI using the
// production environment.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithEnv(DefaultEnv())
}

// NewRootCommandWithEnv creates the root command with explicit dependencies.
func NewRootCommandWithEnv(env Env) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "nftjr-migrate",
		Short: "Deploy and wire the nftjr contracts",
		Long: `Deploys Market, Families and Media through MultiBaas, configures Market
with the Media address and starts the first family.

Configuration comes from NFTJR_* environment variables, optionally seeded
from a .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			logger, err := newLogger(opts.Verbose)
			if err != nil {
				return WrapExitError(ExitCommandError, "logger", err)
			}
			opts.Logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.Logger != nil {
				_ = opts.Logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringSliceVar(&opts.EnvFile, "env-file", []string{".env"}, "dotenv files to load (missing files are skipped)")

	cmd.AddCommand(NewDeployCommand(opts, env))
	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts, env))

	return cmd
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func (o *RootOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}
