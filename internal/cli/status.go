package cli

import (
	"errors"
	"fmt"
	"io"

	deploymentsstore "github.com/dalemusser/nftjr/internal/app/store/deployments"
	"github.com/dalemusser/nftjr/internal/domain/models"
	"github.com/spf13/cobra"
)

// NewStatusCommand creates the status command, which prints the latest run
// recorded in the ledger for the configured network.
func NewStatusCommand(rootOpts *RootOptions, env Env) *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Show the latest recorded migration run",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

			cfg, err := env.LoadConfig(rootOpts.EnvFile)
			if err != nil {
				return f.Failure(WrapExitError(ExitCommandError, "configuration", err), nil)
			}

			ledger, closeLedger, err := env.OpenLedger(cmd.Context(), cfg, rootOpts.logger())
			if err != nil {
				return f.Failure(WrapExitError(ExitCommandError, "ledger", err), nil)
			}
			defer closeLedger()

			steps, err := ledger.LatestRun(cmd.Context(), cfg.Network.Name)
			if errors.Is(err, deploymentsstore.ErrNoRuns) {
				steps = []models.MigrationStep{}
			} else if err != nil {
				return f.Failure(WrapExitError(ExitFailure, "read ledger", err), nil)
			}

			return f.Success(steps, func(w io.Writer) {
				if len(steps) == 0 {
					fmt.Fprintf(w, "no migration runs recorded on %s\n", cfg.Network.Name)
					return
				}
				fmt.Fprintf(w, "run %s on %s (%d steps)\n", steps[0].RunID, cfg.Network.Name, len(steps))
				writeSteps(w, steps)
			})
		},
	}
}
