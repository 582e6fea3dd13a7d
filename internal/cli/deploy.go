package cli

import (
	"fmt"
	"io"

	"github.com/dalemusser/nftjr/internal/deploy/migration"
	"github.com/dalemusser/nftjr/internal/domain/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// DeploySummary is the deploy command's output.
type DeploySummary struct {
	RunID    string                 `json:"run_id"`
	Network  string                 `json:"network"`
	Market   models.Address         `json:"market,omitempty"`
	Families models.Address         `json:"families,omitempty"`
	Media    models.Address         `json:"media,omitempty"`
	Steps    []models.MigrationStep `json:"steps"`
}

// NewDeployCommand creates the deploy command.
func NewDeployCommand(rootOpts *RootOptions, env Env) *cobra.Command {
	return &cobra.Command{
		Use:   "deploy",
		Short: "Deploy Market, Families and Media, then wire them together",
		Long: `Deploys Market and Families, deploys Media with both addresses, configures
Market with the Media address and starts the first family.

Every step waits for its transaction to be mined. The first failure stops
the run; completed steps stay recorded in the ledger. Re-running deploys
fresh contracts.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd, rootOpts, env)
		},
	}
}

func runDeploy(cmd *cobra.Command, opts *RootOptions, env Env) error {
	ctx := cmd.Context()
	log := opts.logger()
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	cfg, err := env.LoadConfig(opts.EnvFile)
	if err != nil {
		return f.Failure(WrapExitError(ExitCommandError, "configuration", err), nil)
	}
	log.Info("migration starting", cfg.LogFields()...)

	ledger, closeLedger, err := env.OpenLedger(ctx, cfg, log)
	if err != nil {
		return f.Failure(WrapExitError(ExitCommandError, "ledger", err), nil)
	}
	defer closeLedger()

	driver, closeDriver, err := env.NewDriver(ctx, cfg, log)
	if err != nil {
		return f.Failure(WrapExitError(ExitCommandError, "deploy driver", err), nil)
	}
	defer closeDriver()

	rec := migration.NewLedgerRecorder(ledger, cfg.Network.Name, cfg.Network.ID)
	res, err := migration.Run(ctx, driver, migration.Options{Recorder: rec, Logger: log})

	summary := DeploySummary{
		RunID:    rec.RunID,
		Network:  cfg.Network.Name,
		Market:   res.Market,
		Families: res.Families,
		Media:    res.Media,
		Steps:    res.Steps,
	}
	if err != nil {
		log.Error("migration failed",
			zap.String("run_id", rec.RunID),
			zap.Int("completed_steps", len(res.Steps)),
			zap.Error(err))
		if f.Format != "json" && len(summary.Steps) > 0 {
			fmt.Fprintf(f.Writer, "run %s stopped after %d steps\n", summary.RunID, len(summary.Steps))
			writeSteps(f.Writer, summary.Steps)
		}
		return f.Failure(WrapExitError(ExitFailure, "migration failed", err), summary)
	}

	return f.Success(summary, func(w io.Writer) {
		fmt.Fprintf(w, "run %s on %s\n", summary.RunID, summary.Network)
		writeSteps(w, summary.Steps)
	})
}

func writeSteps(w io.Writer, steps []models.MigrationStep) {
	for _, s := range steps {
		switch s.Kind {
		case models.StepKindDeploy:
			fmt.Fprintf(w, "  %d. deployed %-9s %s  tx %s\n", s.Seq, s.AddressLabel, s.Address, s.TxHash)
		default:
			fmt.Fprintf(w, "  %d. called   %s.%s(%v)  tx %s\n", s.Seq, s.AddressLabel, s.Method, s.Args, s.TxHash)
		}
	}
}
