package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/dalemusser/nftjr/internal/deploy/migration"
	"github.com/spf13/cobra"
)

// NewPlanCommand creates the plan command. It needs no configuration and
// never touches the network.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "plan",
		Short:        "Print the ordered migration steps",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			plan := migration.Plan()
			return f.Success(plan, func(w io.Writer) {
				for i, p := range plan {
					fmt.Fprintf(w, "%d. %-18s %s(%s)\n", i+1, p.Name, p.Target, strings.Join(p.Args, ", "))
				}
			})
		},
	}
}
