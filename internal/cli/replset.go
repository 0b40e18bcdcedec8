package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewInitReplSetCommand creates the init-replset command.
func NewInitReplSetCommand(opts *RootOptions) *cobra.Command {
	var settle time.Duration

	cmd := &cobra.Command{
		Use:   "init-replset",
		Short: "Initiate the single-node Mongo replica set",
		Long: `Initiate a single-member replica set named MONGO_REPLSET with
MONGO_REPLSET_HOST as its only member. Does nothing when the set already
exists.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.LoadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := opts.deadline(cmd)
			defer cancel()

			result, err := opts.InitReplSet(ctx, cfg, settle)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.Initiated {
				fmt.Fprintf(out, "Replica set %s initiated\n", cfg.Mongo.ReplicaSet)
			} else {
				fmt.Fprintln(out, "Replica set already initialized")
			}
			if result.Status != nil {
				fmt.Fprintf(out, "  Set:   %s\n", result.Status.Set)
				fmt.Fprintf(out, "  State: %d\n", result.Status.MyState)
				for _, m := range result.Status.Members {
					fmt.Fprintf(out, "  Member %d: %s (%s)\n", m.ID, m.Name, m.StateStr)
				}
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&settle, "settle", 5*time.Second, "wait after initiating before reading status back")

	return cmd
}
