package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	var (
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "history [sweep-id]",
		Short: "Show recorded sweep history",
		Long: `Show sweeps recorded in the history journal.

Without arguments the most recent sweeps are listed. With a sweep ID the
simulations of that sweep are listed, including the parameter values each
one ran with. Requires --journal.`,
		Example: `  # List recent sweeps
  parasol history --journal sweeps.db

  # Show the simulations of one sweep
  parasol history 2024-03-14T09_26_53 --journal sweeps.db`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if journalPath == "" {
				return fmt.Errorf("history requires --journal")
			}
			ctx := cmd.Context()
			j, err := openJournal(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := j.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()

			if len(args) == 0 {
				sweeps, err := j.ListSweeps(ctx, limit, offset)
				if err != nil {
					return err
				}
				if len(sweeps) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no recorded sweeps")
					return nil
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "SWEEP ID\tSTATUS\tLENGTH\tSTARTED\tCOMPLETED\tCOMMAND")
				for _, s := range sweeps {
					completed := "-"
					if s.CompletedAt != nil {
						completed = s.CompletedAt.Format(time.RFC3339)
					}
					fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
						s.SweepID, s.Status, s.Length,
						s.StartedAt.Format(time.RFC3339), completed, s.Command)
				}
				return w.Flush()
			}

			sims, err := j.ListSimulations(ctx, args[0])
			if err != nil {
				return err
			}
			if len(sims) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no recorded simulations for sweep %s\n", args[0])
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SIM ID\tCREATED\tPARAMETERS")
			for _, s := range sims {
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.SimID, s.CreatedAt.Format(time.RFC3339), s.Params)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of sweeps to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of sweeps to skip")

	return cmd
}
