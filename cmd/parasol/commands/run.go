package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/parasol-run/parasol/pkg/config"
	"github.com/parasol-run/parasol/pkg/engine"
)

func newRunCommand() *cobra.Command {
	var (
		sweepID       string
		serial        bool
		wait          bool
		cleanup       bool
		delay         time.Duration
		errorIfExists bool
		saveMapping   bool
		quiet         bool
		dryRun        bool
	)

	cmd := &cobra.Command{
		Use:   "run <sweep-file>",
		Short: "Execute a parameter sweep",
		Long: `Execute the parameter sweep described by a sweep file.

This command:
  - Loads and validates the sweep file (YAML or CUE)
  - Renders one configuration file per template for every parameter set
  - Dispatches one simulation per parameter set to the configured backend
  - Writes the simulation ID mapping artifact
  - Records the run in the history journal when --journal is set

Flags override the matching sweep file settings only when given
explicitly.`,
		Example: `  # Run a sweep
  parasol run sweep.yaml

  # Fixed sweep ID, wait for every simulation to finish
  parasol run sweep.yaml --sweep-id trial-7 --wait

  # Record history and serve metrics
  parasol run sweep.yaml --journal sweeps.db --metrics-listen :9090

  # Render the configuration files without dispatching
  parasol run sweep.yaml --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			tel, err := newTelemetry()
			if err != nil {
				return err
			}
			defer func() { _ = tel.Shutdown(context.Background()) }()
			ctx := tel.WithContext(cmd.Context())

			f, err := config.Load(args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("sweep-id") {
				f.SweepID = sweepID
			}
			if flags.Changed("serial") {
				f.Serial = serial
			}
			if flags.Changed("wait") {
				f.Wait = wait
			}
			if flags.Changed("cleanup") {
				f.Cleanup = cleanup
			}
			if flags.Changed("error-if-exists") {
				f.ErrorIfExists = errorIfExists
			}
			if flags.Changed("save-mapping") {
				f.SaveMapping = &saveMapping
			}
			if flags.Changed("quiet") {
				verbose := !quiet
				f.Verbose = &verbose
			}

			req, closeReq, err := f.Request(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := closeReq(); cerr != nil && err == nil {
					err = cerr
				}
			}()

			if flags.Changed("delay") {
				req.Delay = delay
			}
			req.RenderOnly = dryRun
			req.Telemetry = tel

			j, err := openJournal(ctx)
			if err != nil {
				return err
			}
			if j != nil {
				defer func() {
					if cerr := j.Close(); cerr != nil && err == nil {
						err = cerr
					}
				}()
				req.Journal = j
			}

			mapping, err := engine.RunSweep(ctx, req)
			if err != nil {
				return err
			}

			logger := tel.Logger.WithField("sweep_file", f.Path())
			if req.SaveMapping {
				logger = logger.WithField("mapping", mapping.Filename())
			}
			logger.Info("Sweep complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&sweepID, "sweep-id", "", "fix the sweep ID instead of deriving one from the start time")
	cmd.Flags().BoolVar(&serial, "serial", false, "wait for each simulation before dispatching the next")
	cmd.Flags().BoolVar(&wait, "wait", false, "block until every simulation has finished")
	cmd.Flags().BoolVar(&cleanup, "cleanup", false, "wait for all simulations, then delete the written config files")
	cmd.Flags().DurationVar(&delay, "delay", 0, "pause inserted after each dispatch")
	cmd.Flags().BoolVar(&errorIfExists, "error-if-exists", false, "refuse to overwrite existing config files")
	cmd.Flags().BoolVar(&saveMapping, "save-mapping", true, "write the simulation ID mapping file")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "suppress the per-simulation log line")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "render config files without dispatching simulations")

	return cmd
}
