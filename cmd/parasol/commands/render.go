package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/parasol-run/parasol/pkg/config"
	"github.com/parasol-run/parasol/pkg/engine"
	"github.com/parasol-run/parasol/pkg/watch"
)

func newRenderCommand() *cobra.Command {
	var watchFiles bool

	cmd := &cobra.Command{
		Use:   "render <sweep-file>",
		Short: "Render configuration files without dispatching",
		Long: `Render the configuration files for every parameter set without
dispatching any simulations.

Rendering exercises the full pipeline short of dispatch: the sweep file
is validated, simulation IDs are generated, and one config file per
template is written for every parameter set. With --watch the files are
re-rendered whenever the sweep file or a template changes.`,
		Example: `  # Render once
  parasol render sweep.yaml

  # Re-render on every change
  parasol render sweep.yaml --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tel, err := newTelemetry()
			if err != nil {
				return err
			}
			defer func() { _ = tel.Shutdown(context.Background()) }()
			ctx := tel.WithContext(cmd.Context())

			path := args[0]
			render := func() error {
				f, err := config.Load(path)
				if err != nil {
					return err
				}
				req, closeReq, err := f.Request(ctx)
				if err != nil {
					return err
				}
				req.RenderOnly = true
				req.Telemetry = tel
				_, rerr := engine.RunSweep(ctx, req)
				return errors.Join(rerr, closeReq())
			}

			if !watchFiles {
				return render()
			}

			// Keep watching even when the current contents are broken;
			// the next save may fix them.
			logger := tel.Logger.WithField("sweep_file", path)
			if err := render(); err != nil {
				logger.WithError(err).Error("Render failed")
			}

			paths := []string{path}
			if f, err := config.Load(path); err == nil {
				paths = append(paths, f.Templates.Paths...)
			}

			w, err := watch.New(tel.Logger)
			if err != nil {
				return err
			}
			reload := func() error {
				if err := render(); err != nil {
					return err
				}
				logger.Info("Re-rendered configuration files")
				return nil
			}
			if err := w.Watch(ctx, paths, reload); err != nil {
				return err
			}

			logger.Info("Watching for changes")
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watchFiles, "watch", "w", false, "re-render when the sweep file or a template changes")

	return cmd
}
