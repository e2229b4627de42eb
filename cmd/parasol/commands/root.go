package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parasol-run/parasol/pkg/journal"
	"github.com/parasol-run/parasol/pkg/telemetry"
)

var (
	// Global flags
	logLevel      string
	logFormat     string
	journalPath   string
	metricsListen string

	// Build version, recorded in telemetry.
	buildVersion string
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	buildVersion = version
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "parasol",
		Short: "Parasol - Parameter Sweep Execution Engine",
		Long: `Parasol renders templated configuration files across a parameter space
and dispatches one simulation per parameter set.

Features:
  - Cartesian, filtered, explicit, and random parameter spaces
  - Sweep files in YAML or CUE, checked against a typed schema
  - Starlark filter expressions over parameter tuples
  - Local process pool, Slurm, and SSH dispatch backends
  - Sequential, hash, and list-based simulation naming
  - Sweep history journal and simulation ID mapping artifacts`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().StringVar(&journalPath, "journal", "", "sweep history database path")
	rootCmd.PersistentFlags().StringVar(&metricsListen, "metrics-listen", "", "expose Prometheus metrics on this address")

	// Add subcommands
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newHistoryCommand())

	return rootCmd
}

// newTelemetry builds the command's telemetry from the global flags.
func newTelemetry() (*telemetry.Telemetry, error) {
	cfg := telemetry.DefaultConfig()
	if buildVersion != "" {
		cfg.ServiceVersion = buildVersion
	}
	cfg.Logging.Level = logLevel
	cfg.Logging.Format = logFormat
	if metricsListen != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.ListenAddress = metricsListen
	}

	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		return nil, fmt.Errorf("configuring telemetry: %w", err)
	}
	if cfg.Metrics.Enabled {
		if err := tel.StartMetricsServer(); err != nil {
			return nil, fmt.Errorf("starting metrics server: %w", err)
		}
	}
	return tel, nil
}

// openJournal opens the sweep history database named by --journal, or
// returns nil when the flag is unset.
func openJournal(ctx context.Context) (*journal.Journal, error) {
	if journalPath == "" {
		return nil, nil
	}
	j, err := journal.Open(ctx, journalPath)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	return j, nil
}
