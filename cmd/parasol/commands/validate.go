package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/parasol-run/parasol/pkg/config"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <sweep-file>",
		Short: "Validate a sweep file",
		Long: `Validate a sweep file without rendering or dispatching anything.

This command checks:
  - YAML or CUE syntax
  - Schema conformance (unknown fields are rejected)
  - Cross-field rules (space layout, naming, dispatch settings)
  - Filter expression syntax`,
		Example: `  # Validate a YAML sweep file
  parasol validate sweep.yaml

  # Validate a CUE sweep file
  parasol validate sweep.cue`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := config.Load(args[0])
			if err != nil {
				var lerr *config.LoadError
				if errors.As(err, &lerr) {
					for _, issue := range lerr.Issues {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s:%d:%d: %s\n",
							issue.File, issue.Line, issue.Column, issue.Message)
					}
					return fmt.Errorf("%s: validation failed", lerr.Path)
				}
				return err
			}

			namingKind := f.Naming.Kind
			if namingKind == "" {
				namingKind = "sequential"
			}
			backend := f.Dispatch.Backend
			if backend == "" {
				backend = "local"
			}
			templates := len(f.Templates.Paths)
			source := "files"
			if len(f.Templates.Texts) > 0 {
				templates = len(f.Templates.Texts)
				source = "inline"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: OK\n", f.Path())
			fmt.Fprintf(out, "  command:   %s\n", f.Command)
			fmt.Fprintf(out, "  configs:   %s\n", strings.Join(f.Configs, ", "))
			fmt.Fprintf(out, "  templates: %d (%s)\n", templates, source)
			fmt.Fprintf(out, "  space:     %s\n", f.SpaceKind())
			fmt.Fprintf(out, "  naming:    %s\n", namingKind)
			fmt.Fprintf(out, "  dispatch:  %s\n", backend)
			return nil
		},
	}

	return cmd
}
