package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/opcmap/policymap/internal/watch"
	"github.com/opcmap/policymap/pkg/errors"
	"github.com/opcmap/policymap/pkg/validate"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var watchMode, asJSON bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Lint every record file under the data root",
		Long: `Lint every record file under the data root.

Hard errors (missing required fields, unknown status, non-HTTP source URL,
unparseable YAML, duplicate ids) fail the run. Soft warnings (non-ISO dates,
no benefits, no meta.last_verified) are reported but do not.

With --watch, the data root is re-validated whenever a record file changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			v := validate.New(c.Config.DataDir)

			if !watchMode {
				report, err := c.runValidation(ctx, v)
				if err != nil {
					return err
				}
				if asJSON {
					if err := writeJSON(cmd.OutOrStdout(), report.Findings); err != nil {
						return err
					}
				} else {
					printValidation(report)
				}
				if report.Failed() {
					return errors.New(errors.ErrCodeInvalidRecord, "validation failed with %d errors", report.Errors())
				}
				return nil
			}

			w, err := watch.New(c.Config.DataDir, watch.WithLogger(c.Logger))
			if err != nil {
				return err
			}
			if report, err := c.runValidation(ctx, v); err == nil {
				printValidation(report)
			}
			printInfo("Watching %s for changes (Ctrl+C to stop)", c.Config.DataDir)

			err = w.Run(ctx, func(ctx context.Context, changed []string) {
				printNewline()
				printInfo("%d file(s) changed", len(changed))
				if report, err := c.runValidation(ctx, v); err == nil {
					printValidation(report)
				}
			})
			return ignoreCanceled(err)
		},
	}

	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "re-validate when files change")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print findings as JSON")

	return cmd
}

func (c *CLI) runValidation(ctx context.Context, v *validate.Validator) (*validate.Report, error) {
	prog := newProgress(c.Logger)
	report, err := v.Run(ctx)
	if err != nil {
		return nil, err
	}
	prog.debug("Validated %d files", report.Passed)
	return report, nil
}

// printValidation prints each finding and then the summary counts.
func printValidation(report *validate.Report) {
	for _, f := range report.Findings {
		if f.Severity == validate.SeverityError {
			printError("%s %s", StyleDim.Render(f.File), f.Message)
		} else {
			printWarning("%s %s", f.File, f.Message)
		}
	}
	if len(report.Findings) > 0 {
		printNewline()
	}

	printSuccess("Passed: %d files", report.Passed)
	if n := report.Warnings(); n > 0 {
		printWarning("Warnings: %d", n)
	}
	if n := report.Errors(); n > 0 {
		printError("Errors: %d", n)
		return
	}
	printSuccess("All record files are valid")
}
