package cli

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/opcmap/policymap/pkg/errors"
	"github.com/opcmap/policymap/pkg/expiry"
)

// expiryOpts holds the flags for the expiry command.
type expiryOpts struct {
	today        string
	warningDays  int
	staleDays    int
	output       string
	print        bool
	failOnIssues bool
}

// expiryCommand creates the expiry command.
func (c *CLI) expiryCommand() *cobra.Command {
	var opts expiryOpts

	cmd := &cobra.Command{
		Use:   "expiry",
		Short: "Report expired, expiring and stale policies",
		Long: `Report expired, expiring and stale policies.

Active policies past their expiry_date, active policies expiring within the
warning window, and policies whose meta.last_verified is older than the stale
threshold are written to a Markdown report. Active policies with no
expiry_date are listed for reference.

When $GITHUB_OUTPUT is set, has_issues=true|false is appended to it so a
workflow can open an issue from the report. The command exits 0 even when
issues are found unless --fail-on-issues is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			checkOpts := c.Config.ExpiryOptions()
			if cmd.Flags().Changed("warning-days") {
				checkOpts.WarningDays = opts.warningDays
			}
			if cmd.Flags().Changed("stale-days") {
				checkOpts.StaleDays = opts.staleDays
			}
			if checkOpts.WarningDays < 0 || checkOpts.StaleDays < 0 {
				return errors.New(errors.ErrCodeInvalidInput, "--warning-days and --stale-days cannot be negative")
			}
			if opts.today != "" {
				if err := errors.ValidateDate(opts.today); err != nil {
					return err
				}
				checkOpts.Today, _ = time.Parse(time.DateOnly, opts.today)
			}

			output := opts.output
			if output == "" {
				output = c.Config.Expiry.ReportPath
			}

			prog := newProgress(c.Logger)
			snap, err := c.loadSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			report := expiry.Check(snap.Policies, checkOpts)
			prog.done("Checked %d policies", len(snap.Policies))

			var buf bytes.Buffer
			if err := report.Render(&buf); err != nil {
				return err
			}
			if err := os.WriteFile(output, buf.Bytes(), 0644); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "write report %s", output)
			}

			printExpirySummary(report)
			printFile(output)

			if err := writeGitHubOutput(report.HasIssues()); err != nil {
				c.Logger.Warn("Cannot write GITHUB_OUTPUT", "err", err)
			}

			if opts.print {
				printNewline()
				if err := renderMarkdown(cmd.OutOrStdout(), buf.String(), false); err != nil {
					return err
				}
			}

			if opts.failOnIssues && report.HasIssues() {
				return errors.New(errors.ErrCodeInvalidRecord, "expiry check found issues")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.today, "today", "", "reference date as YYYY-MM-DD (default: today)")
	cmd.Flags().IntVar(&opts.warningDays, "warning-days", expiry.DefaultWarningDays, "flag policies expiring within this many days")
	cmd.Flags().IntVar(&opts.staleDays, "stale-days", expiry.DefaultStaleDays, "flag policies not verified for more than this many days")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "report path (default from config)")
	cmd.Flags().BoolVar(&opts.print, "print", false, "also print the report to the terminal")
	cmd.Flags().BoolVar(&opts.failOnIssues, "fail-on-issues", false, "exit non-zero when issues are found")

	return cmd
}

// printExpirySummary prints one line per bucket.
func printExpirySummary(r *expiry.Report) {
	printKeyValue("Expired", fmt.Sprint(len(r.Expired)))
	printKeyValue(fmt.Sprintf("Expiring (%dd)", r.WarningDays), fmt.Sprint(len(r.ExpiringSoon)))
	printKeyValue(fmt.Sprintf("Stale (>%dd)", r.StaleDays), fmt.Sprint(len(r.Stale)))
	printKeyValue("No expiry date", fmt.Sprint(len(r.MissingExpiry)))
	if r.HasIssues() {
		printWarning("Some policies need attention")
	} else {
		printSuccess("No expiry issues")
	}
}

// writeGitHubOutput appends has_issues to $GITHUB_OUTPUT when it is set.
func writeGitHubOutput(hasIssues bool) error {
	path := os.Getenv("GITHUB_OUTPUT")
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(f, "has_issues=%t\n", hasIssues); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
