package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/opcmap/policymap/pkg/errors"
	"github.com/opcmap/policymap/pkg/record"
	"github.com/opcmap/policymap/pkg/search"
)

// listOpts holds the flags shared by list commands.
type listOpts struct {
	query  search.Query
	status string
	limit  int
	json   bool
}

// policiesCommand creates the policies command group.
func (c *CLI) policiesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "policies",
		Aliases: []string{"policy", "p"},
		Short:   "List and inspect policies",
	}

	cmd.AddCommand(c.policiesListCommand())
	cmd.AddCommand(c.policiesShowCommand())

	return cmd
}

// policiesListCommand creates the "policies list" subcommand.
func (c *CLI) policiesListCommand() *cobra.Command {
	var opts listOpts

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List policies, newest first",
		Long: `List policies, newest first.

Filters combine: --city Shenzhen --status active lists active Shenzhen
policies. -q runs a fuzzy search over name, summary, location, issuer and
tags, and orders results by match quality.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.query.Status = record.Status(opts.status)
			if opts.status != "" && !opts.query.Status.Valid() {
				return errors.New(errors.ErrCodeInvalidInput, "unknown status %q (want %s)", opts.status, statusNames())
			}

			snap, err := c.loadSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			policies := search.Apply(snap.Policies, opts.query)
			total := len(policies)
			if opts.limit > 0 && opts.limit < total {
				policies = policies[:opts.limit]
			}

			out := cmd.OutOrStdout()
			if opts.json {
				return writeJSON(out, policies)
			}
			if total == 0 {
				printInfo("No policies match")
				return nil
			}
			writeTable(out, []string{"ID", "Location", "Name", "Status", "Published"}, policyRows(policies))
			if len(policies) < total {
				printDetail("Showing %d of %d", len(policies), total)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.query.Text, "query", "q", "", "fuzzy search text")
	cmd.Flags().StringVar(&opts.query.City, "city", "", "only policies in this city")
	cmd.Flags().StringVar(&opts.status, "status", "", "only policies with this status ("+statusNames()+")")
	cmd.Flags().StringVar(&opts.query.Benefit, "benefit", "", "only policies offering this benefit category")
	cmd.Flags().StringVar(&opts.query.Tag, "tag", "", "only policies with this tag")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "show at most n policies")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print JSON")

	_ = cmd.RegisterFlagCompletionFunc("status", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return strings.Split(statusNames(), "|"), cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("benefit", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return record.KnownBenefits, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// policiesShowCommand creates the "policies show" subcommand.
func (c *CLI) policiesShowCommand() *cobra.Command {
	var asJSON, plain bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one policy with its linked parks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if err := errors.ValidateID(id); err != nil {
				return err
			}
			snap, err := c.loadSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			p, ok := snap.PolicyByID(id)
			if !ok {
				return errors.New(errors.ErrCodeNotFound, "policy %q not found", id)
			}
			parks := snap.ParksFor(p)

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, struct {
					Policy record.Policy `json:"policy"`
					Parks  []record.Park `json:"parks"`
				}{p, parks})
			}
			return renderMarkdown(out, policyMarkdown(p, parks), plain)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().BoolVar(&plain, "plain", false, "print raw Markdown instead of styled output")

	return cmd
}

// policyMarkdown renders a policy as a Markdown document.
func policyMarkdown(p record.Policy, parks []record.Park) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", p.Name)
	fmt.Fprintf(&b, "**%s** · %s · %s\n\n", p.Location(), p.Status.Label(), p.Issuer)
	if p.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(p.Summary))
	}

	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| ID | `%s` |\n", p.ID)
	if p.PolicyNumber != "" {
		fmt.Fprintf(&b, "| Number | %s |\n", p.PolicyNumber)
	}
	fmt.Fprintf(&b, "| Published | %s |\n", p.PublishDate)
	if !p.EffectiveDate.IsZero() {
		fmt.Fprintf(&b, "| Effective | %s |\n", p.EffectiveDate)
	}
	if !p.ExpiryDate.IsZero() {
		fmt.Fprintf(&b, "| Expires | %s |\n", p.ExpiryDate)
	}
	if !p.Meta.LastVerified.IsZero() {
		fmt.Fprintf(&b, "| Last verified | %s |\n", p.Meta.LastVerified)
	}
	fmt.Fprintf(&b, "| Source | %s |\n\n", p.SourceURL)

	if len(p.Benefits) > 0 {
		b.WriteString("## Benefits\n\n")
		for _, key := range p.Benefits.Keys() {
			benefit := p.Benefits[key]
			fmt.Fprintf(&b, "### %s\n\n%s\n\n", record.BenefitLabel(key), benefit.Description)
			for _, kv := range [][2]string{
				{"Amount", benefit.Amount},
				{"Duration", benefit.Duration},
				{"Conditions", benefit.Conditions},
				{"Details", benefit.Details},
			} {
				if kv[1] != "" {
					fmt.Fprintf(&b, "- **%s:** %s\n", kv[0], strings.TrimSpace(kv[1]))
				}
			}
			b.WriteString("\n")
		}
	}

	writeList(&b, "Eligible applicants", p.Targets)
	writeList(&b, "Requirements", p.Requirements)

	if app := p.Application; app != nil {
		b.WriteString("## How to apply\n\n")
		for i, step := range app.Process {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
		if len(app.Process) > 0 {
			b.WriteString("\n")
		}
		writeList(&b, "Materials", app.Materials)
		if ct := app.Contact; ct != nil {
			for _, kv := range [][2]string{
				{"Phone", ct.Phone}, {"Email", ct.Email}, {"Website", ct.Website}, {"Address", ct.Address},
			} {
				if kv[1] != "" {
					fmt.Fprintf(&b, "- **%s:** %s\n", kv[0], kv[1])
				}
			}
			b.WriteString("\n")
		}
	}

	if len(parks) > 0 {
		b.WriteString("## Parks\n\n")
		for _, park := range parks {
			fmt.Fprintf(&b, "- **%s** (`%s`) %s\n", park.Name, park.ID, park.Location())
		}
		b.WriteString("\n")
	}

	if len(p.Tags) > 0 {
		fmt.Fprintf(&b, "*Tags: %s*\n", strings.Join(p.Tags, ", "))
	}
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}

// renderMarkdown styles md for the terminal with glamour. Output that is not
// a terminal, or plain mode, gets the raw Markdown.
func renderMarkdown(w io.Writer, md string, plain bool) error {
	if plain || !isTerminal(w) {
		_, err := io.WriteString(w, md)
		return err
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create markdown renderer")
	}
	styled, err := r.Render(md)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "render markdown")
	}
	_, err = io.WriteString(w, styled)
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func statusNames() string {
	names := make([]string, len(record.Statuses))
	for i, s := range record.Statuses {
		names[i] = string(s)
	}
	return strings.Join(names, "|")
}
