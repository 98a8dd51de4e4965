package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opcmap/policymap/pkg/errors"
	"github.com/opcmap/policymap/pkg/record"
)

// parksCommand creates the parks command group.
func (c *CLI) parksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parks",
		Short: "List and inspect parks",
	}

	cmd.AddCommand(c.parksListCommand())
	cmd.AddCommand(c.parksShowCommand())

	return cmd
}

// parksListCommand creates the "parks list" subcommand.
func (c *CLI) parksListCommand() *cobra.Command {
	var city string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List parks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := c.loadSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			parks := []record.Park{}
			for _, p := range snap.Parks {
				if city == "" || p.City == city {
					parks = append(parks, p)
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, parks)
			}
			if len(parks) == 0 {
				printInfo("No parks found")
				return nil
			}
			rows := make([][]string, len(parks))
			for i := range parks {
				p := &parks[i]
				rows[i] = []string{p.ID, p.Location(), truncate(p.Name, 40), p.Type, supportSummary(p.OPCSupport)}
			}
			writeTable(out, []string{"ID", "Location", "Name", "Type", "Support"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&city, "city", "", "only parks in this city")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}

// parksShowCommand creates the "parks show" subcommand.
func (c *CLI) parksShowCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one park with its linked policies",
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
			park, ok := snap.ParkByID(id)
			if !ok {
				return errors.New(errors.ErrCodeNotFound, "park %q not found", id)
			}
			policies := snap.PoliciesFor(park)

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, struct {
					Park     record.Park     `json:"park"`
					Policies []record.Policy `json:"policies"`
				}{park, policies})
			}

			fmt.Fprintln(out, StyleTitle.Render(park.Name))
			fmt.Fprintln(out, StyleDim.Render(park.Location()))
			fmt.Fprintln(out)
			printKeyValue("ID", park.ID)
			if park.Type != "" {
				printKeyValue("Type", park.Type)
			}
			if park.Address != "" {
				printKeyValue("Address", park.Address)
			}
			for _, key := range park.OPCSupport.Keys() {
				printKeyValue(record.SupportLabel(key), park.OPCSupport[key].String())
			}
			if ct := park.Contact; ct != nil {
				if ct.Phone != "" {
					printKeyValue("Phone", ct.Phone)
				}
				if ct.Website != "" {
					printKeyValue("Website", StyleLink.Render(ct.Website))
				}
			}
			if len(policies) > 0 {
				printNewline()
				writeTable(out, []string{"ID", "Location", "Name", "Status", "Published"}, policyRows(policies))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}

// supportSummary lists the support keys a park offers.
func supportSummary(s record.Support) string {
	var parts []string
	for _, key := range s.Keys() {
		v := s[key]
		if v.IsFlag && !v.Flag {
			continue
		}
		parts = append(parts, record.SupportLabel(key))
	}
	return strings.Join(parts, ", ")
}
