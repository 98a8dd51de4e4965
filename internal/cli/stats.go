package cli

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/opcmap/policymap/pkg/store"
)

// citiesCommand creates the cities command.
func (c *CLI) citiesCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "cities",
		Short: "List the cities that have policies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := c.loadSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			return printStrings(cmd, snap.Cities(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// tagsCommand creates the tags command.
func (c *CLI) tagsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List every tag used by a policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := c.loadSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			return printStrings(cmd, snap.Tags(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// statsCommand creates the stats command.
func (c *CLI) statsCommand() *cobra.Command {
	var byCity, asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show dataset totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := c.loadSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if byCity {
				stats := snap.CityStats()
				if asJSON {
					return writeJSON(out, stats)
				}
				writeTable(out, []string{"City", "Policies", "Active"}, cityStatRows(stats))
				return nil
			}

			stats := snap.SiteStats()
			if asJSON {
				return writeJSON(out, stats)
			}
			printKeyValue("Policies", StyleNumber.Render(strconv.Itoa(stats.TotalPolicies)))
			printKeyValue("Active", StyleNumber.Render(strconv.Itoa(stats.ActivePolicies)))
			printKeyValue("Cities", StyleNumber.Render(strconv.Itoa(stats.TotalCities)))
			printKeyValue("Parks", StyleNumber.Render(strconv.Itoa(stats.TotalParks)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&byCity, "cities", false, "break totals down by city")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// cityStatRows orders cities by policy count, then name.
func cityStatRows(stats map[string]store.CityStat) [][]string {
	cities := make([]string, 0, len(stats))
	for city := range stats {
		cities = append(cities, city)
	}
	sort.Slice(cities, func(i, j int) bool {
		a, b := stats[cities[i]], stats[cities[j]]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return cities[i] < cities[j]
	})

	rows := make([][]string, len(cities))
	for i, city := range cities {
		s := stats[city]
		rows[i] = []string{city, strconv.Itoa(s.Total), strconv.Itoa(s.Active)}
	}
	return rows
}

func printStrings(cmd *cobra.Command, values []string, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, values)
	}
	for _, v := range values {
		fmt.Fprintln(out, v)
	}
	return nil
}
