package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kofflo/chamannas/internal/config"
	"github.com/kofflo/chamannas/internal/huts"
	"github.com/kofflo/chamannas/internal/update"
)

func newHutsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "huts",
		Short: "Work with the hut catalog",
	}
	cmd.AddCommand(newHutsListCmd(), newHutsUpdateCmd())
	return cmd
}

func newHutsListCmd() *cobra.Command {
	var (
		country       string
		region        string
		mountainRange string
		minHeight     float64
		maxHeight     float64
		maxDistanceKm float64
		sortKey       string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List huts from the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}

			var filters []huts.Filter
			if country != "" {
				filters = append(filters, huts.ByCountry(country))
			}
			if region != "" {
				filters = append(filters, huts.ByRegion(region))
			}
			if mountainRange != "" {
				filters = append(filters, huts.ByMountainRange(mountainRange))
			}
			if minHeight >= 0 || maxHeight >= 0 {
				filters = append(filters, huts.ByHeight(minHeight, maxHeight))
			}
			lat, lon := a.model.ReferenceLocation()
			if maxDistanceKm >= 0 {
				filters = append(filters, huts.ByDistance(-1, maxDistanceKm, lat, lon))
			}

			ids := huts.Apply(a.catalog, a.catalog.IDs(), filters...)
			ids = huts.Sort(a.catalog, ids, huts.SortKey(sortKey), true, lat, lon)

			out := cmd.OutOrStdout()
			for _, id := range ids {
				h, _ := a.catalog.Hut(id)
				fmt.Fprintf(out, "%-6s %-30s %-3s %-4s %6.0fm %7.1fkm\n",
					h.ID, h.Name, h.Country, h.Region, h.Height, h.DistanceFrom(lat, lon)/1000)
			}
			fmt.Fprintf(out, "%d hut(s)\n", len(ids))
			return nil
		},
	}

	cmd.Flags().StringVar(&country, "country", "", "filter by country code")
	cmd.Flags().StringVar(&region, "region", "", "filter by region")
	cmd.Flags().StringVar(&mountainRange, "range", "", "filter by mountain range")
	cmd.Flags().Float64Var(&minHeight, "min-height", -1, "minimum height in meters")
	cmd.Flags().Float64Var(&maxHeight, "max-height", -1, "maximum height in meters")
	cmd.Flags().Float64Var(&maxDistanceKm, "max-distance", -1, "maximum distance from the reference location in km")
	cmd.Flags().StringVar(&sortKey, "sort", string(huts.SortByName), "sort key: name, country, height or distance")
	return cmd
}

func newHutsUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check the update site for newer data files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			if a.cfg.UpdatesURL == "" {
				return fmt.Errorf("config: updates_url is not set")
			}

			tempDir, err := os.MkdirTemp("", "chamannas-update-*")
			if err != nil {
				return err
			}

			checker := update.NewChecker(a.cfg.UpdatesURL, a.log.With().Str("component", "update").Logger())
			files := []string{config.HutsFileName}
			updates, err := checker.CheckDataFiles(cmd.Context(), a.cfg.DataDir(), tempDir, files)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(updates) == 0 {
				fmt.Fprintln(out, "all data files are up to date")
				return nil
			}
			for _, u := range updates {
				fmt.Fprintf(out, "newer %s staged at %s\n", u.Name, u.StagedPath)
			}

			if latest, err := checker.LatestVersion(cmd.Context()); err == nil {
				if update.IsNewer(cmd.Root().Version, latest) {
					fmt.Fprintf(out, "a newer release %s is available\n", latest)
				}
			}
			return nil
		},
	}
	return cmd
}
