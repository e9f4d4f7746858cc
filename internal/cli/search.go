package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kofflo/chamannas/internal/availability"
	"github.com/kofflo/chamannas/internal/availability/cache"
)

func newSearchCmd() *cobra.Command {
	var (
		hutID     string
		startStr  string
		days      int
		occupants int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Check bed availability for one hut",
		Long:  "Check free beds in a hut for a date range. Fresh cached results are served without touching the reservation site.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := time.Parse(availability.DateFormat, startStr)
			if err != nil {
				return fmt.Errorf("invalid --start date %q: %w", startStr, err)
			}

			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.persist()

			q := availability.Query{
				HutID:     hutID,
				StartDate: start,
				EndDate:   start.AddDate(0, 0, days-1),
				Occupants: occupants,
			}

			result, err := a.model.Cache().GetOrFetch(cmd.Context(), q)
			if err != nil {
				return err
			}

			n, err := q.Normalize()
			if err != nil {
				return err
			}
			printResult(cmd, a, n, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&hutID, "hut", "", "hut id (required)")
	cmd.Flags().StringVar(&startStr, "start", "", "first night, YYYY-MM-DD (required)")
	cmd.Flags().IntVar(&days, "days", 1, "number of nights")
	cmd.Flags().IntVar(&occupants, "occupants", 1, "number of people")
	_ = cmd.MarkFlagRequired("hut")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func printResult(cmd *cobra.Command, a *app, q availability.Query, result *cache.Result) {
	out := cmd.OutOrStdout()
	dates := q.Dates()

	name := result.Payload.HutName
	if hut, ok := a.catalog.Hut(q.HutID); ok && name == "" {
		name = hut.Name
	}

	fmt.Fprintf(out, "%s (%s), %d night(s) from %s for %d\n",
		name, q.HutID, len(dates), q.StartDate.Format(availability.DateFormat), q.Occupants)
	fmt.Fprintf(out, "fetched %s ago", cache.FormatAge(time.Since(result.FetchedAt)))
	if result.Stale {
		fmt.Fprint(out, " (stale, refresh failed)")
	}
	fmt.Fprintln(out)

	for _, d := range dates {
		key := d.Format(availability.DateFormat)
		day, ok := result.Payload.Places[key]
		switch {
		case !ok:
			fmt.Fprintf(out, "  %s: no data\n", key)
		case day.Closed:
			fmt.Fprintf(out, "  %s: closed\n", key)
		default:
			fmt.Fprintf(out, "  %s:", key)
			for _, room := range availability.RoomTypes() {
				if n, found := day.Beds[room]; found {
					fmt.Fprintf(out, " %s=%d", room, n)
				}
			}
			fmt.Fprintln(out)
		}
	}

	total := result.Payload.Available(dates)
	switch {
	case !result.Payload.Open(dates):
		fmt.Fprintln(out, "hut is closed on at least one requested night")
	case total < q.Occupants:
		fmt.Fprintf(out, "not enough beds: %d free, %d needed\n", total, q.Occupants)
	default:
		fmt.Fprintf(out, "%d bed(s) free on every requested night\n", total)
	}

	if result.Payload.Warning != "" {
		fmt.Fprintf(out, "warning: %s\n", result.Payload.Warning)
	}
}
