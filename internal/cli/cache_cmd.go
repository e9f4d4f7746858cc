package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kofflo/chamannas/internal/availability/cache"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the results cache",
	}
	cmd.AddCommand(newCacheInfoCmd(), newCacheCleanupCmd(), newCacheClearCmd())
	return cmd
}

func newCacheInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show results cache statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}

			store := a.model.Cache().Store()
			ttlDays := a.model.Cache().TTLDays()
			now := time.Now()

			fresh, stale := 0, 0
			var oldest time.Time
			for _, e := range store.Snapshot() {
				if cache.IsFresh(e, now, ttlDays) {
					fresh++
				} else {
					stale++
				}
				if oldest.IsZero() || e.FetchedAt.Before(oldest) {
					oldest = e.FetchedAt
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "file:    %s\n", a.cfg.ResultsFile())
			fmt.Fprintf(out, "ttl:     %d day(s)\n", ttlDays)
			fmt.Fprintf(out, "entries: %d (%d fresh, %d stale)\n", store.Len(), fresh, stale)
			if !oldest.IsZero() {
				fmt.Fprintf(out, "oldest:  %s ago\n", cache.FormatAge(now.Sub(oldest)))
			}
			return nil
		},
	}
}

func newCacheCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove entries older than the TTL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.persist()

			removed := a.model.Cache().Store().RemoveStale(time.Now(), a.model.Cache().TTLDays())
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d stale entries\n", removed)
			return nil
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached results",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.persist()

			count := a.model.Cache().Store().Len()
			a.model.Cache().Store().Clear()
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries\n", count)
			return nil
		},
	}
}
