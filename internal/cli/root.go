// Package cli wires the cobra command tree: searching for beds, listing
// and updating the hut catalog, cache maintenance and the interactive
// front end.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kofflo/chamannas/internal/availability/cache"
	"github.com/kofflo/chamannas/internal/config"
)

// NewRootCmd creates the root command for the chamannas CLI.
func NewRootCmd(ver string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "chamannas",
		Short:   "Find available beds in mountain huts",
		Long:    "chamannas finds available beds in mountain huts, caching results locally so repeated lookups stay off the network.",
		Version: ver,
		Example: rootCmdExample,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cacheTTL, _ := cmd.Flags().GetInt("cache-ttl")
			if cacheTTL != 0 {
				if err := cache.ValidateTTLDays(cacheTTL); err != nil {
					return fmt.Errorf("invalid --cache-ttl: %w", err)
				}
			}

			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				config.SetLogLevel("debug")
			}
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			config.CloseLogFile()
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("data-dir", "", "data directory (default ./assets/data, env CHAMANNAS_DATA_DIR)")
	cmd.PersistentFlags().Int("cache-ttl", 0, "results cache TTL in days (0 = use config value)")

	cmd.AddCommand(newSearchCmd(), newHutsCmd(), newCacheCmd(), newRunCmd())
	return cmd
}

const rootCmdExample = `  # Check beds in hut 105 for two nights from July 1st
  chamannas search --hut 105 --start 2024-07-01 --days 2 --occupants 2

  # Open the interactive table of selected huts
  chamannas run

  # List huts in Graubünden below 2500 m
  chamannas huts list --region GR --max-height 2500

  # Check for newer hut data files
  chamannas huts update

  # Inspect and prune the results cache
  chamannas cache info
  chamannas cache cleanup`
