package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or refresh the scraped activity cache",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "Print cache statistics",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				stats, err := client().CacheStats(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if stats.LastUpdated == nil {
					fmt.Fprintln(out, "last updated: never")
				} else {
					fmt.Fprintf(out, "last updated: %s\n", stats.LastUpdated.Local().Format("2006-01-02 15:04:05"))
				}
				fmt.Fprintf(out, "activities:   %d\n", stats.TotalActivities)
				printBySource(cmd, stats.BySource)
				return nil
			},
		},
		&cobra.Command{
			Use:   "refresh",
			Short: "Refresh the cache from all sources now",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				res, err := client().RefreshCache(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "success: %t, %d activities in %.1fs\n", res.Success, res.TotalActivities, res.DurationSeconds)
				printBySource(cmd, res.BySource)
				for _, e := range res.Errors {
					fmt.Fprintf(out, "  error: %s\n", e)
				}
				return nil
			},
		},
	)
	return cmd
}

func printBySource(cmd *cobra.Command, bySource map[string]int) {
	names := make([]string, 0, len(bySource))
	for name := range bySource {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-20s %d\n", name, bySource[name])
	}
}
