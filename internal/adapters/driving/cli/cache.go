package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recordroute/recordroute/internal/core/domain"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the search result cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache entry counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if searchService == nil {
			return errors.New("search service not configured")
		}
		stats, err := searchService.CacheStats(context.Background())
		if err != nil {
			return fmt.Errorf("cache stats: %w", err)
		}
		cmd.Printf("  total   %d\n", stats.TotalEntries)
		cmd.Printf("  valid   %d\n", stats.ValidEntries)
		cmd.Printf("  expired %d\n", stats.ExpiredEntries)
		return nil
	},
}

var cacheCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete expired cache entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if searchService == nil {
			return errors.New("search service not configured")
		}
		removed, err := searchService.CacheCleanup(context.Background())
		if err != nil {
			return fmt.Errorf("cache cleanup: %w", err)
		}
		cmd.Printf("Removed %d expired entries.\n", removed)
		return nil
	},
}

var (
	invalidateTopK  int
	invalidateStart string
	invalidateEnd   string
)

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate [query]",
	Short: "Drop the cached result for one query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if searchService == nil {
			return errors.New("search service not configured")
		}
		dates := domain.DateRange{Start: invalidateStart, End: invalidateEnd}
		removed, err := searchService.Invalidate(context.Background(), args[0], invalidateTopK, dates)
		if err != nil {
			return fmt.Errorf("cache invalidate: %w", err)
		}
		if removed {
			cmd.Println("Cached result removed.")
		} else {
			cmd.Println("No cached result for those parameters.")
		}
		return nil
	},
}

func init() {
	cacheInvalidateCmd.Flags().IntVarP(&invalidateTopK, "top", "n", 5, "top-k of the cached query")
	cacheInvalidateCmd.Flags().StringVar(&invalidateStart, "start", "", "start date of the cached query")
	cacheInvalidateCmd.Flags().StringVar(&invalidateEnd, "end", "", "end date of the cached query")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheCleanupCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
	rootCmd.AddCommand(cacheCmd)
}
