package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/recordroute/recordroute/internal/watch"
)

var indexCmd = &cobra.Command{
	Use:   "index [dir]",
	Short: "Embed new and changed summary files",
	Long: `Scans for summary files and embeds any whose content changed since
the last run. With no argument the library's outputs directory is
scanned.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if indexerService == nil {
		return errors.New("indexer not configured")
	}

	dir := appLayout.OutputsDir()
	if len(args) == 1 {
		dir = args[0]
	}

	report, err := indexerService.ScanDir(context.Background(), dir)
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}

	cmd.Printf("Scanned %d, indexed %d, unchanged %d\n", report.Scanned, report.Indexed, report.Skipped)
	if len(report.Failures) > 0 {
		cmd.Println(errStyle.Render(fmt.Sprintf("%d failed:", len(report.Failures))))
		paths := make([]string, 0, len(report.Failures))
		for path := range report.Failures {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		for _, path := range paths {
			cmd.Printf("  %s: %s\n", path, report.Failures[path])
		}
	}
	return nil
}

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch for new summaries and index them as they appear",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "settle time before re-indexing")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if indexerService == nil {
		return errors.New("indexer not configured")
	}

	dir := appLayout.OutputsDir()
	if len(args) == 1 {
		dir = args[0]
	}

	cmd.Printf("Watching %s (ctrl-c to stop)\n", dir)
	w := watch.New(indexerService, dir, watchDebounce)
	err := w.Run(cmd.Context())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
