package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/recordroute/recordroute/internal/core/domain"
)

var (
	historyAll    bool
	historyJSON   bool
	historyFilter string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List upload records, newest first",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&historyAll, "all", false, "include soft-deleted records")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output records as JSON")
	historyCmd.Flags().StringVar(&historyFilter, "filter", "", "only records whose filename or tags contain this text")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	ctx := context.Background()
	var (
		records []domain.UploadRecord
		err     error
	)
	switch {
	case historyFilter != "":
		records, err = libraryService.FilterHistory(ctx, historyFilter)
	case historyAll:
		records, err = libraryService.History(ctx)
	default:
		records, err = libraryService.ActiveHistory(ctx)
	}
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	if historyJSON {
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	if len(records) == 0 {
		if historyFilter != "" {
			cmd.Printf("No records match %q.\n", historyFilter)
		} else {
			cmd.Println("No uploads yet.")
		}
		return nil
	}

	for _, rec := range records {
		name := titleStyle.Render(rec.Filename)
		if rec.Deleted {
			name = errStyle.Render(rec.Filename + " (deleted)")
		}
		cmd.Printf("%s  %s\n", name, dimStyle.Render(rec.Timestamp))
		cmd.Printf("  id %s  type %s", rec.ID, rec.SourceType)
		if rec.Duration != "" {
			cmd.Printf("  duration %s", rec.Duration)
		}
		cmd.Println()
		if rec.TitleSummary != "" {
			cmd.Printf("  %s\n", rec.TitleSummary)
		}
		if len(rec.Tags) > 0 {
			cmd.Printf("  %s\n", tagStyle.Render(strings.Join(rec.Tags, ", ")))
		}
		cmd.Printf("  tasks %s\n", taskLine(rec))
		cmd.Println()
	}
	return nil
}

// taskLine renders per-task completion as a compact checklist.
func taskLine(rec domain.UploadRecord) string {
	parts := make([]string, 0, len(domain.AllTasks()))
	for _, task := range domain.AllTasks() {
		mark := "✗"
		if rec.CompletedTasks[task] {
			mark = "✓"
		}
		parts = append(parts, fmt.Sprintf("%s %s", mark, task))
	}
	return strings.Join(parts, "  ")
}
