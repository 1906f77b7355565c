package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/recordroute/recordroute/internal/core/domain"
)

var (
	resetTasks      []string
	resetAllRecords bool
)

var resetCmd = &cobra.Command{
	Use:   "reset [record-id]",
	Short: "Remove derived artifacts so tasks can run again",
	Long: `Deletes the chosen task artifacts and clears their completion
flags. Without --task the whole record is reset: every derived file,
registry entry and index entry goes; the original upload stays.`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().StringSliceVar(&resetTasks, "task", nil, "tasks to reset (transcript, embedding, summary)")
	resetCmd.Flags().BoolVar(&resetAllRecords, "all-records", false, "reset the chosen tasks on every active record")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	if lifecycleService == nil {
		return errors.New("lifecycle service not configured")
	}

	tasks := make([]domain.TaskType, 0, len(resetTasks))
	for _, name := range resetTasks {
		tasks = append(tasks, domain.TaskType(name))
	}

	ctx := context.Background()

	if resetAllRecords {
		if len(tasks) == 0 {
			return errors.New("--all-records requires --task")
		}
		counts, err := lifecycleService.ResetAllRecords(ctx, tasks)
		if err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
		names := make([]string, 0, len(counts))
		for task := range counts {
			names = append(names, string(task))
		}
		sort.Strings(names)
		for _, name := range names {
			cmd.Printf("  %s: %d records reset\n", name, counts[domain.TaskType(name)])
		}
		return nil
	}

	if len(args) != 1 {
		return errors.New("record id required (or --all-records)")
	}
	recordID := args[0]

	if len(tasks) == 0 {
		if err := lifecycleService.ResetRecord(ctx, recordID); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
		cmd.Printf("Record %s fully reset.\n", recordID)
		return nil
	}

	result, err := lifecycleService.ResetTasks(ctx, recordID, tasks)
	if err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	for _, task := range tasks {
		state := "nothing to do"
		if result[task] {
			state = "reset"
		}
		cmd.Printf("  %s: %s\n", task, state)
	}
	return nil
}
