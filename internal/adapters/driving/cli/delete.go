package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [record-id...]",
	Short: "Soft-delete records, moving their files aside",
	Long: `Moves each record's upload, outputs and vectors into the deleted
area and flags every store entry. Nothing is destroyed; the files stay
under deleted/ for manual recovery.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	if lifecycleService == nil {
		return errors.New("lifecycle service not configured")
	}

	outcomes, err := lifecycleService.SoftDeleteRecords(context.Background(), args)
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	failures := 0
	for _, id := range args {
		outcome := outcomes[id]
		if outcome.Success {
			cmd.Printf("  %s deleted\n", id)
			continue
		}
		failures++
		cmd.Printf("  %s %s\n", id, errStyle.Render("failed: "+outcome.Error))
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d records failed", failures, len(args))
	}
	return nil
}
