package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recordroute/recordroute/internal/core/domain"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [record-id]",
	Short: "Generate a structured summary for a record",
	Long: `Summarises the record's transcript (or the uploaded document itself)
via the text-generation engine and stores the result as the record's
summary artifact. Run "recordroute index" afterwards to embed it into
the search index.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if libraryService == nil {
			return errors.New("library service not configured")
		}
		path, err := libraryService.SummarizeRecord(context.Background(), args[0])
		if err != nil {
			if errors.Is(err, domain.ErrProviderUnavailable) {
				return fmt.Errorf("text-generation engine unreachable: %w", err)
			}
			return fmt.Errorf("summarize failed: %w", err)
		}
		cmd.Printf("Summary written to %s\n", titleStyle.Render(path))
		return nil
	},
}

var tagCmd = &cobra.Command{
	Use:   "tag [record-id] [tag]...",
	Short: "Replace a record's tags",
	Long: `Sets the record's tags, replacing any existing ones. Tags are matched
by "history --filter" alongside the filename. Pass no tags to clear
them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if libraryService == nil {
			return errors.New("library service not configured")
		}
		if err := libraryService.SetTags(context.Background(), args[0], args[1:]); err != nil {
			return fmt.Errorf("tag failed: %w", err)
		}
		if len(args) > 1 {
			cmd.Printf("Tagged %s\n", args[0])
		} else {
			cmd.Printf("Cleared tags on %s\n", args[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(tagCmd)
}
