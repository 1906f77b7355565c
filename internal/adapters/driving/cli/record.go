package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var renameCmd = &cobra.Command{
	Use:   "rename [record-id] [new-name]",
	Short: "Change a record's display filename",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if libraryService == nil {
			return errors.New("library service not configured")
		}
		if err := libraryService.Rename(context.Background(), args[0], args[1]); err != nil {
			return fmt.Errorf("rename failed: %w", err)
		}
		cmd.Printf("Renamed %s to %s\n", args[0], titleStyle.Render(args[1]))
		return nil
	},
}

var titleFile string

var titleCmd = &cobra.Command{
	Use:   "title [record-id]",
	Short: "Generate a one-line title for a record",
	Long: `Summarises the record's text via the text-generation engine and
stores the result as the record's title. Use --file to summarise a
specific artifact; otherwise pass the text file to summarise.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if libraryService == nil {
			return errors.New("library service not configured")
		}
		if titleFile == "" {
			return errors.New("--file is required")
		}
		title, err := libraryService.GenerateTitleSummary(context.Background(), args[0], titleFile)
		if err != nil {
			return fmt.Errorf("title generation failed: %w", err)
		}
		cmd.Printf("Title: %s\n", titleStyle.Render(title))
		return nil
	},
}

func init() {
	titleCmd.Flags().StringVar(&titleFile, "file", "", "text file to summarise")
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(titleCmd)
}
