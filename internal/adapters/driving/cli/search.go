package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recordroute/recordroute/internal/core/domain"
)

var (
	searchTopK  int
	searchStart string
	searchEnd   string
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents by similarity",
	Long: `Embeds the query and ranks every indexed document by cosine
similarity. Results are cached; repeating a query is instant and keeps
a stable result-set id.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top", "n", 5, "maximum number of results")
	searchCmd.Flags().StringVar(&searchStart, "start", "", "only documents on or after this date (YYYY-MM-DD)")
	searchCmd.Flags().StringVar(&searchEnd, "end", "", "only documents on or before this date (YYYY-MM-DD)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	dates := domain.DateRange{Start: searchStart, End: searchEnd}
	set, err := searchService.Search(context.Background(), args[0], searchTopK, dates)
	if err != nil {
		if errors.Is(err, domain.ErrProviderUnavailable) {
			return fmt.Errorf("embedding engine unreachable; is it running? (%w)", err)
		}
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(set, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	if len(set.Hits) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println(titleStyle.Render("Results") + dimStyle.Render("  ("+set.UUID+")"))
	cmd.Println()
	for i, hit := range set.Hits {
		cmd.Printf("  [%d] %s %s\n", i+1, hit.Key, scoreStyle.Render(fmt.Sprintf("(%.3f)", hit.Score)))
	}
	cmd.Println()
	return nil
}

var similarCmd = &cobra.Command{
	Use:   "similar [file-id or path]",
	Short: "Find documents similar to an existing one",
	Args:  cobra.ExactArgs(1),
	RunE:  runSimilar,
}

func init() {
	similarCmd.Flags().IntVarP(&searchTopK, "top", "n", 5, "maximum number of results")
	rootCmd.AddCommand(similarCmd)
}

func runSimilar(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	ref := domain.ParseReference(args[0])
	hits, err := searchService.FindSimilar(context.Background(), ref, searchTopK)
	if err != nil {
		return fmt.Errorf("similar failed: %w", err)
	}

	if len(hits) == 0 {
		cmd.Println("No similar documents.")
		return nil
	}
	for i, hit := range hits {
		cmd.Printf("  [%d] %s %s\n", i+1, hit.Key, scoreStyle.Render(fmt.Sprintf("(%.3f)", hit.Score)))
	}
	return nil
}

var matchLimit int

var matchCmd = &cobra.Command{
	Use:   "match [keyword]",
	Short: "Scan registered text files for a keyword",
	Args:  cobra.ExactArgs(1),
	RunE:  runMatch,
}

func init() {
	matchCmd.Flags().IntVarP(&matchLimit, "limit", "n", 5, "maximum number of matches")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	matches, err := searchService.KeywordMatches(context.Background(), args[0], matchLimit)
	if err != nil {
		return fmt.Errorf("match failed: %w", err)
	}

	if len(matches) == 0 {
		cmd.Println("No matches.")
		return nil
	}
	for _, m := range matches {
		cmd.Printf("  %s %s %s\n",
			titleStyle.Render(m.DisplayName),
			dimStyle.Render(fmt.Sprintf("%d hits", m.Count)),
			dimStyle.Render(m.Link))
	}
	return nil
}
