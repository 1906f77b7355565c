// Package cli implements the recordroute command line interface.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	configfile "github.com/recordroute/recordroute/internal/adapters/driven/config/file"
	embeddingollama "github.com/recordroute/recordroute/internal/adapters/driven/embedding/ollama"
	"github.com/recordroute/recordroute/internal/adapters/driven/export/obsidian"
	llmollama "github.com/recordroute/recordroute/internal/adapters/driven/llm/ollama"
	"github.com/recordroute/recordroute/internal/adapters/driven/storage/jsonfile"
	"github.com/recordroute/recordroute/internal/core/domain"
	"github.com/recordroute/recordroute/internal/core/ports/driven"
	"github.com/recordroute/recordroute/internal/core/ports/driving"
	"github.com/recordroute/recordroute/internal/core/services"
	"github.com/recordroute/recordroute/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services consumed by the commands. Wired by initServices on first
// use; tests inject fakes directly.
var (
	searchService    driving.SearchService
	libraryService   driving.LibraryService
	lifecycleService driving.LifecycleService
	indexerService   driving.Indexer

	appLayout domain.Layout
	appConfig configfile.Config
)

var (
	flagVerbose   bool
	flagConfigDir string
)

var rootCmd = &cobra.Command{
	Use:   "recordroute",
	Short: "Upload, transcribe, summarise and search your recordings",
	Long: `recordroute manages a library of uploaded recordings and documents:
it derives transcripts and summaries, embeds them into a local vector
store, and answers similarity searches over the result.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)
		return initServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config", "", "config directory (default ~/.recordroute)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initServices builds the default service graph. Already-set services
// are left alone so tests can swap in fakes.
func initServices() error {
	if searchService != nil && libraryService != nil && lifecycleService != nil && indexerService != nil {
		return nil
	}

	cfg, err := configfile.Load(flagConfigDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	appConfig = cfg
	appLayout = domain.NewLayout(cfg.DataDir)

	history := jsonfile.NewHistoryStore(appLayout)
	assets := jsonfile.NewAssetStore(appLayout)
	index := jsonfile.NewIndexStore(appLayout)
	cache := jsonfile.NewSearchCache(appLayout, cfg.Search.CacheTTLDuration())

	embedder := embeddingollama.NewEmbeddingService(embeddingollama.Config{
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	})
	llm := llmollama.NewLLMService(llmollama.Config{
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: 2 * time.Minute,
	})

	var exporter driven.NoteExporter
	if exportCfg, ok := obsidian.FromEnv(); ok {
		exporter = obsidian.NewExporter(exportCfg)
	}

	if searchService == nil {
		searchService = services.NewSearch(embedder, index, cache, assets, history, appLayout)
	}
	if libraryService == nil {
		libraryService = services.NewLibrary(history, assets, llm, exporter, appLayout, cfg.Search.SummaryChunkChars)
	}
	if lifecycleService == nil {
		lifecycleService = services.NewLifecycle(history, assets, index, appLayout)
	}
	if indexerService == nil {
		indexerService = services.NewIndexer(index, embedder, libraryService, appLayout, cfg.Search.MaxChunkChars)
	}
	return nil
}
