package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/recordroute/recordroute/internal/adapters/driven/storage/jsonfile"
	"github.com/recordroute/recordroute/internal/core/domain"
	"github.com/recordroute/recordroute/internal/core/ports/driven"
)

// fakeEmbedder returns canned vectors keyed by input text, falling
// back to a default vector. Calls are counted so tests can assert
// cache hits skipped embedding.
type fakeEmbedder struct {
	vectors map[string][]float32
	def     []float32
	err     error
	calls   int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	if f.def != nil {
		return f.def, nil
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) Dimensions() int            { return 3 }
func (f *fakeEmbedder) ModelName() string          { return "fake-embedder" }
func (f *fakeEmbedder) Ping(context.Context) error { return f.err }

type fakeLLM struct {
	title   string
	err     error
	calls   int
	prompts []string
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.title, f.err
}

func (f *fakeLLM) Summarise(context.Context, string) (string, error) {
	return f.title, f.err
}

func (f *fakeLLM) ModelName() string          { return "fake-llm" }
func (f *fakeLLM) Ping(context.Context) error { return f.err }

// fakeExporter records vault exports per task.
type fakeExporter struct {
	transcripts map[string]string
	summaries   map[string]string
	err         error
}

func newFakeExporter() *fakeExporter {
	return &fakeExporter{
		transcripts: map[string]string{},
		summaries:   map[string]string{},
	}
}

func (f *fakeExporter) ExportTranscript(_ context.Context, noteID, _ string, text string) error {
	if f.err != nil {
		return f.err
	}
	f.transcripts[noteID] = text
	return nil
}

func (f *fakeExporter) ExportSummary(_ context.Context, noteID, _ string, text string) error {
	if f.err != nil {
		return f.err
	}
	f.summaries[noteID] = text
	return nil
}

// testEnv wires real JSON-file stores over a temp directory with fake
// providers, so service tests cover the same persistence paths the
// binary uses.
type testEnv struct {
	layout   domain.Layout
	history  *jsonfile.HistoryStore
	assets   *jsonfile.AssetStore
	index    *jsonfile.IndexStore
	cache    *jsonfile.SearchCache
	embedder *fakeEmbedder
	llm      *fakeLLM
	exporter *fakeExporter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	layout := domain.NewLayout(t.TempDir())
	return &testEnv{
		layout:   layout,
		history:  jsonfile.NewHistoryStore(layout),
		assets:   jsonfile.NewAssetStore(layout),
		index:    jsonfile.NewIndexStore(layout),
		cache:    jsonfile.NewSearchCache(layout, 0),
		embedder: &fakeEmbedder{},
		llm:      &fakeLLM{title: "Generated Title"},
		exporter: newFakeExporter(),
	}
}

func (e *testEnv) newSearch() *SearchService {
	return NewSearch(e.embedder, e.index, e.cache, e.assets, e.history, e.layout)
}

func (e *testEnv) newIndexer(maxChars int) *IndexerService {
	return NewIndexer(e.index, e.embedder, nil, e.layout, maxChars)
}

// newTrackingIndexer wires the library in, so indexing flips the
// owning record's embedding flag.
func (e *testEnv) newTrackingIndexer(maxChars int) *IndexerService {
	return NewIndexer(e.index, e.embedder, e.newLibrary(), e.layout, maxChars)
}

func (e *testEnv) newLibrary() *LibraryService {
	return NewLibrary(e.history, e.assets, e.llm, e.exporter, e.layout, 0)
}

// newLibraryChunked shrinks the summarisation chunk limit so the
// map-reduce path runs on short fixtures.
func (e *testEnv) newLibraryChunked(chunkChars int) *LibraryService {
	return NewLibrary(e.history, e.assets, e.llm, e.exporter, e.layout, chunkChars)
}

func (e *testEnv) newLifecycle() *LifecycleService {
	return NewLifecycle(e.history, e.assets, e.index, e.layout)
}

// writeOutput creates a file under outputs/<folder>/ and returns its
// absolute path.
func (e *testEnv) writeOutput(t *testing.T, folder, name, content string) string {
	t.Helper()
	dir := filepath.Join(e.layout.OutputsDir(), folder)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// addIndexEntry stores a vector and its index entry directly.
func (e *testEnv) addIndexEntry(t *testing.T, key string, vec []float32, timestamp string) {
	t.Helper()
	name := filepath.Base(key) + ".vec"
	require.NoError(t, e.index.WriteVector(name, vec))
	require.NoError(t, e.index.Update(context.Background(), func(index map[string]domain.IndexEntry) (bool, error) {
		index[key] = domain.IndexEntry{
			SHA256:    "deadbeef",
			Vector:    name,
			Timestamp: timestamp,
			Base:      domain.AreaOutputs,
		}
		return true, nil
	}))
}
