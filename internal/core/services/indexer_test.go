package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recordroute/recordroute/internal/core/domain"
)

func TestScanDirIndexesNewSummaries(t *testing.T) {
	env := newTestEnv(t)
	env.writeOutput(t, "rec1", "meeting.summary.md", "notes about the planning meeting")
	env.writeOutput(t, "rec2", "standup.summary.md", "daily standup notes")
	env.writeOutput(t, "rec1", "meeting.txt", "raw transcript, not a summary")

	idx := env.newIndexer(0)
	report, err := idx.ScanDir(context.Background(), env.layout.OutputsDir())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 2, report.Indexed)
	assert.Equal(t, 0, report.Skipped)
	assert.Empty(t, report.Failures)

	index, err := env.index.Load(context.Background())
	require.NoError(t, err)
	require.Contains(t, index, "rec1/meeting.summary.md")
	require.Contains(t, index, "rec2/standup.summary.md")

	entry := index["rec1/meeting.summary.md"]
	assert.Equal(t, domain.AreaOutputs, entry.Base)
	assert.NotEmpty(t, entry.SHA256)
	assert.NotEmpty(t, entry.Timestamp)

	vec, err := env.index.ReadVector(entry.Vector)
	require.NoError(t, err)
	assert.Len(t, vec, 3)
}

func TestScanDirSkipsUnchangedFiles(t *testing.T) {
	env := newTestEnv(t)
	env.writeOutput(t, "rec1", "a.summary.md", "content one")
	env.writeOutput(t, "rec2", "b.summary.md", "content two")

	idx := env.newIndexer(0)
	_, err := idx.ScanDir(context.Background(), env.layout.OutputsDir())
	require.NoError(t, err)
	callsAfterFirst := env.embedder.calls

	report, err := idx.ScanDir(context.Background(), env.layout.OutputsDir())
	require.NoError(t, err)

	assert.Equal(t, 0, report.Indexed)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, callsAfterFirst, env.embedder.calls, "unchanged files must not be re-embedded")
}

func TestScanDirReembedsChangedContent(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeOutput(t, "rec1", "a.summary.md", "first draft")

	idx := env.newIndexer(0)
	_, err := idx.ScanDir(context.Background(), env.layout.OutputsDir())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("second draft, revised"), 0o644))

	report, err := idx.ScanDir(context.Background(), env.layout.OutputsDir())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Indexed)
	assert.Equal(t, 0, report.Skipped)
}

func TestScanDirCollectsPerFileFailures(t *testing.T) {
	env := newTestEnv(t)
	env.writeOutput(t, "rec1", "good.summary.md", "useful text")
	empty := env.writeOutput(t, "rec2", "empty.summary.md", "   \n  ")

	idx := env.newIndexer(0)
	report, err := idx.ScanDir(context.Background(), env.layout.OutputsDir())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 1, report.Indexed)
	require.Contains(t, report.Failures, empty)
	assert.Contains(t, report.Failures[empty], domain.ErrEmptyText.Error())
}

func TestScanDirMissingDir(t *testing.T) {
	env := newTestEnv(t)

	idx := env.newIndexer(0)
	report, err := idx.ScanDir(context.Background(), filepath.Join(env.layout.BaseDir, "nope"))
	require.NoError(t, err)
	assert.Equal(t, 0, report.Scanned)
}

func TestScanDirProviderFailureDoesNotAbortScan(t *testing.T) {
	env := newTestEnv(t)
	env.writeOutput(t, "rec1", "a.summary.md", "text a")

	env.embedder.err = domain.ErrProviderUnavailable
	idx := env.newIndexer(0)
	report, err := idx.ScanDir(context.Background(), env.layout.OutputsDir())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Indexed)
	assert.Len(t, report.Failures, 1)
}

func TestIndexFileChunksLongDocuments(t *testing.T) {
	env := newTestEnv(t)
	text := strings.Repeat("chunk of text. ", 10) // well past maxChars=40
	path := env.writeOutput(t, "rec1", "long.summary.md", text)

	env.embedder.def = []float32{2, 0, 0}
	idx := env.newIndexer(40)

	indexed, err := idx.IndexFile(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, indexed)
	assert.Greater(t, env.embedder.calls, 1, "long document must be embedded in chunks")

	index, err := env.index.Load(context.Background())
	require.NoError(t, err)
	entry := index["rec1/long.summary.md"]
	vec, err := env.index.ReadVector(entry.Vector)
	require.NoError(t, err)
	// Mean of identical chunk vectors equals the chunk vector.
	assert.Equal(t, []float32{2, 0, 0}, vec)
}

func TestIndexFileIdempotent(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeOutput(t, "rec1", "a.summary.md", "stable content")

	idx := env.newIndexer(0)
	first, err := idx.IndexFile(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := idx.IndexFile(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, second)
}

func TestIndexFileRestoresMissingVector(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeOutput(t, "rec1", "a.summary.md", "stable content")

	idx := env.newIndexer(0)
	_, err := idx.IndexFile(context.Background(), path)
	require.NoError(t, err)

	index, err := env.index.Load(context.Background())
	require.NoError(t, err)
	entry := index["rec1/a.summary.md"]
	require.NoError(t, os.Remove(filepath.Join(env.layout.VectorDir(), entry.Vector)))

	restored, err := idx.IndexFile(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, restored, "entry with a missing vector file must be re-embedded")
}

func TestIndexFileNoEmbedder(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeOutput(t, "rec1", "a.summary.md", "text")

	idx := NewIndexer(env.index, nil, nil, env.layout, 0)
	_, err := idx.IndexFile(context.Background(), path)
	assert.True(t, errors.Is(err, domain.ErrProviderUnavailable))
}

func TestScanDirMarksEmbeddingComplete(t *testing.T) {
	env := newTestEnv(t)
	lib := env.newLibrary()

	rec, _, err := lib.RegisterUpload(context.Background(), "talk.wav", "audio", []byte("pcm"), "")
	require.NoError(t, err)
	env.writeOutput(t, rec.Folder, "talk.summary.md", "summary of the talk")

	// A summary without an owning record is indexed but flips nothing.
	env.writeOutput(t, "orphan", "stray.summary.md", "no record owns this")

	idx := env.newTrackingIndexer(0)
	report, err := idx.ScanDir(context.Background(), env.layout.OutputsDir())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Indexed)

	history, err := lib.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].CompletedTasks[domain.TaskEmbedding])
	assert.Contains(t, history[0].DownloadRefs[domain.TaskEmbedding], "/download/")
}

func TestScanDirEmbeddingCompletionIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	lib := env.newLibrary()

	rec, _, err := lib.RegisterUpload(context.Background(), "talk.wav", "audio", []byte("pcm"), "")
	require.NoError(t, err)
	path := env.writeOutput(t, rec.Folder, "talk.summary.md", "first version")

	idx := env.newTrackingIndexer(0)
	_, err = idx.ScanDir(context.Background(), env.layout.OutputsDir())
	require.NoError(t, err)

	registryAfterFirst, err := env.assets.Load(context.Background())
	require.NoError(t, err)

	// A content change re-embeds but must not re-register the asset.
	require.NoError(t, os.WriteFile(path, []byte("second version"), 0o644))
	_, err = idx.ScanDir(context.Background(), env.layout.OutputsDir())
	require.NoError(t, err)

	registryAfterSecond, err := env.assets.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, registryAfterSecond, len(registryAfterFirst))
}

func TestIndexFileMarksEmbeddingComplete(t *testing.T) {
	env := newTestEnv(t)
	lib := env.newLibrary()

	rec, _, err := lib.RegisterUpload(context.Background(), "talk.wav", "audio", []byte("pcm"), "")
	require.NoError(t, err)
	path := env.writeOutput(t, rec.Folder, "talk.summary.md", "summary text")

	idx := env.newTrackingIndexer(0)
	changed, err := idx.IndexFile(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, changed)

	history, err := lib.History(context.Background())
	require.NoError(t, err)
	assert.True(t, history[0].CompletedTasks[domain.TaskEmbedding])
}
