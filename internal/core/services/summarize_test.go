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

func TestSummarizeRecordFromTranscript(t *testing.T) {
	env := newTestEnv(t)
	lib := env.newLibrary()
	env.llm.title = "- the summary"

	rec, _, err := lib.RegisterUpload(context.Background(), "talk.wav", "audio", []byte("pcm"), "")
	require.NoError(t, err)
	transcript := env.writeOutput(t, rec.Folder, "talk.txt", "we discussed the budget")
	_, err = lib.CompleteTask(context.Background(), rec.ID, domain.TaskTranscript, transcript)
	require.NoError(t, err)

	path, err := lib.SummarizeRecord(context.Background(), rec.ID)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(env.layout.OutputsDir(), rec.Folder, "talk.summary.md"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "- the summary\n", string(data))

	// The transcript text, not the raw upload, went into the prompt.
	require.NotEmpty(t, env.llm.prompts)
	assert.Contains(t, env.llm.prompts[0], "we discussed the budget")

	history, err := lib.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].CompletedTasks[domain.TaskSummary])
	assert.Contains(t, history[0].DownloadRefs[domain.TaskSummary], "/download/")
}

func TestSummarizeRecordFallsBackToUpload(t *testing.T) {
	env := newTestEnv(t)
	lib := env.newLibrary()
	env.llm.title = "- doc summary"

	rec, _, err := lib.RegisterUpload(context.Background(), "notes.md", "document", []byte("meeting notes body"), "")
	require.NoError(t, err)

	_, err = lib.SummarizeRecord(context.Background(), rec.ID)
	require.NoError(t, err)

	require.NotEmpty(t, env.llm.prompts)
	assert.Contains(t, env.llm.prompts[0], "meeting notes body")
}

func TestSummarizeRecordPrefersCorrectedTranscript(t *testing.T) {
	env := newTestEnv(t)
	lib := env.newLibrary()

	rec, _, err := lib.RegisterUpload(context.Background(), "talk.wav", "audio", []byte("pcm"), "")
	require.NoError(t, err)
	transcript := env.writeOutput(t, rec.Folder, "talk.txt", "raw transcript")
	env.writeOutput(t, rec.Folder, "talk.corrected.md", "corrected transcript")
	_, err = lib.CompleteTask(context.Background(), rec.ID, domain.TaskTranscript, transcript)
	require.NoError(t, err)

	_, err = lib.SummarizeRecord(context.Background(), rec.ID)
	require.NoError(t, err)

	require.NotEmpty(t, env.llm.prompts)
	assert.Contains(t, env.llm.prompts[0], "corrected transcript")
}

func TestSummarizeRecordMapReduce(t *testing.T) {
	env := newTestEnv(t)
	lib := env.newLibraryChunked(20)
	env.llm.title = "- partial"

	text := strings.Repeat("alpha beta gamma. ", 10)
	rec, _, err := lib.RegisterUpload(context.Background(), "long.md", "document", []byte(text), "")
	require.NoError(t, err)

	_, err = lib.SummarizeRecord(context.Background(), rec.ID)
	require.NoError(t, err)

	// One call per chunk plus the final merge.
	assert.Greater(t, env.llm.calls, 2)
	last := env.llm.prompts[len(env.llm.prompts)-1]
	assert.Contains(t, last, "- partial")
}

func TestSummarizeRecordProviderFailure(t *testing.T) {
	env := newTestEnv(t)
	lib := env.newLibrary()
	env.llm.err = domain.ErrProviderUnavailable

	rec, _, err := lib.RegisterUpload(context.Background(), "notes.md", "document", []byte("body"), "")
	require.NoError(t, err)

	_, err = lib.SummarizeRecord(context.Background(), rec.ID)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)

	history, err := lib.History(context.Background())
	require.NoError(t, err)
	assert.False(t, history[0].CompletedTasks[domain.TaskSummary])
}

func TestSummarizeRecordErrors(t *testing.T) {
	env := newTestEnv(t)
	lib := env.newLibrary()

	t.Run("unknown record", func(t *testing.T) {
		_, err := lib.SummarizeRecord(context.Background(), "nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("no engine", func(t *testing.T) {
		bare := NewLibrary(env.history, env.assets, nil, nil, env.layout, 0)
		rec, _, err := bare.RegisterUpload(context.Background(), "a.md", "document", []byte("x"), "")
		require.NoError(t, err)
		_, err = bare.SummarizeRecord(context.Background(), rec.ID)
		assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	})

	t.Run("deleted record", func(t *testing.T) {
		rec := pipelineRecord(t, env, "gone")
		lc := env.newLifecycle()
		_, err := lc.SoftDeleteRecords(context.Background(), []string{rec.ID})
		require.NoError(t, err)
		_, err = lib.SummarizeRecord(context.Background(), rec.ID)
		assert.ErrorIs(t, err, domain.ErrAlreadyDeleted)
	})
}

func TestCompleteTaskExportsToVault(t *testing.T) {
	env := newTestEnv(t)
	lib := env.newLibrary()

	rec, _, err := lib.RegisterUpload(context.Background(), "talk.wav", "audio", []byte("pcm"), "")
	require.NoError(t, err)

	transcript := env.writeOutput(t, rec.Folder, "talk.txt", "spoken words")
	_, err = lib.CompleteTask(context.Background(), rec.ID, domain.TaskTranscript, transcript)
	require.NoError(t, err)
	assert.Equal(t, "spoken words", env.exporter.transcripts[rec.ID])

	summary := env.writeOutput(t, rec.Folder, "talk.summary.md", "- condensed")
	_, err = lib.CompleteTask(context.Background(), rec.ID, domain.TaskSummary, summary)
	require.NoError(t, err)
	assert.Equal(t, "- condensed", env.exporter.summaries[rec.ID])

	// Embedding completion is local bookkeeping, never exported.
	assert.Len(t, env.exporter.transcripts, 1)
	_, err = lib.CompleteTask(context.Background(), rec.ID, domain.TaskEmbedding, summary)
	require.NoError(t, err)
	assert.Len(t, env.exporter.summaries, 1)
}

func TestCompleteTaskSurvivesExportFailure(t *testing.T) {
	env := newTestEnv(t)
	lib := env.newLibrary()
	env.exporter.err = errors.New("vault offline")

	rec, _, err := lib.RegisterUpload(context.Background(), "talk.wav", "audio", []byte("pcm"), "")
	require.NoError(t, err)
	transcript := env.writeOutput(t, rec.Folder, "talk.txt", "spoken words")

	_, err = lib.CompleteTask(context.Background(), rec.ID, domain.TaskTranscript, transcript)
	require.NoError(t, err)

	history, err := lib.History(context.Background())
	require.NoError(t, err)
	assert.True(t, history[0].CompletedTasks[domain.TaskTranscript])
}
