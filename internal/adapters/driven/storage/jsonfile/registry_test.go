package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recordroute/recordroute/internal/core/domain"
)

func TestAssetStore_Register_MintsNewIdentifiers(t *testing.T) {
	layout := testStoreLayout(t)
	store := NewAssetStore(layout)
	ctx := context.Background()

	path := filepath.Join(layout.OutputsDir(), "abc", "meeting.md")

	id1, err := store.Register(ctx, path, "rec-1", domain.TaskTranscript, "")
	require.NoError(t, err)
	id2, err := store.Register(ctx, path, "rec-1", domain.TaskTranscript, "")
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2, "register never deduplicates by path")

	registry, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, registry, 2)
	assert.Equal(t, "outputs/abc/meeting.md", registry[id1].Path)
	assert.Equal(t, "meeting.md", registry[id1].OriginalName)
	assert.False(t, registry[id1].Deleted)
}

func TestAssetStore_Resolve_Identifier(t *testing.T) {
	layout := testStoreLayout(t)
	store := NewAssetStore(layout)
	ctx := context.Background()

	abs := filepath.Join(layout.OutputsDir(), "abc", "meeting.md")
	id, err := store.Register(ctx, abs, "rec-1", domain.TaskTranscript, "Meeting Notes.md")
	require.NoError(t, err)

	resolved, err := store.Resolve(ctx, domain.ParseReference("/download/"+id))
	require.NoError(t, err)
	assert.Equal(t, abs, resolved.AbsPath)
	assert.Equal(t, "rec-1", resolved.RecordID)
	assert.Equal(t, domain.TaskTranscript, resolved.TaskType)
	assert.Equal(t, id, resolved.Identifier)
}

func TestAssetStore_Resolve_UnknownIdentifier(t *testing.T) {
	store := NewAssetStore(testStoreLayout(t))

	_, err := store.Resolve(context.Background(),
		domain.ParseReference("3f2b8c9a-1d4e-4f6a-9b0c-7e5d2a1f8c3b"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAssetStore_Resolve_LegacyPathRecoversIdentifier(t *testing.T) {
	layout := testStoreLayout(t)
	store := NewAssetStore(layout)
	ctx := context.Background()

	abs := filepath.Join(layout.OutputsDir(), "abc", "meeting.md")
	id, err := store.Register(ctx, abs, "rec-1", domain.TaskTranscript, "")
	require.NoError(t, err)

	resolved, err := store.Resolve(ctx, domain.ParseReference("outputs/abc/meeting.md"))
	require.NoError(t, err)
	assert.Equal(t, abs, resolved.AbsPath)
	assert.Equal(t, "rec-1", resolved.RecordID)
	assert.Equal(t, id, resolved.Identifier, "legacy path resolves to the canonical identifier")
}

func TestAssetStore_Resolve_UnregisteredLegacyPath(t *testing.T) {
	layout := testStoreLayout(t)
	store := NewAssetStore(layout)

	resolved, err := store.Resolve(context.Background(),
		domain.ParseReference("uploads/abc/raw.m4a"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(layout.BaseDir, "uploads", "abc", "raw.m4a"), resolved.AbsPath)
	assert.Empty(t, resolved.RecordID)
	assert.Equal(t, "uploads/abc/raw.m4a", resolved.Identifier)
}

func TestAssetStore_Resolve_Empty(t *testing.T) {
	store := NewAssetStore(testStoreLayout(t))

	_, err := store.Resolve(context.Background(), domain.ParseReference(""))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAssetStore_Load_Corrupt(t *testing.T) {
	layout := testStoreLayout(t)
	require.NoError(t, os.WriteFile(layout.RegistryFile(), []byte("[broken"), 0o600))

	registry, err := NewAssetStore(layout).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, registry)
}

func TestAssetStore_Update_HardRemove(t *testing.T) {
	layout := testStoreLayout(t)
	store := NewAssetStore(layout)
	ctx := context.Background()

	id, err := store.Register(ctx, filepath.Join(layout.OutputsDir(), "abc", "m.md"),
		"rec-1", domain.TaskSummary, "")
	require.NoError(t, err)

	err = store.Update(ctx, func(registry map[string]domain.Asset) (bool, error) {
		delete(registry, id)
		return true, nil
	})
	require.NoError(t, err)

	registry, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, registry)
}
