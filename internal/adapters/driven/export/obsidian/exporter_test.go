package obsidian

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVault is an in-process MCP server exposing the three vault tools
// the exporter calls, backed by a plain map.
type fakeVault struct {
	files map[string]string
}

type vaultFileInput struct {
	Filename string `json:"filename"`
	Content  string `json:"content,omitempty"`
}

type vaultFileOutput struct {
	Content string `json:"content,omitempty"`
}

func (v *fakeVault) handleGet(_ context.Context, _ *mcp.CallToolRequest, in vaultFileInput) (*mcp.CallToolResult, vaultFileOutput, error) {
	content, ok := v.files[in.Filename]
	if !ok {
		return nil, vaultFileOutput{}, fmt.Errorf("no such file: %s", in.Filename)
	}
	return nil, vaultFileOutput{Content: content}, nil
}

func (v *fakeVault) handleCreate(_ context.Context, _ *mcp.CallToolRequest, in vaultFileInput) (*mcp.CallToolResult, vaultFileOutput, error) {
	v.files[in.Filename] = in.Content
	return nil, vaultFileOutput{}, nil
}

func (v *fakeVault) handleAppend(_ context.Context, _ *mcp.CallToolRequest, in vaultFileInput) (*mcp.CallToolResult, vaultFileOutput, error) {
	if _, ok := v.files[in.Filename]; !ok {
		return nil, vaultFileOutput{}, fmt.Errorf("no such file: %s", in.Filename)
	}
	v.files[in.Filename] += in.Content
	return nil, vaultFileOutput{}, nil
}

// newTestExporter wires an Exporter to an in-memory vault server, so
// the full tool-call sequence runs without spawning a process.
func newTestExporter(t *testing.T) (*Exporter, *fakeVault) {
	t.Helper()

	vault := &fakeVault{files: map[string]string{}}
	server := mcp.NewServer(&mcp.Implementation{Name: "fake-vault", Version: "test"}, nil)
	mcp.AddTool(server, &mcp.Tool{Name: "get_vault_file", Description: "read a vault file"}, vault.handleGet)
	mcp.AddTool(server, &mcp.Tool{Name: "create_vault_file", Description: "create a vault file"}, vault.handleCreate)
	mcp.AddTool(server, &mcp.Tool{Name: "append_to_vault_file", Description: "append to a vault file"}, vault.handleAppend)

	exporter := NewExporter(Config{ServerPath: "unused", APIKey: "unused"})
	exporter.now = func() time.Time {
		return time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	}
	exporter.dial = func(ctx context.Context) (*mcp.ClientSession, error) {
		clientTransport, serverTransport := mcp.NewInMemoryTransports()
		if _, err := server.Connect(ctx, serverTransport, nil); err != nil {
			return nil, err
		}
		client := mcp.NewClient(&mcp.Implementation{Name: "recordroute", Version: Version}, nil)
		return client.Connect(ctx, clientTransport, nil)
	}
	return exporter, vault
}

func TestExportTranscriptCreatesNote(t *testing.T) {
	exporter, vault := newTestExporter(t)

	err := exporter.ExportTranscript(context.Background(), "rec-1", "talk.m4a", "hello world")
	require.NoError(t, err)

	note, ok := vault.files["RecordRoute/rec-1.md"]
	require.True(t, ok)
	assert.Contains(t, note, "aliases:\n  - talk.m4a\n  - rec-1")
	assert.Contains(t, note, "created: 2026-03-01 103000")
	assert.Contains(t, note, "## Transcript\n\nhello world")
}

func TestExportSummaryAppendsToExistingNote(t *testing.T) {
	exporter, vault := newTestExporter(t)

	require.NoError(t, exporter.ExportTranscript(context.Background(), "rec-1", "talk.m4a", "hello world"))
	require.NoError(t, exporter.ExportSummary(context.Background(), "rec-1", "talk.m4a", "- key point"))

	note := vault.files["RecordRoute/rec-1.md"]
	assert.Contains(t, note, "## Transcript\n\nhello world")
	assert.Contains(t, note, "## Summary\n\n- key point")

	// The frontmatter must appear once, not per section.
	assert.Equal(t, 1, strings.Count(note, "aliases:"))
}

func TestExportSummaryWithoutTranscriptCreatesNote(t *testing.T) {
	exporter, vault := newTestExporter(t)

	err := exporter.ExportSummary(context.Background(), "rec-2", "notes.md", "- summary only")
	require.NoError(t, err)

	note := vault.files["RecordRoute/rec-2.md"]
	assert.Contains(t, note, "## Summary\n\n- summary only")
	assert.Contains(t, note, "aliases:\n  - notes.md\n  - rec-2")
}

func TestExporterVaultFolderOverride(t *testing.T) {
	exporter, vault := newTestExporter(t)
	exporter.cfg.VaultFolder = "Inbox"

	require.NoError(t, exporter.ExportTranscript(context.Background(), "rec-3", "a.wav", "text"))

	_, ok := vault.files["Inbox/rec-3.md"]
	assert.True(t, ok)
}

func TestFromEnv(t *testing.T) {
	t.Run("disabled by default", func(t *testing.T) {
		t.Setenv("OBSIDIAN_MCP_ENABLED", "")
		_, ok := FromEnv()
		assert.False(t, ok)
	})

	t.Run("enabled but missing server path", func(t *testing.T) {
		t.Setenv("OBSIDIAN_MCP_ENABLED", "true")
		t.Setenv("OBSIDIAN_MCP_SERVER_PATH", "")
		t.Setenv("OBSIDIAN_API_KEY", "key")
		_, ok := FromEnv()
		assert.False(t, ok)
	})

	t.Run("fully configured", func(t *testing.T) {
		t.Setenv("OBSIDIAN_MCP_ENABLED", "TRUE")
		t.Setenv("OBSIDIAN_MCP_SERVER_PATH", "/usr/local/bin/obsidian-mcp")
		t.Setenv("OBSIDIAN_API_KEY", "key")
		t.Setenv("OBSIDIAN_VAULT_FOLDER", "Inbox")
		cfg, ok := FromEnv()
		require.True(t, ok)
		assert.Equal(t, "/usr/local/bin/obsidian-mcp", cfg.ServerPath)
		assert.Equal(t, "Inbox", cfg.VaultFolder)
	})
}
