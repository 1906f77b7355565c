// Package obsidian exports transcripts and summaries into an Obsidian
// vault through its MCP server. The exporter spawns the configured
// server binary per call, so no long-lived session is held between
// task completions.
package obsidian

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/recordroute/recordroute/internal/core/ports/driven"
	"github.com/recordroute/recordroute/internal/logger"
)

// Ensure Exporter implements the interface.
var _ driven.NoteExporter = (*Exporter)(nil)

// Version reported to the MCP server during the handshake.
const Version = "0.1.0"

const (
	// DefaultVaultFolder is the vault folder notes are created under.
	DefaultVaultFolder = "RecordRoute"

	// DefaultTimeout bounds one export round trip, server spawn
	// included.
	DefaultTimeout = 60 * time.Second
)

// Config holds the Obsidian MCP connection settings.
type Config struct {
	// ServerPath is the MCP server executable.
	ServerPath string

	// APIKey is passed to the server via OBSIDIAN_API_KEY.
	APIKey string

	// VaultFolder is the folder inside the vault to write notes to.
	VaultFolder string

	// Timeout bounds a single export call.
	Timeout time.Duration
}

// FromEnv reads the integration settings from the environment. The
// second return is false when the integration is disabled or
// misconfigured:
//   - OBSIDIAN_MCP_ENABLED must be "true"
//   - OBSIDIAN_MCP_SERVER_PATH and OBSIDIAN_API_KEY must be set
//   - OBSIDIAN_VAULT_FOLDER overrides the default folder
func FromEnv() (Config, bool) {
	if !strings.EqualFold(os.Getenv("OBSIDIAN_MCP_ENABLED"), "true") {
		return Config{}, false
	}
	cfg := Config{
		ServerPath:  os.Getenv("OBSIDIAN_MCP_SERVER_PATH"),
		APIKey:      os.Getenv("OBSIDIAN_API_KEY"),
		VaultFolder: os.Getenv("OBSIDIAN_VAULT_FOLDER"),
	}
	if cfg.ServerPath == "" {
		logger.Warn("obsidian export enabled but OBSIDIAN_MCP_SERVER_PATH is not set")
		return Config{}, false
	}
	if cfg.APIKey == "" {
		logger.Warn("obsidian export enabled but OBSIDIAN_API_KEY is not set")
		return Config{}, false
	}
	return cfg, true
}

// Exporter writes recordroute artifacts into an Obsidian vault.
type Exporter struct {
	cfg  Config
	dial func(ctx context.Context) (*mcp.ClientSession, error)
	now  func() time.Time
}

// NewExporter creates the exporter, applying defaults for missing
// config values.
func NewExporter(cfg Config) *Exporter {
	if cfg.VaultFolder == "" {
		cfg.VaultFolder = DefaultVaultFolder
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	e := &Exporter{cfg: cfg, now: time.Now}
	e.dial = e.connect
	return e
}

// ExportTranscript sends transcript text to the note for noteID.
func (e *Exporter) ExportTranscript(ctx context.Context, noteID, filename, text string) error {
	return e.export(ctx, noteID, filename, "Transcript", text)
}

// ExportSummary appends summary text to the note for noteID.
func (e *Exporter) ExportSummary(ctx context.Context, noteID, filename, text string) error {
	return e.export(ctx, noteID, filename, "Summary", text)
}

// export creates or appends a section on the vault note. The note is
// probed first; an unreadable note is treated as absent and created.
func (e *Exporter) export(ctx context.Context, noteID, filename, heading, text string) error {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	session, err := e.dial(ctx)
	if err != nil {
		return fmt.Errorf("connect obsidian mcp server: %w", err)
	}
	defer session.Close()

	noteName := e.cfg.VaultFolder + "/" + noteID + ".md"

	exists := false
	if res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "get_vault_file",
		Arguments: map[string]any{"filename": noteName},
	}); err == nil && !res.IsError {
		exists = true
	}

	var res *mcp.CallToolResult
	if exists {
		res, err = session.CallTool(ctx, &mcp.CallToolParams{
			Name: "append_to_vault_file",
			Arguments: map[string]any{
				"filename": noteName,
				"content":  fmt.Sprintf("\n\n## %s\n\n%s\n", heading, text),
			},
		})
	} else {
		res, err = session.CallTool(ctx, &mcp.CallToolParams{
			Name: "create_vault_file",
			Arguments: map[string]any{
				"filename": noteName,
				"content":  e.frontmatter(filename, noteID) + fmt.Sprintf("## %s\n\n%s\n", heading, text),
			},
		})
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", noteName, err)
	}
	if res.IsError {
		return fmt.Errorf("write %s: vault rejected the call", noteName)
	}
	logger.Debug("exported %s section to %s", heading, noteName)
	return nil
}

// frontmatter renders the YAML header of a fresh note. The original
// filename and the note identifier are both aliases so either finds
// the note in the vault.
func (e *Exporter) frontmatter(filename, noteID string) string {
	return fmt.Sprintf(`---
from:
  - "[[RecordRoute]]"
created: %s
aliases:
  - %s
  - %s
---

`, e.now().Format("2006-01-02 150405"), filename, noteID)
}

// connect spawns the MCP server and opens a session over stdio.
func (e *Exporter) connect(ctx context.Context) (*mcp.ClientSession, error) {
	client := mcp.NewClient(&mcp.Implementation{Name: "recordroute", Version: Version}, nil)
	cmd := exec.Command(e.cfg.ServerPath)
	cmd.Env = append(os.Environ(), "OBSIDIAN_API_KEY="+e.cfg.APIKey)
	return client.Connect(ctx, &mcp.CommandTransport{Command: cmd}, nil)
}
