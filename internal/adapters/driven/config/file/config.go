// Package file loads the TOML configuration from the recordroute
// config directory.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultConfigDir is the per-user config directory name.
const DefaultConfigDir = ".recordroute"

// Config is the on-disk configuration, stored as TOML in
// ~/.recordroute/config.toml. Zero values select defaults at the call
// sites that consume them.
type Config struct {
	// DataDir is the data root holding uploads, outputs, the vector
	// store and the caches. Defaults to <configDir>/data.
	DataDir string `toml:"data_dir"`

	Embedding EmbeddingConfig `toml:"embedding"`
	LLM       LLMConfig       `toml:"llm"`
	Whisper   WhisperConfig   `toml:"whisper"`
	Search    SearchConfig    `toml:"search"`
}

// EmbeddingConfig selects the embedding engine.
type EmbeddingConfig struct {
	BaseURL    string `toml:"base_url"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`
}

// LLMConfig selects the text-generation engine.
type LLMConfig struct {
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// WhisperConfig selects the transcription binary and model.
type WhisperConfig struct {
	Binary    string `toml:"binary"`
	ModelPath string `toml:"model_path"`
	Threads   int    `toml:"threads"`
}

// SearchConfig tunes chunking and the result cache.
type SearchConfig struct {
	// MaxChunkChars bounds the text per embedding call.
	MaxChunkChars int `toml:"max_chunk_chars"`

	// SummaryChunkChars bounds the text per summarisation call.
	SummaryChunkChars int `toml:"summary_chunk_chars"`

	// CacheTTL is how long cached search results stay valid, as a
	// Go duration string ("24h").
	CacheTTL string `toml:"cache_ttl"`
}

// CacheTTLDuration parses the configured TTL; zero means use the
// cache's default.
func (c SearchConfig) CacheTTLDuration() time.Duration {
	if c.CacheTTL == "" {
		return 0
	}
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 0
	}
	return d
}

// Load reads the configuration from configDir, creating the directory
// on first use. An absent config file yields the zero Config; a
// malformed one is an error so typos never silently fall back to
// defaults. Empty configDir selects ~/.recordroute.
func Load(configDir string) (Config, error) {
	dir, err := resolveDir(configDir)
	if err != nil {
		return Config{}, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Config{}, err
	}

	var cfg Config
	data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	if err != nil {
		if os.IsNotExist(err) {
			cfg.DataDir = filepath.Join(dir, "data")
			return cfg, nil
		}
		return Config{}, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config.toml: %w", err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Join(dir, "data")
	}
	return cfg, nil
}

// Save writes the configuration back as TOML.
func Save(configDir string, cfg Config) error {
	dir, err := resolveDir(configDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "config.toml"), data, 0o600)
}

func resolveDir(configDir string) (string, error) {
	if configDir != "" {
		return configDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultConfigDir), nil
}
