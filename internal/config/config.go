// ABOUTME: Centralized configuration for the ask CLI
// ABOUTME: Merges built-in defaults, a TOML config file, and ASK_* environment variables
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	toml "github.com/pelletier/go-toml/v2"
)

// Source link styles for RAG citations.
const (
	LinkFormatMarkdown  = "markdown"
	LinkFormatWikilinks = "wikilinks"
)

// ConfigError reports a missing or invalid configuration value. It is
// surfaced before any network call is attempted.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// RAGConfig holds settings for the retrieval-augmented answering mode.
type RAGConfig struct {
	Enabled          bool   `toml:"-"`
	Endpoint         string `toml:"endpoint"`
	APIKey           string `toml:"api_key"`
	AnswerModel      string `toml:"answer_model"`
	EmbedModel       string `toml:"embed_model"`
	DocDir           string `toml:"doc_dir"`
	ExcerptLength    int    `toml:"excerpt_length"`
	SourceLinkFormat string `toml:"source_link_format"`
	TopK             int    `toml:"top_k"`
}

// Config holds all configuration for one CLI invocation. It is built once
// by the command layer and passed into each component at construction.
type Config struct {
	AllowClipboard             bool    `toml:"allow_clipboard"`
	ConversationTimeoutMinutes int     `toml:"conversation_timeout_minutes"`
	DBPath                     string  `toml:"db_file"`
	LogFile                    string  `toml:"log_file"`
	LogLevel                   string  `toml:"log_level"`
	Model                      string  `toml:"model"`
	ProviderEndpoint           string  `toml:"provider_endpoint"`
	ProviderAPIKey             string  `toml:"provider_api_key"`
	SearchEndpoint             string  `toml:"search_endpoint"`
	SearchAPIKey               string  `toml:"search_api_key"`
	FullContent                bool    `toml:"full_content"`
	PageReaderEndpoint         string  `toml:"page_reader_endpoint"`
	PageReaderAPIKey           string  `toml:"page_reader_api_key"`
	SystemRole                 string  `toml:"system_role"`
	Temperature                float64 `toml:"temperature"`
	WebSearch                  bool    `toml:"-"`
	FollowLinks                bool    `toml:"-"`

	RAG RAGConfig `toml:"rag"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		AllowClipboard:             true,
		ConversationTimeoutMinutes: 10,
		LogLevel:                   "info",
		PageReaderEndpoint:         "https://eu.r.jina.ai/",
		SearchEndpoint:             "https://eu.s.jina.ai/",
		SystemRole:                 "A helpful assistant",
		Temperature:                1.0,
		RAG: RAGConfig{
			ExcerptLength:    200,
			SourceLinkFormat: LinkFormatMarkdown,
			TopK:             4,
		},
	}
}

// DefaultConfigPath returns the XDG-aware default config file location.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".config", "ask", "config.toml")
		}
		configHome = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configHome, "ask", "config.toml")
}

// Load builds a Config from defaults, the TOML file at path (skipped when
// absent), and ASK_* environment variables, in increasing precedence.
// Flag overrides are applied afterwards by the command layer.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No config file is fine; defaults plus env apply.
	case err != nil:
		return nil, &ConfigError{Field: "config_file", Reason: err.Error()}
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, &ConfigError{Field: "config_file", Reason: fmt.Sprintf("parsing %s: %v", path, err)}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays ASK_* environment variables, typically supplied via a
// .env file loaded with godotenv.
func (c *Config) applyEnv() {
	c.ProviderEndpoint = getEnv("ASK_PROVIDER_ENDPOINT", c.ProviderEndpoint)
	c.ProviderAPIKey = getEnv("ASK_PROVIDER_API_KEY", c.ProviderAPIKey)
	c.SearchAPIKey = getEnv("ASK_SEARCH_API_KEY", c.SearchAPIKey)
	c.PageReaderAPIKey = getEnv("ASK_PAGE_READER_API_KEY", c.PageReaderAPIKey)
	c.Model = getEnv("ASK_MODEL", c.Model)
	c.RAG.Endpoint = getEnv("ASK_RAG_ENDPOINT", c.RAG.Endpoint)
	c.RAG.APIKey = getEnv("ASK_RAG_API_KEY", c.RAG.APIKey)
	c.ConversationTimeoutMinutes = getEnvInt("ASK_CONVERSATION_TIMEOUT_MINUTES", c.ConversationTimeoutMinutes)
}

// Validate checks that the configuration is complete for the requested
// mode. It must pass before any network call is made.
func (c *Config) Validate() error {
	if c.Temperature < 0 || c.Temperature > 2 {
		return &ConfigError{Field: "temperature", Reason: fmt.Sprintf("must be 0-2, got %g", c.Temperature)}
	}

	if c.RAG.Enabled {
		if c.RAG.Endpoint == "" {
			return &ConfigError{Field: "rag.endpoint", Reason: "required in RAG mode"}
		}
		if c.RAG.AnswerModel == "" {
			return &ConfigError{Field: "rag.answer_model", Reason: "required in RAG mode"}
		}
		if c.RAG.EmbedModel == "" {
			return &ConfigError{Field: "rag.embed_model", Reason: "required in RAG mode"}
		}
		if c.RAG.DocDir == "" {
			return &ConfigError{Field: "rag.doc_dir", Reason: "required in RAG mode"}
		}
		if c.RAG.ExcerptLength <= 0 {
			return &ConfigError{Field: "rag.excerpt_length", Reason: fmt.Sprintf("must be positive, got %d", c.RAG.ExcerptLength)}
		}
		if c.RAG.TopK <= 0 {
			return &ConfigError{Field: "rag.top_k", Reason: fmt.Sprintf("must be positive, got %d", c.RAG.TopK)}
		}
		if f := c.RAG.SourceLinkFormat; f != LinkFormatMarkdown && f != LinkFormatWikilinks {
			return &ConfigError{Field: "rag.source_link_format", Reason: fmt.Sprintf("must be %q or %q, got %q", LinkFormatMarkdown, LinkFormatWikilinks, f)}
		}
		return nil
	}

	if c.ProviderEndpoint == "" {
		return &ConfigError{Field: "provider_endpoint", Reason: "required"}
	}
	if c.Model == "" {
		return &ConfigError{Field: "model", Reason: "required"}
	}
	if c.WebSearch && c.SearchEndpoint == "" {
		return &ConfigError{Field: "search_endpoint", Reason: "required with web search"}
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
