// ABOUTME: Root CLI command running one prompt through the request pipeline
// ABOUTME: Owns configuration flags shared by the prompt, index, and mcp commands
package commands

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/ask-cli/ask/internal/augment"
	"github.com/ask-cli/ask/internal/config"
	"github.com/ask-cli/ask/internal/convo"
	"github.com/ask-cli/ask/internal/core"
	"github.com/ask-cli/ask/internal/llm"
	"github.com/ask-cli/ask/internal/logging"
	"github.com/ask-cli/ask/internal/rag"
	"github.com/ask-cli/ask/internal/storage/sqlite"
	"github.com/ask-cli/ask/internal/web"
)

// Global output flags
var (
	verbose bool
	quiet   bool
)

const banner = `
 █████╗ ███████╗██╗  ██╗
██╔══██╗██╔════╝██║ ██╔╝
███████║███████╗█████╔╝
██╔══██║╚════██║██╔═██╗
██║  ██║███████║██║  ██╗
╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝
`

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [prompt...]",
		Short: "Ask an LLM from your terminal",
		Long: banner + `
Ask a question from the command line and get a model answer back.

Recent invocations continue the same conversation; after a configurable
idle timeout a fresh one starts. Context can be pulled in from the
clipboard, a web search, linked pages, or an indexed document directory
(RAG mode with source citations).`,
		Example: `  # Plain question
  ask "how do I tar a directory?"

  # Empty prompt: the clipboard content becomes the prompt
  ask

  # Augment with a web search and any linked pages
  ask --web-search --follow-links "summarize https://example.com/post"

  # Answer from an indexed document directory, with citations
  ask --rag --rag-doc-dir ~/notes "what did I write about batteries?"`,
		Args:         cobra.ArbitraryArgs,
		RunE:         runAsk,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	addConfigFlags(cmd.Flags())

	cmd.AddCommand(NewIndexCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// addConfigFlags registers the configuration flags shared by the commands
// that run the pipeline. Defaults here mirror config.Default so help text
// stays truthful; only flags the user actually set override the config.
func addConfigFlags(f *pflag.FlagSet) {
	defaults := config.Default()

	f.String("config-file", "", "Path to the TOML config file")
	f.Bool("clipboard", defaults.AllowClipboard, "Allow reading the clipboard for extra context")
	f.Int("conversation-timeout-minutes", defaults.ConversationTimeoutMinutes, "Idle minutes before a new conversation starts (0 = always new)")
	f.String("db-file", "", "Path to the SQLite database file")
	f.Bool("follow-links", false, "Fetch URLs found in the prompt and add their content")
	f.Bool("full-content", false, "Request full page content from the search provider")
	f.String("log-file", "", "Write logs to this file instead of stderr")
	f.String("log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")
	f.String("model", "", "Model name for chat completions")
	f.String("page-reader-endpoint", defaults.PageReaderEndpoint, "Page reader endpoint (empty = fetch and extract locally)")
	f.String("page-reader-api-key", "", "API key for the page reader endpoint")
	f.String("provider-endpoint", "", "OpenAI-compatible API base URL")
	f.String("provider-api-key", "", "API key for the model provider")
	f.Bool("rag", false, "Answer from the indexed document directory with citations")
	f.String("rag-endpoint", "", "OpenAI-compatible API base URL for RAG mode")
	f.String("rag-api-key", "", "API key for the RAG endpoint")
	f.String("rag-answer-model", "", "Model that answers over retrieved context")
	f.String("rag-embed-model", "", "Embedding model for indexing and retrieval")
	f.String("rag-doc-dir", "", "Document directory to index and retrieve from")
	f.Int("rag-excerpt-length", defaults.RAG.ExcerptLength, "Citation excerpt length in characters")
	f.String("rag-source-link-format", defaults.RAG.SourceLinkFormat, "Citation link style (markdown or wikilinks)")
	f.Int("rag-top-k", defaults.RAG.TopK, "Number of chunks to retrieve per query")
	f.String("search-endpoint", defaults.SearchEndpoint, "Web search endpoint")
	f.String("search-api-key", "", "API key for the search endpoint")
	f.String("system-role", defaults.SystemRole, "System role for new conversations")
	f.Float64("temperature", defaults.Temperature, "Sampling temperature (0-2)")
	f.Bool("web-search", false, "Run a web search and add the results as context")
}

// loadConfig builds the effective configuration: defaults, then the TOML
// file, then ASK_* environment variables, then explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	// .env is optional; it feeds the ASK_* variables config.Load reads
	_ = godotenv.Load()

	f := cmd.Flags()

	var configFile string
	if fl := f.Lookup("config-file"); fl != nil {
		configFile = fl.Value.String()
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	overrideBool(f, "clipboard", &cfg.AllowClipboard)
	overrideInt(f, "conversation-timeout-minutes", &cfg.ConversationTimeoutMinutes)
	overrideString(f, "db-file", &cfg.DBPath)
	overrideBool(f, "follow-links", &cfg.FollowLinks)
	overrideBool(f, "full-content", &cfg.FullContent)
	overrideString(f, "log-file", &cfg.LogFile)
	overrideString(f, "log-level", &cfg.LogLevel)
	overrideString(f, "model", &cfg.Model)
	overrideString(f, "page-reader-endpoint", &cfg.PageReaderEndpoint)
	overrideString(f, "page-reader-api-key", &cfg.PageReaderAPIKey)
	overrideString(f, "provider-endpoint", &cfg.ProviderEndpoint)
	overrideString(f, "provider-api-key", &cfg.ProviderAPIKey)
	overrideBool(f, "rag", &cfg.RAG.Enabled)
	overrideString(f, "rag-endpoint", &cfg.RAG.Endpoint)
	overrideString(f, "rag-api-key", &cfg.RAG.APIKey)
	overrideString(f, "rag-answer-model", &cfg.RAG.AnswerModel)
	overrideString(f, "rag-embed-model", &cfg.RAG.EmbedModel)
	overrideString(f, "rag-doc-dir", &cfg.RAG.DocDir)
	overrideInt(f, "rag-excerpt-length", &cfg.RAG.ExcerptLength)
	overrideString(f, "rag-source-link-format", &cfg.RAG.SourceLinkFormat)
	overrideInt(f, "rag-top-k", &cfg.RAG.TopK)
	overrideString(f, "search-endpoint", &cfg.SearchEndpoint)
	overrideString(f, "search-api-key", &cfg.SearchAPIKey)
	overrideString(f, "system-role", &cfg.SystemRole)
	overrideFloat64(f, "temperature", &cfg.Temperature)
	overrideBool(f, "web-search", &cfg.WebSearch)

	return cfg, nil
}

// buildLogger creates the zap logger for one invocation. The verbose and
// quiet flags trump the configured level.
func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	if quiet {
		level = "error"
	}
	return logging.New(cfg.LogFile, level)
}

// openDB opens the conversation and chunk database at the configured or
// default location.
func openDB(cfg *config.Config) (*sqlite.DB, error) {
	path := cfg.DBPath
	if path == "" {
		path = sqlite.DefaultDBPath()
	}
	return sqlite.Open(path)
}

// buildPipeline wires the request pipeline for the effective config. With
// skipClipboard set the clipboard augmenter is left out, used when the
// clipboard content already became the prompt itself.
func buildPipeline(cfg *config.Config, db *sqlite.DB, logger *zap.Logger, skipClipboard bool) (*core.Pipeline, error) {
	store := sqlite.NewConversationStore(db)
	resolver := convo.NewResolver(store, cfg.ConversationTimeoutMinutes, cfg.SystemRole, logger)

	if cfg.RAG.Enabled {
		client, err := llm.NewClient(llm.ClientConfig{
			Endpoint:   cfg.RAG.Endpoint,
			APIKey:     cfg.RAG.APIKey,
			EmbedModel: cfg.RAG.EmbedModel,
		})
		if err != nil {
			return nil, err
		}
		retriever := rag.NewRetriever(cfg.RAG.DocDir, sqlite.NewChunkStore(db), client,
			cfg.RAG.EmbedModel, cfg.RAG.ExcerptLength, cfg.RAG.SourceLinkFormat, logger)

		return core.NewPipeline(core.Options{
			Resolver:    resolver,
			Store:       store,
			Sender:      client,
			Retriever:   retriever,
			Model:       cfg.RAG.AnswerModel,
			Temperature: float32(cfg.Temperature),
			TopK:        cfg.RAG.TopK,
			Logger:      logger,
		}), nil
	}

	client, err := llm.NewClient(llm.ClientConfig{
		Endpoint: cfg.ProviderEndpoint,
		APIKey:   cfg.ProviderAPIKey,
	})
	if err != nil {
		return nil, err
	}

	// Fixed composition order: clipboard, then web search, then links
	var augmenters []augment.Augmenter
	if cfg.AllowClipboard && !skipClipboard {
		augmenters = append(augmenters, augment.NewClipboard(augment.SystemClipboard))
	}
	if cfg.WebSearch {
		search := web.NewSearchClient(cfg.SearchEndpoint, cfg.SearchAPIKey, cfg.FullContent, logger)
		augmenters = append(augmenters, augment.NewWebSearch(search, client, cfg.Model, float32(cfg.Temperature), cfg.SystemRole, logger))
	}
	if cfg.FollowLinks {
		reader := web.NewPageReader(cfg.PageReaderEndpoint, cfg.PageReaderAPIKey, logger)
		augmenters = append(augmenters, augment.NewLinkFollow(reader, logger))
	}

	opts := core.Options{
		Resolver:    resolver,
		Store:       store,
		Sender:      client,
		Model:       cfg.Model,
		Temperature: float32(cfg.Temperature),
		Logger:      logger,
	}
	if len(augmenters) > 0 {
		opts.Augmenter = augment.NewChain(logger, augmenters...)
	}
	return core.NewPipeline(opts), nil
}

// resolvePrompt determines the prompt for this invocation. An empty
// prompt falls back to the clipboard content, reported via the second
// return so it is not also injected as extra context. With clipboard use
// disallowed the clipboard is never read and is cleared outright, so its
// content cannot reach the provider through any later path.
func resolvePrompt(args []string, allowClipboard bool, read augment.ReadFunc, clear func() error) (string, bool, error) {
	prompt := strings.TrimSpace(strings.Join(args, " "))

	if !allowClipboard {
		_ = clear()
		if prompt == "" {
			return "", false, fmt.Errorf("no prompt given and clipboard use is disabled")
		}
		return prompt, false, nil
	}

	if prompt != "" {
		return prompt, false, nil
	}

	content, err := read()
	if err != nil {
		return "", false, fmt.Errorf("no prompt given and the clipboard is unreadable: %w", err)
	}
	prompt = strings.TrimSpace(content)
	if prompt == "" {
		return "", false, fmt.Errorf("no prompt given and the clipboard is empty")
	}
	return prompt, true, nil
}

// runAsk executes one prompt request
func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	prompt, usedClipboard, err := resolvePrompt(args, cfg.AllowClipboard, augment.SystemClipboard, augment.ClearClipboard)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	pipeline, err := buildPipeline(cfg, db, logger, usedClipboard)
	if err != nil {
		return err
	}

	reply, err := pipeline.Run(cmd.Context(), prompt)
	if err != nil {
		return err
	}

	if usedClipboard {
		// The consumed content should not feed the next invocation too
		if err := augment.ClearClipboard(); err != nil {
			logger.Warn("failed to clear clipboard", zap.Error(err))
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), reply)
	return nil
}
