package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/PradeepBhosale2005/compli-ai-linter/internal/analyze"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/api"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/auditor"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/config"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/docparse"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/llm"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/redact"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/render"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/retrieval"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/rules"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/store"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

// codeError returns an exitErr for the given code.
func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

// checkFlags holds the parsed flags for the check command.
type checkFlags struct {
	format      string
	out         string
	rulesFile   string
	temperature float64
	maxTokens   int
	failBelow   int
	offline     bool
	verbose     bool
}

func main() {
	root := &cobra.Command{
		Use:   "complilint",
		Short: "Analyze regulated documents for GxP compliance gaps",
		Long: "CompliLint checks SOPs and related regulated documents against structural\n" +
			"requirements and user-defined compliance rules, combining a deterministic\n" +
			"rule engine with an AI auditor.",
	}

	var flags checkFlags
	checkCmd := &cobra.Command{
		Use:   "check <document-file>",
		Short: "Analyze a document and produce a compliance report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), args[0], flags)
		},
	}

	f := checkCmd.Flags()
	f.StringVar(&flags.format, "format", "json", "Output format: json or md")
	f.StringVar(&flags.out, "out", "", "Write output to file instead of stdout")
	f.StringVar(&flags.rulesFile, "rules", "", "JSON rules file with additional compliance rules")
	f.Float64Var(&flags.temperature, "temperature", 0.1, "Model temperature")
	f.IntVar(&flags.maxTokens, "max-tokens", 4096, "Maximum response tokens")
	f.IntVar(&flags.failBelow, "fail-below", -1, "Exit 2 if the compliance score is below this value")
	f.BoolVar(&flags.offline, "offline", false, "Run without a model; rules requiring AI evaluation are reported as degraded")
	f.BoolVar(&flags.verbose, "verbose", false, "Enable debug logging to stderr")

	var configPath string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	serveCmd.Flags().StringVar(&configPath, "config", "", "TOML configuration file path")

	var kbConfigPath string
	kbCmd := &cobra.Command{
		Use:   "kb index <file>...",
		Short: "Index reference documents into the Redis knowledge base",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] != "index" {
				return codeError(3, "unknown kb subcommand %q: expected index", args[0])
			}
			return runKBIndex(cmd.Context(), kbConfigPath, args[1:])
		},
	}
	kbCmd.Flags().StringVar(&kbConfigPath, "config", "", "TOML configuration file path")

	var tokenSubject string
	var tokenTTL time.Duration
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for API access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("COMPLILINT_JWT_SECRET")
			if secret == "" {
				return codeError(3, "COMPLILINT_JWT_SECRET environment variable not set")
			}
			token, err := api.IssueToken(secret, tokenSubject, tokenTTL)
			if err != nil {
				return codeError(1, "issuing token: %s", err)
			}
			fmt.Println(token)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "cli", "Token subject claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")

	root.AddCommand(checkCmd, serveCmd, kbCmd, tokenCmd)

	if err := root.ExecuteContext(context.Background()); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		// cobra already printed the error
		os.Exit(1)
	}
}

func runCheck(ctx context.Context, docPath string, flags checkFlags) error {
	if err := validateFlags(flags); err != nil {
		return codeError(3, "invalid flags: %s", err)
	}
	logger := newLogger(flags.verbose)

	// Model resolution; --offline skips it entirely.
	var aud *auditor.Auditor
	if !flags.offline {
		modelStr := os.Getenv("COMPLILINT_MODEL")
		if modelStr == "" {
			modelStr = "openai:gpt-4o"
			fmt.Fprintf(os.Stderr, "WARN: COMPLILINT_MODEL not set, using default %s\n", modelStr)
		}
		provider, err := llm.NewProvider(modelStr)
		if err != nil {
			return codeError(4, "creating model provider: %s", err)
		}
		aud = auditor.New(provider, nil, logger, auditor.Config{
			Temperature: flags.temperature,
			MaxTokens:   flags.maxTokens,
		})
	}

	logger.Debug("loading document", "path", docPath)
	raw, err := os.ReadFile(docPath)
	if err != nil {
		return codeError(3, "reading document: %s", err)
	}

	// Redact before parsing so secrets never reach the model. Redaction
	// preserves line counts, so section positions are unaffected.
	doc, err := docparse.Parse(docPath, docparse.TypeFromExtension(docPath), redact.Redact(string(raw)))
	if err != nil {
		return codeError(3, "parsing document: %s", err)
	}

	globalRules := rules.Builtin()
	if flags.rulesFile != "" {
		logger.Debug("loading rules file", "path", flags.rulesFile)
		seeded, err := rules.LoadSeed(flags.rulesFile)
		if err != nil {
			return codeError(3, "loading rules file: %s", err)
		}
		globalRules = append(globalRules, seeded...)
	}

	result, err := analyze.New(aud, logger).Analyze(ctx, doc, globalRules, nil)
	if err != nil {
		return codeError(3, "analysis failed: %s", err)
	}

	renderer, err := render.NewRenderer(flags.format)
	if err != nil {
		return codeError(3, "invalid format: %s", err)
	}
	outputBytes, err := renderer.Render(result)
	if err != nil {
		return codeError(3, "rendering output: %s", err)
	}

	if flags.out != "" {
		if err := os.WriteFile(flags.out, outputBytes, 0o644); err != nil {
			return codeError(3, "writing output file: %s", err)
		}
	} else {
		if _, err := os.Stdout.Write(outputBytes); err != nil {
			return codeError(3, "writing output: %s", err)
		}
		if len(outputBytes) > 0 && outputBytes[len(outputBytes)-1] != '\n' {
			fmt.Fprintln(os.Stdout)
		}
	}

	if flags.failBelow >= 0 && result.Score.Score < flags.failBelow {
		return codeError(2, "compliance score %d is below --fail-below threshold %d",
			result.Score.Score, flags.failBelow)
	}
	return nil
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return codeError(3, "loading config: %s", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.Data.Dir)
	if err != nil {
		return codeError(3, "opening data store: %s", err)
	}
	defer st.Close()
	logger.Info("data store ready", "path", st.Path())

	if cfg.Data.RulesFile != "" {
		watcher := rules.NewSeedWatcher(cfg.Data.RulesFile, st.Rules(), logger)
		if err := watcher.Start(ctx); err != nil {
			return codeError(3, "starting rules file watcher: %s", err)
		}
	}

	kbase, err := newRetriever(cfg)
	if err != nil {
		return codeError(3, "configuring knowledge base: %s", err)
	}
	// A disabled knowledge base must stay a nil interface.
	var retriever retrieval.Retriever
	if kbase != nil {
		retriever = kbase
	}

	var aud *auditor.Auditor
	if cfg.Model.Provider != "" {
		provider, err := llm.NewProvider(cfg.Model.Provider)
		if err != nil {
			// The server still starts; analyses run in degraded mode.
			logger.Warn("model provider unavailable, analyses will run offline", "error", err)
		} else {
			aud = auditor.New(provider, retriever, logger, auditor.Config{
				Temperature:       cfg.Model.Temperature,
				MaxTokens:         cfg.Model.MaxTokens,
				RequestsPerSecond: cfg.Model.RequestsPerSecond,
				Concurrency:       cfg.Model.Concurrency,
				ChunkBudget:       cfg.Model.ChunkBudget,
				TopK:              cfg.Model.TopK,
			})
		}
	}

	var kb api.Pinger
	if kbase != nil {
		kb = kbase
	}
	server := api.NewServer(api.Config{
		Host:      cfg.Server.Host,
		Port:      cfg.Server.Port,
		JWTSecret: cfg.Server.JWTSecret,
		Version:   version,
	}, analyze.New(aud, logger), st.Rules(), st.History(), kb, logger)

	if err := server.Start(ctx); err != nil {
		return codeError(1, "server error: %s", err)
	}
	logger.Info("server stopped")
	return nil
}

func runKBIndex(ctx context.Context, configPath string, paths []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return codeError(3, "loading config: %s", err)
	}
	kb, err := newRetriever(cfg)
	if err != nil {
		return codeError(3, "configuring knowledge base: %s", err)
	}
	if kb == nil {
		return codeError(3, "knowledge base is not configured: set redis.url and embedding.api_key")
	}

	// Each section of each reference document becomes one retrievable
	// passage; whole documents are too coarse to ground a chunk prompt.
	var texts []string
	for _, path := range paths {
		doc, err := docparse.ParseFile(path)
		if err != nil {
			return codeError(3, "parsing %s: %s", path, err)
		}
		for _, sec := range doc.Sections {
			text := sec.Text
			if sec.Heading != "" {
				text = sec.Heading + "\n" + text
			}
			texts = append(texts, text)
		}
	}

	if err := kb.Index(ctx, texts); err != nil {
		return codeError(1, "indexing passages: %s", err)
	}
	total, err := kb.Count(ctx)
	if err != nil {
		return codeError(1, "counting passages: %s", err)
	}
	fmt.Printf("Indexed %d passage(s); knowledge base now holds %d.\n", len(texts), total)
	return nil
}

// newRetriever builds the Redis knowledge base when both Redis and an
// embedding key are configured; otherwise retrieval is disabled.
func newRetriever(cfg config.Config) (*retrieval.KnowledgeBase, error) {
	if cfg.Redis.URL == "" || cfg.Embedding.APIKey == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	embedder, err := retrieval.NewOpenAIEmbedder(cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.BaseURL)
	if err != nil {
		return nil, err
	}
	return retrieval.NewKnowledgeBase(redis.NewClient(opts), embedder), nil
}

// validateFlags returns an error if any flag value is invalid.
func validateFlags(flags checkFlags) error {
	switch flags.format {
	case "json", "md":
	default:
		return fmt.Errorf("--format must be json or md, got %q", flags.format)
	}
	if flags.temperature < 0 || flags.temperature > 2 {
		return fmt.Errorf("--temperature must be between 0.0 and 2.0, got %g", flags.temperature)
	}
	if flags.maxTokens <= 0 {
		return fmt.Errorf("--max-tokens must be > 0, got %d", flags.maxTokens)
	}
	if flags.failBelow > 100 {
		return fmt.Errorf("--fail-below must be between 0 and 100, got %d", flags.failBelow)
	}
	return nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
