package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/worksheet/internal/cache"
	"github.com/pavelanni/worksheet/internal/grading"
	"github.com/pavelanni/worksheet/internal/handler"
	appI18n "github.com/pavelanni/worksheet/internal/i18n"
	"github.com/pavelanni/worksheet/internal/llm"
	"github.com/pavelanni/worksheet/internal/llm/prompts"
	"github.com/pavelanni/worksheet/internal/model"
	"github.com/pavelanni/worksheet/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "worksheet",
		Short: "Interactive worksheets with automatic answer checking",
	}

	serve := serveCmd()
	root.AddCommand(serve, importCmd(), gradeCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `worksheet --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addLogFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func addVocabularyFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSlice("extra-nouns", nil, "Extra counted nouns stripped from answers (repeatable)")
	f.StringSlice("extra-units", nil, "Extra units stripped from answers (repeatable)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP worksheet server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "worksheet.db", "SQLite database path")
	f.String("llm-url", "", "OpenAI-compatible API base URL (empty disables generation)")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.String("prompt-variant", string(prompts.PromptStandard), "Generation prompt variant (standard, challenge, support)")
	f.StringP("lang", "l", "en", "Default UI language (en, ru)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /ws)")
	f.String("redis-url", "", "Redis URL for the parsed worksheet cache (empty uses memory)")
	f.Duration("cache-ttl", 0, "Parsed worksheet cache TTL (0 keeps entries until restart)")
	f.Int64("max-upload-size", 5<<20, "Maximum worksheet upload size in bytes")
	f.StringSlice("cors-origins", nil, "Origins allowed to call the JSON API (repeatable)")
	addVocabularyFlags(cmd)
	addLogFlags(cmd)
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("WORKSHEET")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("worksheet")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/worksheet")
	v.AddConfigPath("/etc/worksheet")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func newScorer(v *viper.Viper) *grading.Scorer {
	vocab := grading.DefaultVocabulary().With(v.GetStringSlice("extra-nouns"), v.GetStringSlice("extra-units"))
	return grading.NewScorer(grading.NewNormalizer(vocab))
}

func newCache(ctx context.Context, v *viper.Viper) (cache.WorksheetCache, func(), error) {
	ttl := v.GetDuration("cache-ttl")
	redisURL := v.GetString("redis-url")
	if redisURL == "" {
		return cache.NewMemory(ttl), func() {}, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	slog.Info("using redis worksheet cache", "addr", opts.Addr, "ttl", ttl)
	return cache.NewRedis(rdb, ttl), func() { _ = rdb.Close() }, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	promptVariant := strings.ToLower(strings.TrimSpace(v.GetString("prompt-variant")))
	if !prompts.IsValidVariant(promptVariant) {
		slog.Warn("invalid prompt-variant, using standard", "variant", promptVariant)
		promptVariant = string(prompts.PromptStandard)
	}

	var gen handler.Generator
	if llmURL := v.GetString("llm-url"); llmURL != "" {
		llmClient, err := llm.New(llmURL, v.GetString("llm-key"), v.GetString("llm-model"), promptVariant)
		if err != nil {
			return fmt.Errorf("create LLM client: %w", err)
		}
		if err := llmClient.Ping(ctx); err != nil {
			return fmt.Errorf("LLM health check: %w", err)
		}
		slog.Info("LLM endpoint OK", "url", llmURL, "model", v.GetString("llm-model"))
		gen = llmClient
		if err := db.SetMetadata("prompt_variant", promptVariant); err != nil {
			return fmt.Errorf("record prompt variant: %w", err)
		}
	} else {
		slog.Info("worksheet generation disabled: no --llm-url")
	}

	wsCache, closeCache, err := newCache(ctx, v)
	if err != nil {
		return err
	}
	defer closeCache()

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	cfg := model.ServerConfig{
		BasePath:      basePath,
		PromptVariant: promptVariant,
		MaxUploadSize: v.GetInt64("max-upload-size"),
		CORSOrigins:   v.GetStringSlice("cors-origins"),
	}

	h, err := handler.New(db, gen, wsCache, newScorer(v), cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))
	r.Use(appI18n.Middleware())

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"lang", lang,
		"generation", gen != nil,
		"prompt_variant", promptVariant,
		"base_path", basePath,
	)
	return http.ListenAndServe(addr, r)
}
