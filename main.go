// paintbot turns chat paint commands into Stable Diffusion requests: it
// compiles and translates prompts, enforces concurrency limits, drives the
// backend, and assembles the reply. The daemon fronts the pipeline with an
// HTTP gateway and records every generation in sqlite.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"paintbot/admission"
	"paintbot/bot"
	"paintbot/core"
	"paintbot/db"
	"paintbot/gateway"
	"paintbot/imagefetch"
	"paintbot/logging"
	"paintbot/metrics"
	"paintbot/prompt"
	"paintbot/reply"
	"paintbot/sdapi"
	"paintbot/translate"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Use fmt here since the logger isn't initialized yet
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	if handled := HandleServiceCommand(os.Args[1:]); handled {
		return
	}
	if ranAsService, err := RunAsService(); ranAsService {
		if err != nil {
			fmt.Printf("Service error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := runDaemon(ctx); err != nil {
		fmt.Printf("Fatal: %v\n", err)
		os.Exit(1)
	}
}

// runDaemon wires the pipeline and blocks until ctx is cancelled. It is the
// shared entry point for interactive and service execution.
func runDaemon(ctx context.Context) error {
	isDevelopment := core.ParseBoolEnv("PAINTBOT_DEV_MODE", false)
	configPath := core.GetEnvOrDefault("PAINTBOT_CONFIG", "paintbot.yaml")

	cfg, err := core.LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(isDevelopment, filepath.Join(cfg.DataDir, "paintbot.log"))
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	if !runStartupValidation(cfg, os.Stdout) {
		return fmt.Errorf("startup validation failed")
	}

	logger.Info("Configuration loaded",
		zap.String("endpoint", cfg.Endpoint),
		zap.Any("headers", logging.RedactHeaders(cfg.Headers)),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
		zap.Duration("request_timeout", cfg.RequestTimeout()),
		zap.String("language", cfg.Language),
		zap.String("output", cfg.Output),
		zap.Bool("translator", cfg.Translator),
		zap.Bool("censor", cfg.Censor),
		zap.Duration("recall_timeout", cfg.RecallTimeout()),
		zap.Bool("dev_mode", isDevelopment),
	)

	conn, err := db.Open(db.DefaultConnectionConfig(filepath.Join(cfg.DataDir, "paintbot.db")))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer conn.Close()
	if err := db.Migrate(conn); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	repo := db.NewRepository(conn)

	if cfg.HistoryRetentionDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -cfg.HistoryRetentionDays)
		pruned, err := repo.PruneOlderThan(ctx, cutoff)
		if err != nil {
			logger.Warn("History prune failed", zap.Error(err))
		} else if pruned > 0 {
			logger.Info("Pruned old history", zap.Int64("rows", pruned))
		}
	}

	rules := prompt.NewRuleSet(cfg.Forbidden)
	watcher, err := core.NewConfigWatcher(configPath, func(next core.Config) {
		rules.Reload(next.Forbidden)
	}, logger)
	if err != nil {
		logger.Warn("Config hot-reload unavailable", zap.Error(err))
	} else {
		defer watcher.Close()
	}

	client, err := sdapi.NewClient(sdapi.ClientConfig{
		Endpoint: cfg.Endpoint,
		Headers:  cfg.Headers,
		Timeout:  cfg.RequestTimeout(),
	}, logger)
	if err != nil {
		return fmt.Errorf("creating generation client: %w", err)
	}

	var rewriter bot.Rewriter
	if cfg.Translator {
		translator, err := translate.NewOpenAITranslator(translate.OpenAITranslatorConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: cfg.TranslatorBaseURL,
			Model:   cfg.TranslatorModel,
		})
		if err != nil {
			logger.Warn("Translator disabled", zap.Error(err))
		} else {
			// Prompts are rewritten into English for the backend
			// regardless of the reply language.
			rewriter = translate.NewAdapter(translator, "en", logger)
		}
	}

	mode, err := reply.ParseOutputMode(cfg.Output)
	if err != nil {
		return err
	}

	store := metrics.NewStore(time.Now())
	paintBot := bot.New(bot.Config{
		MaxConcurrency: cfg.MaxConcurrency,
		Language:       cfg.Language,
		BasePrompt:     cfg.BasePrompt,
		BaseNegative:   cfg.NegativePrompt,
		DefaultWidth:   cfg.DefaultWidth,
		DefaultHeight:  cfg.DefaultHeight,
		Scale:          cfg.Scale,
		Strength:       cfg.Strength,
		ModelLabel:     cfg.ModelLabel,
		RecallDelay:    cfg.RecallTimeout(),
	}, bot.Deps{
		Rules:     rules,
		Registry:  admission.NewRegistry(),
		Rewriter:  rewriter,
		Fetcher:   imagefetch.NewFetcher(imagefetch.FetcherConfig{}, logger),
		Generator: client,
		Assembler: reply.NewAssembler(mode, cfg.Censor),
		Metrics:   store,
		History:   repo,
		Logger:    logger,
	})

	server := gateway.NewServer(gateway.ServerConfig{
		Host:         cfg.GatewayHost,
		Port:         cfg.GatewayPort,
		WriteTimeout: cfg.RequestTimeout() + 30*time.Second,
	}, paintBot, store, repo, logger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	if err := server.Shutdown(context.Background()); err != nil {
		logger.Warn("Gateway shutdown failed", zap.Error(err))
	}
	return nil
}
