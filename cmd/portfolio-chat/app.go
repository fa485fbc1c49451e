package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"portfolio.dev/chat-assistant/internal/config"
	"portfolio.dev/chat-assistant/internal/core"
	"portfolio.dev/chat-assistant/internal/logging"
	"portfolio.dev/chat-assistant/internal/observability"
	"portfolio.dev/chat-assistant/internal/profile"
	"portfolio.dev/chat-assistant/internal/store"
)

// app holds the wired services shared by serve and ask.
type app struct {
	cfg         *config.Config
	logger      *zap.Logger
	profile     *profile.Profile
	store       store.Store
	llm         *core.LLMService
	metrics     *observability.Metrics
	chatService *core.ChatService
}

// loadConfig reads configuration and builds the logger. A missing Gemini key
// is reported but not fatal.
func loadConfig(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(configFile)
	if err != nil && !config.IsMissingAPIKey(err) {
		return nil, nil, err
	}

	logger, lerr := logging.New(cfg.LogLevel)
	if lerr != nil {
		return nil, nil, lerr
	}
	if err != nil {
		logger.Error("GEMINI_API_KEY is not set; free-text questions will be answered with an apology", zap.Error(err))
	}
	return cfg, logger, nil
}

func loadProfile(path string) (*profile.Profile, error) {
	if path == "" {
		return profile.Default(), nil
	}
	return profile.Load(path)
}

func openStore(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return store.NewSQLiteStore(cfg.DatabaseURL)
	case "memory", "":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	p, err := loadProfile(cfg.ProfilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	st, err := openStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	llm, err := core.NewLLMService(ctx, cfg.Gemini, p, logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	var completer core.Completer = llm
	if cfg.Breaker.Enabled {
		completer = core.NewBreakerCompleter(llm, core.BreakerConfig{
			Name:        "gemini",
			MaxFailures: cfg.Breaker.MaxFailures,
			Cooldown:    cfg.Breaker.Cooldown,
		}, logger)
	}

	metrics := observability.NewMetrics("portfolio_chat")
	responder := core.NewResponder(completer, p, cfg.Chat.HistoryWindow, cfg.Chat.CardDelay, logger, metrics)

	logger.Info("Services initialized",
		zap.String("profile", p.Name),
		zap.String("store", cfg.Store.Driver),
		zap.String("model", cfg.Gemini.Model),
		zap.Bool("breaker", cfg.Breaker.Enabled))

	return &app{
		cfg:         cfg,
		logger:      logger,
		profile:     p,
		store:       st,
		llm:         llm,
		metrics:     metrics,
		chatService: core.NewChatService(st, responder, p, logger),
	}, nil
}

func (a *app) Close() {
	a.llm.Close()
	if err := a.store.Close(); err != nil {
		a.logger.Warn("Error closing store", zap.Error(err))
	}
	a.logger.Sync()
}
