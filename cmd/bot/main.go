package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/user/codehubnotify/internal/config"
	"github.com/user/codehubnotify/internal/github"
	"github.com/user/codehubnotify/internal/notifier"
	"github.com/user/codehubnotify/internal/storage"
	"github.com/user/codehubnotify/internal/telegram"
	"github.com/user/codehubnotify/pkg/logger"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		// Basic logger for error output
		_ = logger.Init("info", "")
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	if err := logger.Init(cfg.Log.Level, cfg.Log.File); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	logger.Info().
		Str("telegram_mode", cfg.Telegram.Mode).
		Str("storage", cfg.Storage.Driver).
		Msg("Starting CodeHub Notify bot")

	// Initialize storage
	backend, closeBackend := openBackend(cfg)
	defer closeBackend()

	subs := storage.NewSubscriptionStore(backend)
	pending := storage.NewPendingStore(backend)

	// Initialize Telegram bot
	api, err := telegram.NewAPI(cfg.Telegram.Token, cfg.Telegram.Debug)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize Telegram bot")
	}
	sender := telegram.NewSender(api, cfg.Telegram.MaxMessageLength)

	// Command interpreter, with optional repository validation
	opts := []telegram.InterpreterOption{
		telegram.WithWebhookSecret(cfg.GitHub.WebhookSecret),
		telegram.WithBotUsername(api.Self.UserName),
	}
	if cfg.GitHub.ValidateRepos {
		opts = append(opts, telegram.WithRepoValidator(github.NewClient(cfg.GitHub.Token)))
		logger.Info().Msg("Repository validation enabled")
	}
	interpreter := telegram.NewInterpreter(subs, pending, cfg.GitHubWebhookURL(), opts...)
	bot := telegram.NewBot(api, interpreter, sender)

	// Create notifier
	notify := notifier.NewNotifier(subs, github.NewTranslator(), sender, cfg.Delivery.Workers)

	// GitHub webhook handler
	if cfg.GitHub.WebhookSecret == "" {
		logger.Warn().Msg("github.webhook_secret is empty, webhook signatures will not be verified")
	}
	webhookHandler := github.NewWebhookHandler(github.NewHMACVerifier(cfg.GitHub.WebhookSecret), notify)

	// Set up HTTP router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// GitHub webhook endpoints
	for _, path := range []string{"/github", "/webhook", "/webhook/github"} {
		r.Post(path, webhookHandler.ServeHTTP)
	}
	logger.Info().Str("payload_url", cfg.GitHubWebhookURL()).Msg("GitHub webhook endpoint enabled")

	// Telegram updates endpoint (webhook mode only)
	if cfg.Telegram.Mode == config.TelegramModeWebhook {
		r.Post(cfg.TelegramWebhookPath(), bot.ServeHTTP)
	}

	// Start HTTP server
	server := &http.Server{
		Addr:    cfg.ServerAddress(),
		Handler: r,
	}

	httpLog := logger.WithField("component", "http")
	go func() {
		httpLog.Info().Str("address", cfg.ServerAddress()).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			httpLog.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Start receiving Telegram updates
	switch cfg.Telegram.Mode {
	case config.TelegramModeWebhook:
		if err := bot.RegisterWebhook(cfg.TelegramWebhookURL()); err != nil {
			logger.Fatal().Err(err).Msg("Failed to register Telegram webhook")
		}
	default:
		if err := bot.Start(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to start Telegram polling")
		}
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("Shutting down...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Stop Telegram bot
	bot.Stop()

	logger.Info().Msg("Shutdown complete")
}

// openBackend builds the persistence backend selected by storage.driver.
func openBackend(cfg *config.Config) (storage.Backend, func()) {
	switch cfg.Storage.Driver {
	case config.StorageDriverSQLite:
		db, err := storage.NewDatabase(cfg.Storage.Path)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize database")
		}
		logger.Info().Str("path", cfg.Storage.Path).Msg("Database initialized")
		return storage.NewSQLiteBackend(db), func() { db.Close() }
	default:
		backend, err := storage.NewFileBackend(cfg.Storage.Dir)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize file storage")
		}
		logger.Info().Str("dir", cfg.Storage.Dir).Msg("File storage initialized")
		return backend, func() {}
	}
}
