package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"tweet-monitor/internal/adapters/cache"
	"tweet-monitor/internal/adapters/publisher"
	"tweet-monitor/internal/adapters/store"
	"tweet-monitor/internal/adapters/web"
	"tweet-monitor/internal/config"
	"tweet-monitor/internal/usecases"
	"tweet-monitor/pkg/log"
	"tweet-monitor/pkg/log/transporters"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	// Bootstrap logger so configuration warnings are visible
	bootstrap := log.New(log.Info, transporters.NewStdout())
	log.SetDefault(bootstrap)

	cfg, err := config.Load(configPath())
	if err != nil {
		log.GlobalError("failed to load configuration", "error", err)
		bootstrap.Close()
		return 1
	}
	bootstrap.Close()

	logger := newLogger(cfg)
	log.SetDefault(logger)
	defer logger.Close()

	if !cfg.APIKeyConfigured() {
		log.GlobalWarn("TWITTER_API_KEY not set: webhook authentication is disabled, every request will be accepted")
	}

	// Downstream processors
	processors, stats := buildProcessors(cfg)

	var seen usecases.SeenCache
	if cfg.Processing.DedupTTL > 0 {
		seenCache := cache.NewSeenCache(cfg.Processing.DedupTTL)
		defer seenCache.Close()
		seen = seenCache
	}

	dispatcher := usecases.NewDispatcher(cfg.Processing.Timeout, seen, processors...)

	// Use cases and handlers
	auth := usecases.NewAuthenticator(cfg.Auth.APIKey)
	webhookUC := usecases.NewProcessWebhookUseCase(dispatcher)
	statsUC := usecases.NewGetStatsUseCase(stats)
	handlers := web.NewHandlers(cfg.Server.ServiceName, auth, webhookUC, statsUC)

	app := web.NewApp(web.AppConfig{
		Name:      cfg.Server.ServiceName,
		BodyLimit: cfg.Server.BodyLimit,
	}, handlers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.GlobalInfo("starting webhook monitor",
			"addr", cfg.Addr(),
			"service", cfg.Server.ServiceName,
			"api_key_configured", cfg.APIKeyConfigured(),
			"processors", dispatcher.Processors(),
		)
		log.GlobalInfo("endpoints: POST /webhook, GET /health, GET /stats, GET /metrics, GET /")
		errCh <- app.Listen(cfg.Addr())
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		log.GlobalInfo("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.GlobalError("server stopped", "error", err)
			exitCode = 1
		}
	}

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.GlobalError("server shutdown failed", "error", err)
	}
	// Waits for in-flight batches before closing processors
	if err := dispatcher.Close(); err != nil {
		exitCode = 1
	}

	log.GlobalInfo("webhook monitor stopped")
	return exitCode
}

func configPath() string {
	if p := os.Getenv("CONFIG_FILE"); p != "" {
		return p
	}
	return "config/monitor.yaml"
}

// newLogger builds the process logger from configuration.
func newLogger(cfg *config.Config) *log.Logger {
	level, err := log.ParseLevel(cfg.Logging.Level)
	outputs := []log.Transporter{transporters.NewStdout()}

	var fileErr error
	if cfg.Logging.File != "" {
		file, ferr := transporters.NewFile(cfg.Logging.File)
		if ferr == nil {
			outputs = append(outputs, file)
		}
		fileErr = ferr
	}

	logger := log.New(level, outputs...)
	if err != nil {
		logger.Warn("invalid LOG_LEVEL, using info", "value", cfg.Logging.Level)
	}
	if fileErr != nil {
		logger.Warn("log file unavailable, logging to stdout only", "file", cfg.Logging.File, "error", fileErr)
	}
	return logger
}

// buildProcessors wires the configured downstream processors and picks
// the stats source: file store, then Redis, then an in-memory counter.
func buildProcessors(cfg *config.Config) ([]usecases.TweetProcessor, usecases.StatsSource) {
	var (
		processors []usecases.TweetProcessor
		stats      usecases.StatsSource
	)

	if cfg.Storage.Dir != "" {
		fileStore, err := store.NewFileStore(cfg.Storage.Dir)
		if err != nil {
			log.GlobalError("file store disabled", "dir", cfg.Storage.Dir, "error", err)
		} else {
			processors = append(processors, fileStore)
			stats = fileStore
		}
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		redisStore := store.NewRedisStore(client, cfg.Redis.KeyPrefix, cfg.Redis.Retention)

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisStore.Ping(ctx); err != nil {
			log.GlobalWarn("redis not reachable yet, store will retry per batch", "addr", cfg.Redis.Addr, "error", err)
		}
		cancel()

		processors = append(processors, redisStore)
		if stats == nil {
			stats = redisStore
		}
	}

	if cfg.NATS.URL != "" {
		natsCfg := publisher.DefaultConfig()
		natsCfg.URL = cfg.NATS.URL
		natsCfg.Subject = cfg.NATS.Subject
		natsCfg.Name = cfg.Server.ServiceName
		natsCfg.Token = cfg.NATS.Token

		pub, err := publisher.Connect(natsCfg)
		if err != nil {
			log.GlobalError("nats publisher disabled", "url", cfg.NATS.URL, "error", err)
		} else {
			processors = append(processors, pub)
		}
	}

	if stats == nil {
		counter := store.NewCounter()
		processors = append(processors, counter)
		stats = counter
	}

	return processors, stats
}
