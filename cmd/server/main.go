package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"storyshelf.app/assistant/common/id"
	"storyshelf.app/assistant/common/llm"
	"storyshelf.app/assistant/common/logger"
	"storyshelf.app/assistant/common/otel"
	"storyshelf.app/assistant/core/config"
	"storyshelf.app/assistant/core/db"
	httprouter "storyshelf.app/assistant/internal/http/router"
	"storyshelf.app/assistant/internal/service"
	"storyshelf.app/assistant/internal/store"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		// Logger is not set up yet
		fmt.Fprintln(os.Stderr, "failed to load config: "+err.Error())
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize otel: "+err.Error())
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "library assistant starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	redisClient := connectRedis(ctx, cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
	}

	llmClient := newLLMClient(ctx, cfg.LLM)

	stores := store.NewStores(database.Querier(), redisClient, cfg.Redis.CacheTTL)
	services := service.NewServices(stores, llmClient, cfg.LLM.MaxTokens)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	routerCfg := httprouter.RouterConfig{
		AllowedOrigin: cfg.CORS.AllowedOrigin,
		Health:        database,
	}
	if cfg.OTel.Enabled() {
		routerCfg.OTelServiceName = cfg.OTel.ServiceName
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httprouter.NewEngine(services, routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Must outlive the completion timeout so upstream failures still reach the caller.
		WriteTimeout: cfg.LLM.Timeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

// connectRedis returns nil when no redis is configured or reachable; the
// library cache is optional.
func connectRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if !cfg.Enabled() {
		slog.InfoContext(ctx, "redis disabled (no url configured), library cache off")
		return nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		slog.WarnContext(ctx, "failed to parse redis url, library cache off", "error", err)
		return nil
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		slog.WarnContext(ctx, "failed to connect to redis, library cache off", "error", err)
		_ = client.Close()
		return nil
	}
	slog.InfoContext(ctx, "redis connected", "cache_ttl", cfg.CacheTTL)
	return client
}

// newLLMClient returns nil when no model is configured; chat requests then
// fail with a configuration error instead of the server refusing to boot.
func newLLMClient(ctx context.Context, cfg config.LLMConfig) llm.Client {
	if !cfg.Enabled() {
		slog.WarnContext(ctx, "LLM_API_KEY not set, chat is disabled")
		return nil
	}

	client, err := llm.New(llm.Config{
		Provider:  cfg.Provider,
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		Timeout:   cfg.Timeout,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create llm client", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "llm client ready", "provider", cfg.Provider, "model", client.Model())
	return client
}
