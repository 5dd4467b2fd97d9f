// Package main boots the her-chat HTTP service and wires application dependencies.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/easeaico/her-chat/internal/app"
	"github.com/easeaico/her-chat/internal/config"
	"github.com/easeaico/her-chat/internal/delivery"
	"github.com/easeaico/her-chat/internal/gateway"
	"github.com/easeaico/her-chat/internal/handler"
	"github.com/easeaico/her-chat/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)
	slog.Info("configuration loaded",
		"listen_addr", cfg.ListenAddr,
		"config_file", cfg.ConfigFile,
		"model", cfg.OpenAIModel,
		"history_limit", cfg.HistoryLimit,
		"delivery_delay", cfg.DeliveryDelay)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.AutoMigrate(ctx); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	gw := gateway.New(gateway.Options{
		APIKey:       cfg.OpenAIAPIKey,
		BaseURL:      cfg.OpenAIBaseURL,
		Model:        cfg.OpenAIModel,
		Timeout:      cfg.RequestTimeout,
		HistoryLimit: cfg.HistoryLimit,
	})

	appStore := app.New(app.Repos{
		Personas:    store.Personas,
		Sessions:    store.Sessions,
		Preferences: store.Preferences,
	}, gw, delivery.NewScheduler(cfg.DeliveryDelay))
	if err := appStore.Load(ctx); err != nil {
		log.Fatalf("failed to load application state: %v", err)
	}

	unsubscribe := appStore.Subscribe(func(event app.Event) {
		if event.Type == app.EventReplyFailed && event.Err != nil {
			slog.Warn("reply failed", "session_id", event.SessionID, "error", event.Err.Error())
		}
	})
	defer unsubscribe()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler.NewRouter(appStore, gw, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down server", "error", err.Error())
	}
	slog.Info("server shutdown complete")
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
