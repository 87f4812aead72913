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

	"github.com/passforge/passforge/internal/api"
	"github.com/passforge/passforge/internal/auth"
	"github.com/passforge/passforge/internal/campaign"
	"github.com/passforge/passforge/internal/config"
	"github.com/passforge/passforge/internal/customer"
	"github.com/passforge/passforge/internal/location"
	"github.com/passforge/passforge/internal/obs"
	"github.com/passforge/passforge/internal/pass"
	"github.com/passforge/passforge/internal/store"
	"github.com/passforge/passforge/internal/template"
	"github.com/passforge/passforge/internal/tenant"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)
	obs.Init()

	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := st.Ping(pingCtx); err != nil {
		slog.Warn("database unreachable at startup; health will report degraded", "error", err)
	}
	cancelPing()

	users := auth.NewRepository()
	tokens := auth.NewTokenService(cfg.TokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authSvc := auth.NewService(users, tokens, cfg.BcryptCost)

	router := api.NewRouter(api.RouterDeps{
		Store:      st,
		AuthSvc:    authSvc,
		Users:      users,
		Tenants:    tenant.NewRepository(),
		Templates:  template.NewRepository(),
		Customers:  customer.NewRepository(),
		Campaigns:  campaign.NewRepository(),
		Locations:  location.NewRepository(),
		Passes:     pass.NewRepository(),
		Version:    cfg.Version,
		PassTypeID: cfg.PassTypeID,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting passforge server", "port", cfg.Port, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
