package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrJamesThe3rd/gridshare/internal/app"
	"github.com/MrJamesThe3rd/gridshare/internal/config"
	gridshareHttp "github.com/MrJamesThe3rd/gridshare/internal/http"
	analyticsHandler "github.com/MrJamesThe3rd/gridshare/internal/http/analytics"
	listingHandler "github.com/MrJamesThe3rd/gridshare/internal/http/listing"
	statementHandler "github.com/MrJamesThe3rd/gridshare/internal/http/statement"
	txHandler "github.com/MrJamesThe3rd/gridshare/internal/http/transaction"
	"github.com/MrJamesThe3rd/gridshare/internal/identity"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	if cfg.Auth.JWTSecret == "" {
		slog.Error("AUTH_JWT_SECRET is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ids := identity.FromContext{}

	a, err := app.Open(ctx, cfg, ids, logger)
	if err != nil {
		slog.Error("failed to open market", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	var (
		listingH   = listingHandler.NewHandler(a.Engine, a.Imports)
		txH        = txHandler.NewHandler(a.Engine, ids)
		analyticsH = analyticsHandler.NewHandler(a.Engine, ids)
		statementH = statementHandler.NewHandler(a.Exports, ids)
	)

	router := gridshareHttp.New(
		[]byte(cfg.Auth.JWTSecret),
		promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}),
		a.Engine.IsLoading,
		listingH, txH, analyticsH, statementH,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "name", cfg.App.Name, "addr", srv.Addr, "store", cfg.Store.Backend)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
