package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/ericfisherdev/autoreview/internal/adapter/driven/github"
	"github.com/ericfisherdev/autoreview/internal/adapter/driven/offline"
	"github.com/ericfisherdev/autoreview/internal/adapter/driven/staging"
	"github.com/ericfisherdev/autoreview/internal/adapter/driven/yandex"
	httphandler "github.com/ericfisherdev/autoreview/internal/adapter/driving/http"
	"github.com/ericfisherdev/autoreview/internal/application"
	"github.com/ericfisherdev/autoreview/internal/config"
	"github.com/ericfisherdev/autoreview/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"staging_dir", cfg.StagingDir,
		"provider_timeout", cfg.ProviderTimeout,
		"online_available", cfg.HasProviderCredentials(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Wire driven adapters.
	stager := staging.New(cfg.StagingDir, cfg.MaxArchiveEntries, cfg.MaxExtractBytes)
	offlineGen := offline.New()

	var onlineGen driven.Generator
	if cfg.HasProviderCredentials() {
		onlineGen = yandex.NewClient(cfg.ProviderEndpoint, cfg.ProviderAPIKey, cfg.ProviderFolderID, cfg.ProviderModel)
		slog.Info("online provider configured", "model", cfg.ProviderModel)
	} else {
		slog.Info("no provider credentials configured, all reviews will run offline")
	}

	var fetcher driven.RepoFetcher = githubadapter.NewClient(cfg.GitHubToken, cfg.MaxUploadBytes)

	// 4. Create review service and HTTP handler.
	reviewSvc := application.NewReviewService(
		stager,
		onlineGen,
		offlineGen,
		fetcher,
		cfg.ProviderTimeout,
		cfg.MaxUploadBytes,
		cfg.HasProviderCredentials,
		logger,
	)

	apiHandler := httphandler.NewHandler(reviewSvc, cfg.MaxUploadBytes, logger)
	handler := httphandler.NewServeMux(apiHandler, logger)

	// Write timeout covers two provider attempts plus response assembly.
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      2*cfg.ProviderTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	// 5. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
