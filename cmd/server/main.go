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

	"github.com/sloonz/cfeedparser/app/api"
	"github.com/sloonz/cfeedparser/app/cfg"
	"github.com/sloonz/cfeedparser/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		if errors.Is(err, cfg.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	cfg.SetupLogging(appCfg.Debug)

	slog.Info("Starting cfeedparser server", "version", appCfg.Version)

	parser, cache, err := tasks.BuildParser(appCfg)
	if err != nil {
		slog.Error("Failed to build parser", "error", err)
		os.Exit(1)
	}
	if cache != nil {
		defer cache.Close()
	}

	slog.Info("Starting parse workers", "count", appCfg.WorkerCount, "timeout", appCfg.ParseTimeout.String())
	pool := tasks.NewPoolFromConfig(appCfg)
	pool.Start()
	defer pool.Stop()

	handler := api.NewHandler(api.Options{
		Parser:  parser,
		Pool:    pool,
		Store:   cache,
		MaxBody: appCfg.MaxBodyBytes,
		Version: appCfg.Version,
	})
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port, "auth", appCfg.APIAccessKey != "")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}
}
