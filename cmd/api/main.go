package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"routecatalog.transit.hk/internal/app"
	"routecatalog.transit.hk/internal/logging"
	"routecatalog.transit.hk/internal/restapi"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := logging.NewStructuredLogger(os.Stdout, slog.LevelInfo).
		With(slog.String("env", cfg.Env))

	if err := run(cfg, logger); err != nil {
		logging.LogError(logger, "server stopped", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (app.Config, error) {
	var cfg app.Config
	var apiKeysFlag string

	fs := flag.NewFlagSet("api", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", 4000, "API server port")
	fs.StringVar(&cfg.Env, "env", "development", "Environment (development|test|production)")
	fs.StringVar(&cfg.CatalogPath, "catalog", "data_full.json", "Path to a catalog file written by catalog-builder")
	fs.IntVar(&cfg.RateLimit, "rate-limit", 100, "Requests per second per client (0 disables limiting)")
	fs.StringVar(&apiKeysFlag, "api-keys", "", "Comma separated API keys (empty disables key checks)")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	cfg.APIKeys = parseAPIKeys(apiKeysFlag)
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return cfg, fmt.Errorf("invalid port %d", cfg.Port)
	}
	return cfg, nil
}

func parseAPIKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func run(cfg app.Config, logger *slog.Logger) error {
	file, err := app.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}
	application := app.New(cfg, logger, file)
	stats := file.DataSheet.Stats()
	logging.LogOperation(logger, "catalog_loaded",
		slog.String("path", cfg.CatalogPath),
		slog.Int("routes", stats.Routes),
		slog.Int("stops", stats.Stops),
		slog.Int("stop_aliases", stats.StopAliases))

	api := restapi.NewRestAPI(application)
	defer api.Shutdown()

	handler, err := api.Handler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
