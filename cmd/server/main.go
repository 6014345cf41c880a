// Package main - Entry point for the structcalc HTTP server
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"structcalc/adapters/pricetable"
	"structcalc/adapters/storage"
	"structcalc/api"
	"structcalc/core/catalog"
	"structcalc/core/workspace"
	"structcalc/internal/config"
	"structcalc/internal/logging"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "structcalc-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgFile := flag.String("config", "", "Config file")
	addr := flag.String("addr", "", "Server address (overrides config)")
	flag.Parse()

	cfg := config.Default()
	if *cfgFile != "" {
		loaded, err := config.Load(*cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		return err
	}
	defer logging.Sync()

	cat := catalog.Default()
	if cfg.Pricing.CatalogPath != "" {
		loaded, err := pricetable.LoadFile(cfg.Pricing.CatalogPath)
		if err != nil {
			return err
		}
		cat = loaded
	}

	store, err := storage.StoreFactory(storage.Backend(cfg.Workspace.Backend), map[string]string{
		"path": cfg.Workspace.Path,
		"addr": cfg.Workspace.RedisAddr,
		"db":   strconv.Itoa(cfg.Workspace.RedisDB),
		"key":  cfg.Workspace.RedisKey,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ws, err := workspace.Open(ctx, store, workspace.WithLogger(logging.Named("workspace")))
	if err != nil {
		return err
	}

	apiServer := api.NewServer(version, ws,
		api.WithCatalog(cat),
		api.WithLogger(logging.Named("api")),
	)

	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", apiServer))

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.Info("structcalc server starting",
		zap.String("version", version),
		zap.String("addr", cfg.Server.Addr),
		zap.String("backend", cfg.Workspace.Backend),
		zap.Int("catalog_types", cat.Len()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logging.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
