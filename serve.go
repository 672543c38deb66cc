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

	"github.com/spf13/cobra"

	"exercises-server/api"
	"exercises-server/auth"
	"exercises-server/exchange"
	"exercises-server/ratecache"
	"exercises-server/storage"
	"exercises-server/ws"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the memory game websocket and the currency API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port > 0 {
				cfg.HTTPPort = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "HTTP port (overrides config)")
	return cmd
}

func serve(ctx context.Context) error {
	slog.Info("configuration", "tag", "main",
		"flip_ms", cfg.FlipDurationMS,
		"deck", len(cfg.Deck),
		"port", cfg.HTTPPort,
		"exchange_api", cfg.ExchangeAPIURL,
		"rate_cache", cfg.RedisAddr != "",
		"rate_history", cfg.DatabaseURL != "")

	client, store, closeDeps, err := newExchangeClient(ctx)
	if err != nil {
		return err
	}
	defer closeDeps()

	var history api.RateLister
	if store != nil {
		history = store
	}

	verifier := auth.NewVerifier(cfg.AuthBaseURL)
	if verifier.Enabled() {
		slog.Info("websocket auth configured", "tag", "auth", "base_url", cfg.AuthBaseURL)
	} else {
		slog.Info("AUTH_BASE_URL is not set; websocket clients play anonymously", "tag", "auth")
	}

	hubCtx, cancelHub := context.WithCancel(context.Background())
	defer cancelHub()
	hub := ws.NewHub(cfg, verifier)
	go hub.Run(hubCtx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           api.NewRouter(api.NewHandler(client, history), hub.ServeWS),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "tag", "main", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down", "tag", "main")
	cancelHub()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newExchangeClient builds the exchange client with whichever of the Redis cache and
// Postgres history are configured. store is nil without a database URL. The returned
// func releases both.
func newExchangeClient(ctx context.Context) (client *exchange.Client, store *storage.Store, closeDeps func(), err error) {
	client = exchange.NewClient(cfg.ExchangeAPIURL,
		time.Duration(cfg.ExchangeTimeoutSec)*time.Second,
		cfg.ExchangeRequestsPerSecond)

	cache, err := ratecache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB, time.Duration(cfg.RateCacheTTLSec)*time.Second)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connecting to Redis: %w", err)
	}
	if cache != nil {
		client.Cache = cache
	}

	store, err = storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		cache.Close()
		return nil, nil, nil, fmt.Errorf("connecting to Postgres: %w", err)
	}
	if store != nil {
		client.History = store
	}

	return client, store, func() {
		store.Close()
		if err := cache.Close(); err != nil {
			slog.Warn("closing Redis", "tag", "cache", "err", err)
		}
	}, nil
}
