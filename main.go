package main

// POST /api/auth/register        - Create an account
// POST /api/auth/login           - Exchange credentials for a token
// GET  /api/sweets               - List sweets
// GET  /api/sweets/search        - Filter by name, category, price range
// GET  /api/sweets/{id}          - Fetch one sweet
// POST /api/sweets               - Create a sweet (admin)
// PUT  /api/sweets/{id}          - Partially update a sweet (admin)
// DELETE /api/sweets/{id}        - Delete a sweet (admin)
// POST /api/sweets/{id}/purchase - Buy one unit (any user)
// POST /api/sweets/{id}/restock  - Add stock (admin)

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sweet-shop/auth"
	"sweet-shop/cache"
	"sweet-shop/config"
	"sweet-shop/handler"
	"sweet-shop/service"
	"sweet-shop/store"
	"sweet-shop/telemetry"
)

// --- EMBED MIGRATIONS ---
//
//go:embed migrations.sql
var migrationSQL string

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Tracing ---
	shutdownTracing, err := telemetry.Setup(cfg.Telemetry, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	// --- Store ---
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	pg, err := store.NewPostgresStore(connectCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		return err
	}
	var st store.Store = pg
	defer st.Close()

	// --- RUN MIGRATIONS ---
	if err := pg.Migrate(ctx, migrationSQL); err != nil {
		return err
	}
	logger.Info("database migrations executed")

	// --- Cache ---
	var sweetCache cache.SweetCache = cache.Nop{}
	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		sweetCache = cache.NewRedisCache(rdb, cfg.Redis.TTL)
		logger.Info("sweet list cache enabled", "addr", cfg.Redis.Addr)
	}

	// --- Services ---
	svc := service.NewService(st, sweetCache, logger)
	var serviceInterface service.ServiceInterface = svc

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	accounts := auth.NewService(st, tokens, cfg.BCryptCost, logger)

	// --- Handlers ---
	h := handler.NewHandler(serviceInterface, accounts, tokens, st, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      telemetry.HTTPHandler(h.Router(cfg.APIPrefix, cfg.CORS), cfg.Telemetry.ServiceName),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running", "addr", srv.Addr, "api_prefix", cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, cancelShutdown := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancelShutdown()
	return srv.Shutdown(sctx)
}
