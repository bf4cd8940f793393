// Package main is the entry point for the fleet dispatch API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/akorchak/fleet-dispatch/internal/config"
	"github.com/akorchak/fleet-dispatch/internal/geo"
	"github.com/akorchak/fleet-dispatch/internal/handler"
	"github.com/akorchak/fleet-dispatch/internal/middleware"
	"github.com/akorchak/fleet-dispatch/internal/ratelimit"
	"github.com/akorchak/fleet-dispatch/internal/repo"
	"github.com/akorchak/fleet-dispatch/internal/service"
	"github.com/akorchak/fleet-dispatch/internal/token"
	"github.com/akorchak/fleet-dispatch/migrations"
)

// maxBodySize caps request bodies. The largest legitimate payload is a batch
// invite with a few hundred ids, well under this.
const maxBodySize = 1 << 20 // 1 MiB

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// JSON handler writes machine-readable output suitable for log aggregators.
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately — the first query does.
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	// --- Migrations -------------------------------------------------------
	// goose runs the embedded SQL migrations through a database/sql handle
	// over the same pool.
	if err := runMigrations(pool); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// --- Redis ------------------------------------------------------------
	channel, err := geo.Dial(context.Background(), cfg.RedisURL)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer channel.Close()
	slog.Info("redis connection established")

	// --- Services ---------------------------------------------------------
	users := repo.NewUserRepo(pool)
	fleets := repo.NewFleetRepo(pool)
	memberships := repo.NewMembershipRepo(pool)
	trips := repo.NewTripRepo(pool)

	tokens := token.NewService(cfg.JWTSecret, token.DefaultTTL)
	limiter := ratelimit.New(cfg.PositionMinInterval)

	authService := service.NewAuthService(users, tokens)
	fleetService := service.NewFleetService(fleets, channel)
	membershipService := service.NewMembershipService(fleets, memberships, users, channel)
	tripService := service.NewTripService(trips, fleets, memberships, channel)
	positionService := service.NewPositionService(trips, limiter, channel)
	exportService := service.NewExportService(trips, fleets, users)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger →
	// Recoverer → CORS → body cap. The authenticator mounts inside the /api
	// subtree, so health and auth stay reachable without a token.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(maxBodySize))

	server := handler.NewServer(authService, fleetService, membershipService, tripService, positionService, exportService)
	r.Mount("/api", server.Routes(middleware.NewAuthenticator(tokens, users)))

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// runMigrations applies any pending embedded migrations at startup.
func runMigrations(pool *pgxpool.Pool) error {
	db := sql.OpenDB(stdlib.GetPoolConnector(pool))
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return err
	}
	results, err := provider.Up(context.Background())
	if err != nil {
		return err
	}
	for _, result := range results {
		slog.Info("applied migration", "source", result.Source.Path)
	}
	return nil
}
