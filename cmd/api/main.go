package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aiemr/emr-console/internal/api"
	"github.com/aiemr/emr-console/internal/api/metrics"
	"github.com/aiemr/emr-console/internal/core/ports"
	"github.com/aiemr/emr-console/internal/core/service"
	"github.com/aiemr/emr-console/internal/infrastructure/backend"
	mongodb "github.com/aiemr/emr-console/internal/infrastructure/db/mongo"
	redisdb "github.com/aiemr/emr-console/internal/infrastructure/db/redis"
	"github.com/aiemr/emr-console/internal/pkg/config"
	"github.com/aiemr/emr-console/pkg/logger"

	driver "go.mongodb.org/mongo-driver/mongo"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.Development()})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Session vault (always Redis-backed) ---
	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("connecting redis")
	}
	defer rdb.Close()
	vault := redisdb.NewSessionVault(rdb)

	// --- Auth backend, selected once at construction ---
	var authBackend ports.Backend
	var db *driver.Database
	switch cfg.Auth.Mode {
	case "simulated":
		client, database, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			log.Fatal().Err(err).Msg("connecting mongo")
		}
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}()
		db = database

		directory := mongodb.NewUserRepository(database)
		if cfg.Development() && cfg.Auth.SeedDemoUsers {
			if err := backend.SeedDemoUsers(ctx, directory, log); err != nil {
				log.Fatal().Err(err).Msg("seeding demo accounts")
			}
		}
		authBackend = backend.NewSimulated(directory, backend.SimulatedOptions{
			JWTSecret: cfg.Auth.JWTSecret,
			TokenTTL:  cfg.Auth.TokenTTL,
			Latency:   cfg.Auth.Latency,
		}, log)
		log.Info().Msg("auth backend: local simulation")
	case "http":
		authBackend = backend.NewHTTPBackend(cfg.Auth.BackendURL, nil, log)
		log.Info().Str("url", cfg.Auth.BackendURL).Msg("auth backend: http")
	default:
		log.Fatal().Str("mode", cfg.Auth.Mode).Msg("unknown auth mode")
	}

	// --- Session core ---
	auth := service.NewAuthenticator(authBackend, cfg.Auth.MinSecretLen, log)
	store := service.NewSessionStore(auth, vault, log)
	if store.Rehydrate(ctx) {
		metrics.SessionRehydrationsTotal.WithLabelValues("restored").Inc()
	} else {
		metrics.SessionRehydrationsTotal.WithLabelValues("absent").Inc()
	}
	guard := service.NewGuard(store, log)

	e := api.NewRouter(api.Deps{
		Store:     store,
		Auth:      auth,
		Guard:     guard,
		JWTSecret: cfg.Auth.JWTSecret,
		Mongo:     db,
		Redis:     rdb,
		Log:       log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("emr console gateway up")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
	}
	log.Info().Msg("shut down")
}
