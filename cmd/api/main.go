package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/messagely/messagely-api/internal/api"
	"github.com/messagely/messagely-api/internal/core/ports"
	"github.com/messagely/messagely-api/internal/core/service"
	"github.com/messagely/messagely-api/internal/infrastructure/db/memory"
	"github.com/messagely/messagely-api/internal/infrastructure/db/mongo"
	"github.com/messagely/messagely-api/internal/infrastructure/db/postgres"
	"github.com/messagely/messagely-api/internal/infrastructure/db/redis"
	"github.com/messagely/messagely-api/internal/infrastructure/http/handlers"
	"github.com/messagely/messagely-api/internal/infrastructure/security"
	"github.com/messagely/messagely-api/internal/pkg/config"
	"github.com/messagely/messagely-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title                       messagely API
// @version                     1.0
// @description                 Direct messaging between registered users.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "messagely-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("api server failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.shutdown()

	checks := st.checks
	var dedup ports.SendDedup
	if cfg.Redis.Enabled {
		rdb, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()

		dedup = redis.NewSendDedup(rdb)
		checks = append(checks, handlers.DependencyCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}

	hasher, err := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}
	tokens, err := security.NewJWTIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenIssuer, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	accounts, err := service.NewAccountService(st.accounts, hasher, tokens, logger.Component("accounts"))
	if err != nil {
		return err
	}
	messages := service.NewMessageService(st.messages, st.accounts, dedup, logger.Component("messages"))

	router := api.NewRouter(api.Dependencies{
		Accounts: accounts,
		Messages: messages,
		Tokens:   tokens,
		Checks:   checks,
		Logger:   log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Int("bcrypt_cost", hasher.Cost()).Msg("api server starting")
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
		log.Info().Msg("api server stopped")
		return nil
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

type store struct {
	accounts ports.AccountRepository
	messages ports.MessageRepository
	checks   []handlers.DependencyCheck
	shutdown func()
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Postgres.DSN})
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &store{
			accounts: postgres.NewAccountRepository(pool),
			messages: postgres.NewMessageRepository(pool),
			checks:   []handlers.DependencyCheck{{Name: "postgres", Ping: pool.Ping}},
			shutdown: pool.Close,
		}, nil

	case config.StoreMemory:
		log.Warn().Msg("using in-memory store; data is lost on restart")
		mem := memory.NewStore()
		return &store{
			accounts: memory.NewAccountRepository(mem),
			messages: memory.NewMessageRepository(mem),
			shutdown: func() {},
		}, nil

	default:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		if err := mongo.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return &store{
			accounts: mongo.NewAccountRepository(db),
			messages: mongo.NewMessageRepository(db),
			checks: []handlers.DependencyCheck{{
				Name: "mongodb",
				Ping: func(ctx context.Context) error { return client.Ping(ctx, nil) },
			}},
			shutdown: func() {
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				_ = client.Disconnect(ctx)
			},
		}, nil
	}
}
