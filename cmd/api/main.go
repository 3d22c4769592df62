package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"blockon/api/internal/cache"
	"blockon/api/internal/config"
	"blockon/api/internal/database"
	"blockon/api/internal/handlers"
	"blockon/api/internal/jobs"
	"blockon/api/internal/log"
	"blockon/api/internal/mail"
	"blockon/api/internal/repository"
	"blockon/api/internal/security"
	"blockon/api/internal/server"
	"blockon/api/internal/service"
	"blockon/api/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("api exited with error")
	}
	logger.Info().Msg("server exited cleanly")
}

type stores struct {
	accounts   service.AccountStore
	emailAuths service.EmailAuthStore
	pruner     jobs.PendingPruner
	db         *pgxpool.Pool
}

func run(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger) error {
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if st.db != nil {
		defer st.db.Close()
	}

	redisClient := openRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("redis close error")
			}
		}()
	}

	var throttle service.Throttle
	if redisClient != nil && cfg.Mail.ResendCooldown > 0 {
		throttle = cache.NewCooldown(redisClient, "blockon:auth-email", cfg.Mail.ResendCooldown)
	}

	var mailer mail.Mailer = mail.NewLogMailer(logger)
	if cfg.Mail.Driver == config.MailSMTP {
		mailer = mail.NewSMTPMailer(cfg.Mail)
	}

	deps := handlers.Dependencies{
		Accounts:   st.accounts,
		EmailAuths: st.emailAuths,
		Mailer:     mailer,
		Throttle:   throttle,
		Tokens:     security.NewTokenIssuer(cfg.Security.JWTSecret, cfg.Security.Issuer, cfg.Security.SessionTTL),
		DB:         st.db,
		Cache:      redisClient,
	}

	if cfg.Storage.Endpoint != "" {
		objectStore, err := storage.NewObjectStore(cfg.Storage)
		if err != nil {
			return fmt.Errorf("init object store: %w", err)
		}
		if err := objectStore.EnsureBucket(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure profile bucket failed")
		}
		deps.Objects = objectStore
	} else {
		logger.Info().Msg("storage endpoint not set, profile uploads disabled")
	}

	httpServer := server.NewHTTPServer(cfg, logger, handlers.NewHandlerSet(logger, cfg, deps))

	scheduler := jobs.NewScheduler(st.pruner, cfg.Auth, logger)
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(httpServer.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := scheduler.Stop(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("scheduler stop timed out")
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func openStores(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger) (stores, error) {
	if cfg.Auth.Store == config.StoreMemory {
		logger.Warn().Msg("using in-memory store, data is lost on restart")
		mem := repository.NewMemoryStore()
		emailAuths := mem.EmailAuths()
		return stores{
			accounts:   mem.Accounts(),
			emailAuths: emailAuths,
			pruner:     emailAuths,
		}, nil
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return stores{}, fmt.Errorf("connect postgres: %w", err)
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return stores{}, fmt.Errorf("migrate: %w", err)
	}

	emailAuths := repository.NewEmailAuthRepository(pool)
	return stores{
		accounts:   repository.NewAccountRepository(pool),
		emailAuths: emailAuths,
		pruner:     emailAuths,
		db:         pool,
	}, nil
}

// openRedis returns nil when Redis is not configured or unreachable; the
// resend cooldown is then disabled.
func openRedis(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, resend cooldown disabled")
		return nil
	}
	return client
}
