package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/xvenuelabs/hyperarb/internal/blob/s3"
	"github.com/xvenuelabs/hyperarb/internal/cache/redis"
	"github.com/xvenuelabs/hyperarb/internal/config"
	"github.com/xvenuelabs/hyperarb/internal/domain"
	"github.com/xvenuelabs/hyperarb/internal/notify"
	"github.com/xvenuelabs/hyperarb/internal/store/postgres"
)

// Dependencies bundles the shared infrastructure the operating modes need.
// It is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Redis is always present; the telemetry bus, quote cache, and venue
	// rate limiter run on it.
	Redis        *redis.Client
	TelemetryBus domain.TelemetryBus
	QuoteCache   domain.QuoteCache
	RateLimiter  domain.RateLimiter

	// Postgres and Journal are nil unless the execution journal is enabled.
	Postgres *postgres.Client
	Journal  domain.ExecutionJournal

	// Archiver is nil unless both object storage and the journal are enabled.
	Archiver *s3blob.Archiver

	// Notifier is always present; with no senders configured it is a no-op.
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.Redis = redisClient
	deps.TelemetryBus = redis.NewTelemetryBus(redisClient)
	deps.QuoteCache = redis.NewQuoteCache(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)

	// --- PostgreSQL execution journal (optional) ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if err := pgClient.EnsureSchema(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres schema: %w", err)
		}

		deps.Postgres = pgClient
		deps.Journal = postgres.NewExecutionStore(pgClient)
	}

	// --- S3 execution archive (optional, needs the journal as its source) ---
	if cfg.S3.Enabled {
		if deps.Journal == nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: the archiver needs postgres enabled as its source")
		}
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		if err := s3Client.Health(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3 health: %w", err)
		}

		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), deps.Journal, logger)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
