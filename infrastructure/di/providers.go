// Package di wires the backend's dependencies. The container is built by
// explicit provider functions with an explicit lifecycle; nothing is
// reached through ambient singletons.
package di

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"secondbrain-backend/application/ports"
	"secondbrain-backend/infrastructure/config"
	"secondbrain-backend/infrastructure/persistence/dynamodb"
	"secondbrain-backend/infrastructure/persistence/memorydb"
	"secondbrain-backend/infrastructure/persistence/sqlite"
	"secondbrain-backend/pkg/observability"
	"secondbrain-backend/pkg/ratelimit"
)

// Container holds all backend dependencies
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Store   ports.SyncStore
	Limiter ratelimit.RateLimiter
	Metrics *observability.Collector
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideSyncStore creates the configured store backend
func ProvideSyncStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.SyncStore, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return memorydb.NewSyncStore(), nil

	case config.BackendSQLite:
		return sqlite.NewSyncStore(cfg.SQLitePath, logger)

	case config.BackendDynamoDB:
		awsCfg, err := ProvideAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		client := awsdynamodb.NewFromConfig(awsCfg)
		return dynamodb.NewSyncStore(client, cfg.DynamoDBTable, logger), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// ProvideRateLimiter creates the public-endpoint rate limiter
func ProvideRateLimiter(cfg *config.Config) ratelimit.RateLimiter {
	return ratelimit.NewTokenBucketLimiter(cfg.RateLimitBurst, cfg.RateLimitRefill)
}

// ProvideMetrics creates the metrics collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector("secondbrain")
}

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := ProvideSyncStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	return &Container{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Limiter: ProvideRateLimiter(cfg),
		Metrics: ProvideMetrics(),
	}, nil
}

// Close releases container resources
func (c *Container) Close() error {
	return c.Store.Close()
}
