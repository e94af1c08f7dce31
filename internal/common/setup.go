package common

import (
	"context"
	"fmt"

	"github.com/bjpl/describe-it-sub001/internal/aws"
	"github.com/bjpl/describe-it-sub001/internal/cache"
	"github.com/bjpl/describe-it-sub001/internal/config"
	"github.com/bjpl/describe-it-sub001/internal/credentials"
	"github.com/bjpl/describe-it-sub001/internal/executor"
	"github.com/bjpl/describe-it-sub001/pkg/gateway"
)

// CommonSetup contains the wired gateway components shared by the CLI
// commands. One setup is built per invocation; the gateway owns no global
// state.
type CommonSetup struct {
	Config   *config.Config
	Resolver *credentials.Resolver
	Cache    *cache.TieredCache
	Executor *executor.Executor
	Gateway  *gateway.Gateway
}

// NewCommonSetup initializes all common components needed by commands
func NewCommonSetup(ctx context.Context) (*CommonSetup, error) {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Select the durable tier per configuration; "none" runs memory-only.
	durable, err := buildDurableTier(ctx, cfg)
	if err != nil {
		return nil, err
	}
	tiered := cache.NewTieredCache(cache.NewMemoryTier(), durable, cfg.Cache.KeyPrefix)

	// The CLI has no settings store; credentials come from environment
	// variables and explicit flags only.
	resolver := credentials.NewResolver(nil)

	exec := executor.New(
		executor.WithRetryPolicy(executor.RetryPolicy{
			MaxAttempts:   cfg.Executor.MaxAttempts,
			BaseDelay:     cfg.Executor.BaseDelay(),
			BackoffFactor: cfg.Executor.BackoffFactor,
		}),
		executor.WithDefaultTimeout(cfg.Executor.DefaultTimeout()),
		executor.WithRequestInterceptor(executor.RequestIDInterceptor()),
		executor.WithRequestInterceptor(executor.CredentialInterceptor()),
	)

	return &CommonSetup{
		Config:   cfg,
		Resolver: resolver,
		Cache:    tiered,
		Executor: exec,
		Gateway:  gateway.New(resolver, tiered, exec),
	}, nil
}

// buildDurableTier constructs the configured durable backend
func buildDurableTier(ctx context.Context, cfg *config.Config) (cache.Tier, error) {
	switch cfg.Cache.DurableBackend {
	case "", "none":
		return nil, nil
	case "redis":
		return cache.NewRedisTier(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB), nil
	case "dynamodb":
		if cfg.DynamoDB.Table == "" {
			return nil, fmt.Errorf("dynamodb backend requires dynamodb.table")
		}
		client, err := aws.NewClient(ctx, cfg.DynamoDB.Region, cfg.DynamoDB.Profile)
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS client: %w", err)
		}
		return cache.NewDynamoTier(client.DynamoDB, cfg.DynamoDB.Table), nil
	default:
		return nil, fmt.Errorf("unknown durable backend %q", cfg.Cache.DurableBackend)
	}
}
