// Package gateway wires credential resolution, tiered caching, and the
// request executor into the single entry point application modules call.
// One Gateway is constructed at startup and passed to callers; nothing in
// this package holds global state.
package gateway

import (
	"context"

	"github.com/bjpl/describe-it-sub001/internal/cache"
	"github.com/bjpl/describe-it-sub001/internal/credentials"
	"github.com/bjpl/describe-it-sub001/internal/errors"
	"github.com/bjpl/describe-it-sub001/internal/executor"
	"github.com/bjpl/describe-it-sub001/internal/logger"
	"github.com/bjpl/describe-it-sub001/internal/models"

	"go.uber.org/zap"
)

// Gateway is the resilient façade in front of external AI and image
// services. Expected failure classes come back as *errors.GatewayError,
// never as panics; only precondition violations (unknown service ids)
// raise.
type Gateway struct {
	resolver *credentials.Resolver
	cache    *cache.TieredCache
	executor *executor.Executor
}

// New creates a gateway from its three components
func New(resolver *credentials.Resolver, tiered *cache.TieredCache, exec *executor.Executor) *Gateway {
	return &Gateway{
		resolver: resolver,
		cache:    tiered,
		executor: exec,
	}
}

// Execute runs one operation through the gateway: credential resolution,
// cache read-through, network execution, and best-effort write-through.
func (g *Gateway) Execute(ctx context.Context, op models.Operation) (*models.Response, *errors.GatewayError) {
	record := g.resolveCredential(op)
	if !record.IsValid {
		// Callers decide whether to fall back to demo behavior; the
		// gateway only refuses to place a call it cannot authenticate.
		logger.GetLogger().Debug("Short-circuiting operation without credential",
			zap.String("service", op.Service),
			zap.String("source", string(record.Source)))
		return nil, errors.NewCredentialUnavailableError(op.Service)
	}

	if op.CacheKey != "" {
		if data, ok := g.cache.Get(ctx, op.CacheKey); ok {
			logger.GetLogger().Debug("Cache hit",
				zap.String("service", op.Service),
				zap.String("key", op.CacheKey))
			return &models.Response{StatusCode: 200, Body: data, FromCache: true}, nil
		}
	}

	ctx = executor.WithCredential(ctx, op.Service, record.Value)
	resp, gwErr := g.executor.Execute(ctx, op)
	if gwErr != nil {
		return nil, gwErr
	}

	if op.CacheKey != "" && op.CacheTTL > 0 {
		// Write-through is best-effort: a failing durable tier never
		// fails the operation that just succeeded.
		g.cache.Set(ctx, op.CacheKey, resp.Body, op.CacheTTL)
	}

	return resp, nil
}

// Resolver exposes the credential resolver for status commands and
// subscription by application modules
func (g *Gateway) Resolver() *credentials.Resolver {
	return g.resolver
}

// Cache exposes the tiered cache for callers using GetOrSet directly
func (g *Gateway) Cache() *cache.TieredCache {
	return g.cache
}

// resolveCredential applies the per-operation explicit override, the
// highest-priority source, without mutating resolver state.
func (g *Gateway) resolveCredential(op models.Operation) models.CredentialRecord {
	if op.Credential != "" {
		record := models.CredentialRecord{
			ServiceID: op.Service,
			Value:     op.Credential,
			Source:    models.SourceExplicit,
			IsValid:   g.resolver.Validate(op.Service, op.Credential),
		}
		return record
	}
	return g.resolver.GetConfig(op.Service)
}
