// Package contract resolves payments to the contract they activate.
package contract

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/packfit/server/internal/module/contract/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// referencePattern matches the token embedded in a payment's external
// reference at checkout time, e.g. "PAC-42-a8f3".
var referencePattern = regexp.MustCompile(`^PAC-(\d+)`)

const tenantCacheTTL = time.Hour

// Resolver recovers a correlation key from a payment's free-text external
// reference when the provider's structured metadata is absent.
type Resolver struct {
	repo   Repository
	cache  redis.UniversalClient // nil disables caching
	logger *zap.Logger
}

// NewResolver creates a resolver. cache may be nil.
func NewResolver(repo Repository, cache redis.UniversalClient, logger *zap.Logger) *Resolver {
	return &Resolver{repo: repo, cache: cache, logger: logger}
}

// Resolve extracts the contract id from the external reference and looks up
// the owning tenant. An unrecognized reference or a contract that does not
// exist (yet) yields (nil, nil): the caller treats that as retryable, since
// the contract may be created by a concurrent process.
func (r *Resolver) Resolve(ctx context.Context, externalReference string) (*domain.Correlation, error) {
	m := referencePattern.FindStringSubmatch(externalReference)
	if m == nil {
		return nil, nil
	}

	contractID, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return nil, nil
	}

	tenantID, err := r.tenantOf(ctx, contractID)
	if err != nil {
		if errors.Is(err, ErrContractNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &domain.Correlation{ContractID: contractID, TenantID: tenantID}, nil
}

// tenantOf looks up the owning tenant, cache-aside. Cache failures degrade
// to the database lookup.
func (r *Resolver) tenantOf(ctx context.Context, contractID int64) (int64, error) {
	key := fmt.Sprintf("contract:%d:tenant", contractID)

	if r.cache != nil {
		cached, err := r.cache.Get(ctx, key).Result()
		if err == nil {
			if tenantID, parseErr := strconv.ParseInt(cached, 10, 64); parseErr == nil {
				return tenantID, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			r.logger.Debug("tenant cache read failed", zap.Error(err))
		}
	}

	tenantID, err := r.repo.TenantOf(ctx, contractID)
	if err != nil {
		return 0, err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, strconv.FormatInt(tenantID, 10), tenantCacheTTL).Err(); err != nil {
			r.logger.Debug("tenant cache write failed", zap.Error(err))
		}
	}

	return tenantID, nil
}
