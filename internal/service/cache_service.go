package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/terra-erp-api/internal/repository"
	appErrors "github.com/noah-isme/terra-erp-api/pkg/errors"
)

// CacheService is a thin wrapper over the Redis repository that turns cache
// misses into a boolean and tolerates a disabled cache, so callers never need
// to special-case either.
type CacheService struct {
	repo    *repository.CacheRepository
	enabled bool
	logger  *zap.Logger
}

// NewCacheService constructs the service. A nil repository disables caching.
func NewCacheService(repo *repository.CacheRepository, enabled bool, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{
		repo:    repo,
		enabled: enabled && repo != nil,
		logger:  logger,
	}
}

// Enabled reports whether caching is active. Safe on a nil receiver so
// services constructed without a cache can call it unconditionally.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled
}

// Get loads a cached value into dest. Returns false on a miss.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	if err := s.repo.Get(ctx, key, dest); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Set stores a value with the given TTL.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	return s.repo.Set(ctx, key, value, ttl)
}

// Delete removes a single cached key.
func (s *CacheService) Delete(ctx context.Context, key string) error {
	if !s.Enabled() {
		return nil
	}
	return s.repo.DeleteByPattern(ctx, key)
}

// InvalidatePrefix removes all keys below the given prefix.
func (s *CacheService) InvalidatePrefix(ctx context.Context, prefix string) error {
	if !s.Enabled() {
		return nil
	}
	return s.repo.DeleteByPattern(ctx, prefix+"*")
}
