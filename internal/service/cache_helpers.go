package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"cpa-academy/internal/domain"
	"cpa-academy/internal/logger"

	"go.uber.org/zap"
)

// cachedJSON returns the value stored under key, or calls load and stores
// its result for ttl. Cache failures are logged and fall through to load.
func cachedJSON[T any](ctx context.Context, cache domain.Cache, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	if cache != nil {
		raw, err := cache.Get(ctx, key)
		switch {
		case err == nil:
			var cached T
			jsonErr := json.Unmarshal([]byte(raw), &cached)
			if jsonErr == nil {
				return cached, nil
			}
			logger.Get().Warn("Discarding undecodable cache entry", zap.String("key", key), zap.Error(jsonErr))
		case !errors.Is(err, domain.ErrCacheMiss):
			logger.Get().Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	value, err := load()
	if err != nil {
		return value, err
	}

	if cache != nil && ttl > 0 {
		if raw, jsonErr := json.Marshal(value); jsonErr != nil {
			logger.Get().Warn("Failed to encode cache entry", zap.String("key", key), zap.Error(jsonErr))
		} else if setErr := cache.Set(ctx, key, string(raw), ttl); setErr != nil {
			logger.Get().Warn("Cache write failed", zap.String("key", key), zap.Error(setErr))
		}
	}
	return value, nil
}
