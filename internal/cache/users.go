package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dashboard_api/internal/metrics"
	"dashboard_api/internal/model"
)

const userKeyPrefix = "user:%d"

// UserKey is the cache key for a user record.
func UserKey(userID int64) string {
	return fmt.Sprintf(userKeyPrefix, userID)
}

// UserCache caches user records looked up during token validation. The
// password hash is never serialized, so cached users cannot verify passwords.
type UserCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewUserCache creates a user cache over c with the given TTL.
func NewUserCache(c *Cache, ttl time.Duration) *UserCache {
	return &UserCache{cache: c, ttl: ttl}
}

// errNoUser stops CacheAside from caching a missing user.
var errNoUser = errors.New("user not found")

// Load returns the user for id, reading through the cache and falling back to
// fetch on a miss. A nil user from fetch is returned as (nil, nil) and is not
// cached.
func (uc *UserCache) Load(ctx context.Context, id int64, fetch func() (*model.User, error)) (*model.User, error) {
	if uc == nil || !uc.cache.Enabled() {
		return fetch()
	}

	var (
		u       model.User
		fetched bool
	)
	err := uc.cache.CacheAside(ctx, UserKey(id), &u, uc.ttl, func() error {
		fetched = true
		got, err := fetch()
		if err != nil {
			return err
		}
		if got == nil {
			return errNoUser
		}
		u = *got
		return nil
	})
	if fetched {
		metrics.UserCacheLookups.WithLabelValues("miss").Inc()
	} else {
		metrics.UserCacheLookups.WithLabelValues("hit").Inc()
	}
	if errors.Is(err, errNoUser) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Invalidate drops the cached record for id.
func (uc *UserCache) Invalidate(ctx context.Context, id int64) {
	if uc == nil {
		return
	}
	if err := uc.cache.Delete(ctx, UserKey(id)); err != nil {
		slog.WarnContext(ctx, "user cache invalidate failed", slog.Int64("user_id", id), slog.String("error", err.Error()))
	}
}
