package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"shopcrm/internal/model"
	"shopcrm/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrTenantNotFound is returned when no tenant matches the subdomain token.
// Callers render a tenant-not-found response, never a crash.
var ErrTenantNotFound = errors.New("tenant not found")

// Loader resolves subdomain tokens to tenant records with a cache-aside
// layer on Redis. The cache is owned here explicitly: entries expire after
// TTL and are invalidated when tenant settings change.
type Loader struct {
	db    *gorm.DB
	cache *redis.Client // nil disables caching
	ttl   time.Duration
}

// NewLoader creates a tenant loader. cache may be nil, in which case every
// lookup reads from the database.
func NewLoader(db *gorm.DB, cache *redis.Client, ttl time.Duration) *Loader {
	return &Loader{db: db, cache: cache, ttl: ttl}
}

func cacheKey(token string) string {
	return "tenant:subdomain:" + token
}

// Load returns the tenant for a subdomain token
func (l *Loader) Load(ctx context.Context, token string) (*model.Tenant, error) {
	log := logger.FromContext(ctx)

	if l.cache != nil {
		raw, err := l.cache.Get(ctx, cacheKey(token)).Result()
		if err == nil {
			var t model.Tenant
			if err := json.Unmarshal([]byte(raw), &t); err == nil {
				return &t, nil
			}
			// corrupt entry, fall through to the database
		} else if !errors.Is(err, redis.Nil) {
			log.Warn("tenant cache read failed", zap.String("token", token), zap.Error(err))
		}
	}

	var t model.Tenant
	result := l.db.WithContext(ctx).Where("subdomain = ?", token).First(&t)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, result.Error
	}

	if l.cache != nil {
		if raw, err := json.Marshal(&t); err == nil {
			if err := l.cache.Set(ctx, cacheKey(token), raw, l.ttl).Err(); err != nil {
				log.Warn("tenant cache write failed", zap.String("token", token), zap.Error(err))
			}
		}
	}

	return &t, nil
}

// Invalidate drops the cached entry for a subdomain token. Called whenever
// tenant settings are updated so the next request sees fresh values.
func (l *Loader) Invalidate(ctx context.Context, token string) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Del(ctx, cacheKey(token)).Err(); err != nil {
		logger.FromContext(ctx).Warn("tenant cache invalidation failed",
			zap.String("token", token), zap.Error(err))
	}
}
