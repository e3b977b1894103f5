package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ignatzorin/freelance-marketplace/internal/logger"
)

const (
	cacheKeyPrefix  = "freelance:cache:"
	cleanupInterval = 5 * time.Minute
)

// CacheService кэш публичных выборок с TTL. С redis значения общие для всех
// экземпляров, без него живут в памяти процесса. Ошибки кэша не ломают запрос.
type CacheService struct {
	redis *redis.Client

	mu    sync.RWMutex
	cache map[string]*cacheEntry
	now   func() time.Time
}

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewCacheService создаёт кэш. client может быть nil.
func NewCacheService(client *redis.Client) *CacheService {
	return &CacheService{
		redis: client,
		cache: make(map[string]*cacheEntry),
		now:   time.Now,
	}
}

// Get декодирует значение в dest. false, если ключа нет или он истёк.
func (cs *CacheService) Get(ctx context.Context, key string, dest any) bool {
	raw, ok := cs.get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		logger.Log.WithError(err).WithField("key", key).Warn("cache: decode failed")
		return false
	}
	return true
}

func (cs *CacheService) get(ctx context.Context, key string) ([]byte, bool) {
	if cs.redis != nil {
		raw, err := cs.redis.Get(ctx, cacheKeyPrefix+key).Bytes()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				logger.Log.WithError(err).WithField("key", key).Warn("cache: redis get failed")
			}
			return nil, false
		}
		return raw, true
	}

	cs.mu.RLock()
	defer cs.mu.RUnlock()
	entry, exists := cs.cache[key]
	if !exists || cs.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.data, true
}

// Set сохраняет значение на ttl.
func (cs *CacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		logger.Log.WithError(err).WithField("key", key).Warn("cache: encode failed")
		return
	}

	if cs.redis != nil {
		if err := cs.redis.Set(ctx, cacheKeyPrefix+key, raw, ttl).Err(); err != nil {
			logger.Log.WithError(err).WithField("key", key).Warn("cache: redis set failed")
		}
		return
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.cache[key] = &cacheEntry{data: raw, expiresAt: cs.now().Add(ttl)}
}

// InvalidateByPrefix удаляет все ключи с префиксом.
func (cs *CacheService) InvalidateByPrefix(ctx context.Context, prefix string) {
	if cs.redis != nil {
		iter := cs.redis.Scan(ctx, 0, cacheKeyPrefix+prefix+"*", 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			logger.Log.WithError(err).WithField("prefix", prefix).Warn("cache: redis scan failed")
			return
		}
		if len(keys) > 0 {
			if err := cs.redis.Del(ctx, keys...).Err(); err != nil {
				logger.Log.WithError(err).WithField("prefix", prefix).Warn("cache: redis del failed")
			}
		}
		return
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	for key := range cs.cache {
		if strings.HasPrefix(key, prefix) {
			delete(cs.cache, key)
		}
	}
}

// Run периодически вычищает истёкшие записи из памяти до отмены ctx.
func (cs *CacheService) Run(ctx context.Context) {
	if cs.redis != nil {
		return
	}
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cs.evictExpired()
		}
	}
}

func (cs *CacheService) evictExpired() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	now := cs.now()
	for key, entry := range cs.cache {
		if now.After(entry.expiresAt) {
			delete(cs.cache, key)
		}
	}
}

// Ключи кэша каталога.
const (
	catalogCachePrefix    = "catalog:"
	categoriesCacheKey    = catalogCachePrefix + "categories"
	statsCacheKey         = catalogCachePrefix + "stats"
	categoryStatsCacheKey = catalogCachePrefix + "category-stats"
	dashboardCachePrefix  = "dashboard:"
)

func dashboardCacheKey(userID uuid.UUID) string {
	return dashboardCachePrefix + userID.String()
}

// cached возвращает значение из кэша или вычисляет и сохраняет его.
// Без кэша просто вызывает fn.
func cached[T any](ctx context.Context, cs *CacheService, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	var value T
	if cs == nil {
		return fn()
	}
	if cs.Get(ctx, key, &value) {
		return value, nil
	}

	value, err := fn()
	if err != nil {
		return value, err
	}
	cs.Set(ctx, key, value, ttl)
	return value, nil
}
