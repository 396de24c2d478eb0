package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"learning-path/internal/models"
	"learning-path/shared/logging"

	goredis "github.com/redis/go-redis/v9"
)

// Searcher is the video-search capability consumed by the resource fetcher.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]models.VideoCandidate, error)
}

// Cache stores raw search results. A miss is reported with ok == false.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedSearcher serves repeated queries from a cache. Cache failures are
// logged and never fail a search.
type CachedSearcher struct {
	next  Searcher
	cache Cache
	ttl   time.Duration
	log   *logging.Logger
}

func NewCachedSearcher(next Searcher, cache Cache, ttl time.Duration, log *logging.Logger) *CachedSearcher {
	return &CachedSearcher{
		next:  next,
		cache: cache,
		ttl:   ttl,
		log:   log.With("service", "CachedSearcher"),
	}
}

func cacheKey(query string, maxResults int) string {
	return fmt.Sprintf("video-search:%d:%s", maxResults, strings.ToLower(strings.TrimSpace(query)))
}

func (s *CachedSearcher) Search(ctx context.Context, query string, maxResults int) ([]models.VideoCandidate, error) {
	key := cacheKey(query, maxResults)

	if raw, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.Warn("Search cache read failed", "key", key, "error", err)
	} else if ok {
		var cached []models.VideoCandidate
		if err := json.Unmarshal(raw, &cached); err == nil {
			s.log.Debug("Search cache hit", "key", key)
			return cached, nil
		}
		s.log.Warn("Discarding unreadable cache entry", "key", key)
	}

	candidates, err := s.next.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(candidates); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
			s.log.Warn("Search cache write failed", "key", key, "error", err)
		}
	}
	return candidates, nil
}

// RedisCache is a Cache backed by a redis server.
type RedisCache struct {
	rdb *goredis.Client
}

// NewRedisCache connects to addr and verifies the connection.
func NewRedisCache(ctx context.Context, addr string) (*RedisCache, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisCache{rdb: rdb}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

func (r *RedisCache) Close() error {
	return r.rdb.Close()
}
