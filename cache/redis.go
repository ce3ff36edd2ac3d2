package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	RedisClient *redis.Client

	ErrRedisUnavailable = errors.New("redis not available")
	ErrCacheMiss        = errors.New("cache miss")
)

// InitRedis initializes Redis connection
func InitRedis(addr, password string, db int) error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := RedisClient.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return nil
}

// CloseRedis closes Redis connection
func CloseRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}

// IsRedisAvailable checks if Redis is connected
func IsRedisAvailable(ctx context.Context) bool {
	if RedisClient == nil {
		return false
	}
	return RedisClient.Ping(ctx).Err() == nil
}

// ==================== CACHE KEYS ====================

const (
	CatalogSearchPrefix = "catalog:search:" // catalog:search:zelda
	CatalogGamePrefix   = "catalog:game:"   // catalog:game:3030

	MyReviewsPrefix = "reviews:owner:" // reviews:owner:1

	RateLimitPrefix = "ratelimit:" // ratelimit:127.0.0.1
)

const (
	CatalogSearchTTL = 10 * time.Minute
	CatalogGameTTL   = time.Hour
	MyReviewsTTL     = 5 * time.Minute
)

// ==================== GENERIC CACHE OPERATIONS ====================

// Set stores any value in cache with TTL
func Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !IsRedisAvailable(ctx) {
		return ErrRedisUnavailable
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return RedisClient.Set(ctx, key, data, ttl).Err()
}

// Get retrieves value from cache
func Get(ctx context.Context, key string, dest interface{}) error {
	if !IsRedisAvailable(ctx) {
		return ErrRedisUnavailable
	}

	val, err := RedisClient.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("failed to get value: %w", err)
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}
	return nil
}

// Delete removes key from cache
func Delete(ctx context.Context, key string) error {
	if !IsRedisAvailable(ctx) {
		return nil
	}
	return RedisClient.Del(ctx, key).Err()
}

// DeletePattern removes all keys matching pattern
func DeletePattern(ctx context.Context, pattern string) error {
	if !IsRedisAvailable(ctx) {
		return nil
	}

	iter := RedisClient.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := RedisClient.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// ==================== CATALOG CACHING ====================

func searchKey(query string) string {
	return CatalogSearchPrefix + strings.ToLower(strings.TrimSpace(query))
}

// GetSearch returns cached search results for a query
func GetSearch(ctx context.Context, query string, dest interface{}) error {
	return Get(ctx, searchKey(query), dest)
}

func SetSearch(ctx context.Context, query string, results interface{}) error {
	return Set(ctx, searchKey(query), results, CatalogSearchTTL)
}

// GetCatalogGame returns cached game details
func GetCatalogGame(ctx context.Context, gameID uint, dest interface{}) error {
	return Get(ctx, fmt.Sprintf("%s%d", CatalogGamePrefix, gameID), dest)
}

func SetCatalogGame(ctx context.Context, gameID uint, game interface{}) error {
	return Set(ctx, fmt.Sprintf("%s%d", CatalogGamePrefix, gameID), game, CatalogGameTTL)
}

// ==================== REVIEW CACHING ====================

// GetMyReviews returns the cached profile list of an owner
func GetMyReviews(ctx context.Context, ownerID uint, dest interface{}) error {
	return Get(ctx, fmt.Sprintf("%s%d", MyReviewsPrefix, ownerID), dest)
}

func SetMyReviews(ctx context.Context, ownerID uint, reviews interface{}) error {
	return Set(ctx, fmt.Sprintf("%s%d", MyReviewsPrefix, ownerID), reviews, MyReviewsTTL)
}

// InvalidateMyReviews removes the profile list of an owner
func InvalidateMyReviews(ctx context.Context, ownerID uint) error {
	return Delete(ctx, fmt.Sprintf("%s%d", MyReviewsPrefix, ownerID))
}

// InvalidateAllReviews removes every cached profile list
func InvalidateAllReviews(ctx context.Context) error {
	return DeletePattern(ctx, MyReviewsPrefix+"*")
}

// ==================== RATE LIMITING ====================

// CheckRateLimit counts a request against a fixed window and reports whether it is allowed
func CheckRateLimit(ctx context.Context, client string, maxRequests int, window time.Duration) (bool, int, error) {
	if !IsRedisAvailable(ctx) {
		return true, maxRequests, ErrRedisUnavailable
	}

	key := RateLimitPrefix + client

	count, err := RedisClient.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		// first request of the window
		if err := RedisClient.Expire(ctx, key, window).Err(); err != nil {
			return false, 0, err
		}
	}

	remaining := maxRequests - int(count)
	if remaining < 0 {
		return false, 0, nil
	}
	return true, remaining, nil
}
