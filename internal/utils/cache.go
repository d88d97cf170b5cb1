package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"        // For matching transaction aborts
	"strconv"       // Key formatting
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// ProfileKey is the cache key of a user's profile
func ProfileKey(userID int64) string {
	return "profile:user:" + strconv.FormatInt(userID, 10)
}

// HistoryKey is the cache key of a user's operation history for one limit
func HistoryKey(userID int64, limit int) string {
	return HistoryPrefix(userID) + "limit:" + strconv.Itoa(limit)
}

// HistoryPrefix covers every cached history page of a user
func HistoryPrefix(userID int64) string {
	return "history:user:" + strconv.FormatInt(userID, 10) + ":"
}

// GenerationKey counts invalidations of a user's cached entries
func GenerationKey(userID int64) string {
	return "cachegen:user:" + strconv.FormatInt(userID, 10)
}

// GetCache retrieves a value from Redis and unmarshals it into dest.
// A nil client behaves as a permanent miss.
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	if rdb == nil {
		return false, nil // Caching disabled
	}
	val, err := rdb.Get(ctx, key).Result() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err // Corrupt entry counts as a miss
	}
	return true, nil
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	if rdb == nil {
		return nil // Caching disabled
	}
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL
}

// DeleteCache deletes keys from Redis
func DeleteCache(ctx context.Context, rdb *redis.Client, keys ...string) error {
	if rdb == nil || len(keys) == 0 {
		return nil // Nothing to delete
	}
	return rdb.Del(ctx, keys...).Err() // Delete keys from Redis
}

// DeleteCachePrefix deletes every key starting with prefix
func DeleteCachePrefix(ctx context.Context, rdb *redis.Client, prefix string) error {
	if rdb == nil {
		return nil // Caching disabled
	}
	var keys []string                                    // Keys collected by SCAN
	iter := rdb.Scan(ctx, 0, prefix+"*", 100).Iterator() // Walk matching keys
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return DeleteCache(ctx, rdb, keys...)
}

// CacheGeneration reads the invalidation counter stored at guardKey.
// An unset counter reads as "".
func CacheGeneration(ctx context.Context, rdb *redis.Client, guardKey string) (string, error) {
	if rdb == nil {
		return "", nil // Caching disabled
	}
	gen, err := rdb.Get(ctx, guardKey).Result()
	if err == redis.Nil {
		return "", nil // Never invalidated
	}
	return gen, err
}

// BumpGeneration advances the counter at guardKey so that values loaded
// before this call are not written back by SetCacheIfGeneration.
func BumpGeneration(ctx context.Context, rdb *redis.Client, guardKey string) error {
	if rdb == nil {
		return nil // Caching disabled
	}
	return rdb.Incr(ctx, guardKey).Err()
}

// SetCacheIfGeneration stores value only while guardKey still holds gen.
// It reports false when the counter moved, in which case nothing is written.
func SetCacheIfGeneration(ctx context.Context, rdb *redis.Client, guardKey, gen, key string, value any, ttl time.Duration) (bool, error) {
	if rdb == nil {
		return false, nil // Caching disabled
	}
	b, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	stale := false
	err = rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, guardKey).Result()
		if err != nil && err != redis.Nil {
			return err
		}
		if cur != gen {
			stale = true // Invalidated after the value was loaded
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, ttl)
			return nil
		})
		return err
	}, guardKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil // Invalidated between WATCH and EXEC
	}
	if err != nil {
		return false, err
	}
	return !stale, nil
}
