package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("key not found in cache")

// DefaultFailureTTL keeps a stage's failures around between reruns.
const DefaultFailureTTL = 7 * 24 * time.Hour

const failurePrefix = "gaokao:failures:"

// FailureStore mirrors failed work items into one redis hash per stage
// (item key -> reason), so reruns and other tools can inspect them.
type FailureStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFailureStore connects to redisURL and verifies the connection.
func NewFailureStore(redisURL string) (*FailureStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewFailureStoreWithClient(client), nil
}

// NewFailureStoreWithClient wraps an existing client.
func NewFailureStoreWithClient(client *redis.Client) *FailureStore {
	return &FailureStore{client: client, ttl: DefaultFailureTTL}
}

func failureKey(stage string) string {
	return failurePrefix + stage
}

// RecordFailure stores reason for key under stage and refreshes the TTL.
func (r *FailureStore) RecordFailure(ctx context.Context, stage, key, reason string) error {
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, failureKey(stage), key, reason)
	pipe.Expire(ctx, failureKey(stage), r.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Failures returns the recorded failures of stage.
func (r *FailureStore) Failures(ctx context.Context, stage string) (map[string]string, error) {
	return r.client.HGetAll(ctx, failureKey(stage)).Result()
}

// Reason returns why key last failed.
func (r *FailureStore) Reason(ctx context.Context, stage, key string) (string, error) {
	val, err := r.client.HGet(ctx, failureKey(stage), key).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	return val, err
}

// Reset forgets every failure of stage, before a new run records its own.
func (r *FailureStore) Reset(ctx context.Context, stage string) error {
	return r.client.Del(ctx, failureKey(stage)).Err()
}

// Close closes the Redis connection
func (r *FailureStore) Close() error {
	return r.client.Close()
}
