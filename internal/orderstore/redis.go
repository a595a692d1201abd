package orderstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "order:"

// Redis is a Store backed by a Redis instance, for deployments where the
// order metadata is shared across service replicas.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed store.
func NewRedis(addr, password string, db int) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// NewRedisWithClient wraps an existing Redis client.
func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func key(orderRef string) string {
	return keyPrefix + orderRef + ":awb"
}

// GetAWB returns the AWB recorded for an order, or "" when absent.
func (r *Redis) GetAWB(ctx context.Context, orderRef string) (string, error) {
	awb, err := r.client.Get(ctx, key(orderRef)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading awb for %s: %w", orderRef, err)
	}
	return awb, nil
}

// SetAWB records the AWB for an order. AWBs never expire.
func (r *Redis) SetAWB(ctx context.Context, orderRef, awb string) error {
	if err := r.client.Set(ctx, key(orderRef), awb, 0).Err(); err != nil {
		return fmt.Errorf("recording awb for %s: %w", orderRef, err)
	}
	return nil
}

// Ping verifies connectivity to the Redis backend.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

var _ Store = (*Redis)(nil)
