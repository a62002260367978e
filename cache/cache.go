// Package cache keeps a copy of the full sweet list in Redis so that the
// catalogue page does not hit Postgres on every load.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	models "sweet-shop/model"
)

const (
	// SweetsKey is the Redis key holding the JSON-encoded sweet list.
	SweetsKey = "cache:sweets:all"
	// GenerationKey is bumped by every Invalidate.
	GenerationKey = "cache:sweets:gen"
)

// SweetCache is a cache-aside store for the sweet list. Readers take the
// Generation before querying the database and pass it to SetSweets; the fill
// is dropped if an Invalidate happened in between.
type SweetCache interface {
	// GetSweets reports ok=false on a miss.
	GetSweets(ctx context.Context) (sweets []models.Sweet, ok bool, err error)
	Generation(ctx context.Context) (int64, error)
	SetSweets(ctx context.Context, gen int64, sweets []models.Sweet) error
	Invalidate(ctx context.Context) error
}

// Nop is used when no Redis address is configured.
type Nop struct{}

func (Nop) GetSweets(context.Context) ([]models.Sweet, bool, error) { return nil, false, nil }
func (Nop) Generation(context.Context) (int64, error)               { return 0, nil }
func (Nop) SetSweets(context.Context, int64, []models.Sweet) error  { return nil }
func (Nop) Invalidate(context.Context) error                        { return nil }

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient connects and pings.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// NewRedisCache returns a cache whose entries expire after ttl. A zero ttl
// keeps the entry until the next Invalidate.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) GetSweets(ctx context.Context) ([]models.Sweet, bool, error) {
	data, err := c.client.Get(ctx, SweetsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var sweets []models.Sweet
	if err := json.Unmarshal(data, &sweets); err != nil {
		return nil, false, err
	}
	return sweets, true, nil
}

func (c *RedisCache) Generation(ctx context.Context) (int64, error) {
	return generation(ctx, c.client)
}

// SetSweets stores the list only if the generation still equals gen.
// A stale fill is not an error.
func (c *RedisCache) SetSweets(ctx context.Context, gen int64, sweets []models.Sweet) error {
	if sweets == nil {
		sweets = []models.Sweet{}
	}
	data, err := json.Marshal(sweets)
	if err != nil {
		return err
	}
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := generation(ctx, tx)
		if err != nil {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, SweetsKey, data, c.ttl)
			return nil
		})
		return err
	}, GenerationKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// Invalidate drops the list and bumps the generation in one transaction.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, GenerationKey)
		pipe.Del(ctx, SweetsKey)
		return nil
	})
	return err
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func generation(ctx context.Context, c getter) (int64, error) {
	gen, err := c.Get(ctx, GenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}
