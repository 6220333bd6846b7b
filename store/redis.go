package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fumbled/fumble"
	"github.com/fumbled/fumble/date"
	"github.com/redis/go-redis/v9"
)

const redisPrefix = "price:"

// Redis is the durable Store: one JSON value per (symbol, date) key, no
// expiry. Concurrent upserts of the same key are harmless, the values are
// equivalent and the last writer wins.
type Redis struct {
	client redis.UniversalClient
}

// NewRedis returns a Store on an existing Redis client.
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

// DialRedis connects to addr and verifies the connection before returning
// a Store on it.
func DialRedis(ctx context.Context, addr string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cannot reach redis at %s: %w", addr, err)
	}
	return NewRedis(client), nil
}

// Get implements fumble.Store.
func (r *Redis) Get(ctx context.Context, symbol string, on date.Date) (fumble.Entry, bool, error) {
	data, err := r.client.Get(ctx, redisPrefix+key(symbol, on)).Bytes()
	if errors.Is(err, redis.Nil) {
		return fumble.Entry{}, false, nil
	}
	if err != nil {
		return fumble.Entry{}, false, fmt.Errorf("redis get: %w", err)
	}
	var e fumble.Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return fumble.Entry{}, false, fmt.Errorf("corrupt cache entry for %s@%s: %w", symbol, on, err)
	}
	return e, true, nil
}

// Put implements fumble.Store.
func (r *Redis) Put(ctx context.Context, e fumble.Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := r.client.Set(ctx, redisPrefix+key(e.Symbol, e.Requested), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (r *Redis) Close() error { return r.client.Close() }

var _ fumble.Store = (*Redis)(nil)
