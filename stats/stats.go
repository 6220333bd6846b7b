// Package stats keeps fire-and-forget usage counters in Redis.
//
// Nothing here is allowed to hurt a request: when Redis is not configured
// the tracker is a no-op, and when a write fails it is logged and
// dropped. Callers dispatch and move on.
package stats

import (
	"context"
	"log/slog"
	"time"

	"github.com/fumbled/fumble/date"
	"github.com/redis/go-redis/v9"
)

// Fumble is one calculation worth counting.
type Fumble struct {
	Symbol   string
	Currency string
	Amount   float64
}

// Tracker increments usage counters. A nil Tracker is valid and counts
// nothing.
type Tracker struct {
	client redis.UniversalClient
	log    *slog.Logger
}

// New returns a Tracker on an existing Redis client. Pass nil to disable
// tracking entirely.
func New(client redis.UniversalClient) *Tracker {
	if client == nil {
		return nil
	}
	return &Tracker{client: client, log: slog.Default()}
}

// writeTimeout bounds the detached write; tracking must never linger.
const writeTimeout = 5 * time.Second

// Track counts a fumble calculation in the background and returns
// immediately. The caller's context is not used: the request that
// triggered the event may complete (and its context die) before the
// counters land.
func (t *Tracker) Track(f Fumble) {
	if t == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := t.record(ctx, f); err != nil {
			t.log.Debug("tracking write dropped", "symbol", f.Symbol, "err", err)
		}
	}()
}

func (t *Tracker) record(ctx context.Context, f Fumble) error {
	symbol := f.Symbol
	if symbol == "" {
		symbol = "unknown"
	}
	currency := f.Currency
	if currency == "" {
		currency = "USD"
	}
	pipe := t.client.Pipeline()
	pipe.Incr(ctx, "stats:fumbles:total")
	pipe.Incr(ctx, "stats:fumbles:daily:"+date.Today().String())
	pipe.HIncrBy(ctx, "stats:assets:popularity", symbol, 1)
	pipe.HIncrBy(ctx, "stats:currencies:usage", currency, 1)
	pipe.IncrByFloat(ctx, "stats:fumbles:total_amount", f.Amount)
	_, err := pipe.Exec(ctx)
	return err
}

// Summary is the aggregate view served by the stats endpoint.
type Summary struct {
	TotalFumbles  int64             `json:"totalFumbles"`
	TotalAmount   float64           `json:"totalAmount"`
	PopularAssets map[string]string `json:"popularAssets"`
	CurrencyUsage map[string]string `json:"currencyUsage"`
	Timestamp     time.Time         `json:"timestamp"`
}

// Summarize reads the counters back. Unlike Track this is a synchronous
// read on behalf of a caller who asked for stats, so errors propagate.
func (t *Tracker) Summarize(ctx context.Context) (Summary, error) {
	if t == nil {
		return Summary{Timestamp: time.Now()}, nil
	}
	s := Summary{Timestamp: time.Now()}
	total, err := t.client.Get(ctx, "stats:fumbles:total").Int64()
	if err != nil && err != redis.Nil {
		return s, err
	}
	s.TotalFumbles = total
	amount, err := t.client.Get(ctx, "stats:fumbles:total_amount").Float64()
	if err != nil && err != redis.Nil {
		return s, err
	}
	s.TotalAmount = amount
	if s.PopularAssets, err = t.client.HGetAll(ctx, "stats:assets:popularity").Result(); err != nil {
		return s, err
	}
	if s.CurrencyUsage, err = t.client.HGetAll(ctx, "stats:currencies:usage").Result(); err != nil {
		return s, err
	}
	return s, nil
}
