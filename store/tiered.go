package store

import (
	"context"
	"log/slog"

	"github.com/fumbled/fumble"
	"github.com/fumbled/fumble/date"
)

// Tiered pairs the durable store with the in-process mirror: every write
// lands in both, reads prefer the durable store and fall back to the
// mirror when it misses or errors. A broken Redis therefore degrades the
// service to per-process caching rather than taking it down.
type Tiered struct {
	Durable fumble.Store
	Mirror  fumble.Store
	Log     *slog.Logger
}

// NewTiered wires a durable store with a fresh memory mirror.
func NewTiered(durable fumble.Store) *Tiered {
	return &Tiered{Durable: durable, Mirror: NewMemory(), Log: slog.Default()}
}

// Get implements fumble.Store.
func (t *Tiered) Get(ctx context.Context, symbol string, on date.Date) (fumble.Entry, bool, error) {
	if t.Durable != nil {
		e, ok, err := t.Durable.Get(ctx, symbol, on)
		if err != nil {
			t.log().Warn("durable cache read failed, trying memory", "symbol", symbol, "err", err)
		} else if ok {
			return e, true, nil
		}
	}
	return t.Mirror.Get(ctx, symbol, on)
}

// Put implements fumble.Store. The mirror is always written, even when
// the durable write fails, so the price survives at least for this
// process.
func (t *Tiered) Put(ctx context.Context, e fumble.Entry) error {
	if err := t.Mirror.Put(ctx, e); err != nil {
		t.log().Warn("memory cache write failed", "symbol", e.Symbol, "err", err)
	}
	if t.Durable == nil {
		return nil
	}
	return t.Durable.Put(ctx, e)
}

func (t *Tiered) log() *slog.Logger {
	if t.Log != nil {
		return t.Log
	}
	return slog.Default()
}

var _ fumble.Store = (*Tiered)(nil)
