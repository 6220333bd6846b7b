// Package store persists resolved prices keyed by (symbol, requested
// date). Two backings exist: a Redis one with no expiry and an in-process
// map with a 24h TTL. Tiered glues them together so the resolver only
// ever sees the fumble.Store interface and never knows which backing is
// live.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/fumbled/fumble"
	"github.com/fumbled/fumble/date"
)

// memoryTTL is how long an in-process entry stays valid. The durable
// store has no TTL; only this mirror expires.
const memoryTTL = 24 * time.Hour

// Memory is an in-process Store. Entries expire lazily after 24 hours.
// Safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	// now is injectable for expiry tests.
	now func() time.Time
}

type memoryEntry struct {
	e      fumble.Entry
	stored time.Time
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry), now: time.Now}
}

func key(symbol string, on date.Date) string {
	return fumble.Normalize(symbol) + ":" + on.String()
}

// Get implements fumble.Store.
func (m *Memory) Get(_ context.Context, symbol string, on date.Date) (fumble.Entry, bool, error) {
	m.mu.RLock()
	me, ok := m.entries[key(symbol, on)]
	m.mu.RUnlock()
	if !ok || m.now().Sub(me.stored) >= memoryTTL {
		return fumble.Entry{}, false, nil
	}
	return me.e, true, nil
}

// Put implements fumble.Store. Writes are upserts; last writer wins.
func (m *Memory) Put(_ context.Context, e fumble.Entry) error {
	m.mu.Lock()
	m.entries[key(e.Symbol, e.Requested)] = memoryEntry{e: e, stored: m.now()}
	m.mu.Unlock()
	return nil
}

var _ fumble.Store = (*Memory)(nil)
