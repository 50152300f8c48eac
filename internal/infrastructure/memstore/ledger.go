package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/quotagate/quotagate/internal/domain/usage"
)

var _ usage.Ledger = (*Ledger)(nil)

type counter struct {
	count       int64
	lastUpdated time.Time
}

// Ledger keeps counters per user behind one mutex, which makes every
// increment atomic.
type Ledger struct {
	mu    sync.RWMutex
	users map[string]map[string]*counter
}

func NewLedger() *Ledger {
	return &Ledger{users: make(map[string]map[string]*counter)}
}

func (l *Ledger) GetCount(_ context.Context, userID, endpoint string) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if c, ok := l.users[userID][endpoint]; ok {
		return c.count, nil
	}
	return 0, nil
}

func (l *Ledger) Increment(_ context.Context, userID, endpoint string, at time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	endpoints, ok := l.users[userID]
	if !ok {
		endpoints = make(map[string]*counter)
		l.users[userID] = endpoints
	}
	c, ok := endpoints[endpoint]
	if !ok {
		c = &counter{}
		endpoints[endpoint] = c
	}
	c.count++
	c.lastUpdated = at
	return c.count, nil
}

func (l *Ledger) IncrementBelow(_ context.Context, userID, endpoint string, limit int64, at time.Time) (int64, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var current int64
	if c, ok := l.users[userID][endpoint]; ok {
		current = c.count
	}
	if current >= limit {
		return current, false, nil
	}

	endpoints, ok := l.users[userID]
	if !ok {
		endpoints = make(map[string]*counter)
		l.users[userID] = endpoints
	}
	c, ok := endpoints[endpoint]
	if !ok {
		c = &counter{}
		endpoints[endpoint] = c
	}
	c.count++
	c.lastUpdated = at
	return c.count, true, nil
}

func (l *Ledger) List(_ context.Context, userID string) ([]usage.Counter, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	endpoints := l.users[userID]
	out := make([]usage.Counter, 0, len(endpoints))
	for endpoint, c := range endpoints {
		out = append(out, usage.Counter{
			UserID:      userID,
			Endpoint:    endpoint,
			Count:       c.count,
			LastUpdated: c.lastUpdated,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Endpoint < out[j].Endpoint })
	return out, nil
}

func (l *Ledger) DeleteAll(_ context.Context, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.users, userID)
	return nil
}
