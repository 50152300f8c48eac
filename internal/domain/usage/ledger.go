package usage

import (
	"context"
	"time"
)

// Ledger holds per-(user, endpoint) counters.
//
// Increment must be a single atomic upsert-and-increment on the backing
// store: concurrent increments on the same key never lose updates.
type Ledger interface {
	// GetCount returns the current count, 0 when the counter is absent.
	GetCount(ctx context.Context, userID, endpoint string) (int64, error)
	// Increment adds one to the counter, creating it when absent, stamps
	// last_updated with at and returns the new count.
	Increment(ctx context.Context, userID, endpoint string, at time.Time) (int64, error)
	// IncrementBelow increments the counter only while its count is below
	// limit, as one atomic operation. It reports the resulting count and
	// whether the increment happened. A refused increment writes nothing.
	IncrementBelow(ctx context.Context, userID, endpoint string, limit int64, at time.Time) (int64, bool, error)
	// List returns every counter of the user.
	List(ctx context.Context, userID string) ([]Counter, error)
	// DeleteAll removes every counter of the user.
	DeleteAll(ctx context.Context, userID string) error
}
