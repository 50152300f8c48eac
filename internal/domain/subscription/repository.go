package subscription

import (
	"context"
	"time"
)

// Reader is the read side consumed by access decisions. Find returns nil,
// nil for an unknown user.
type Reader interface {
	Find(ctx context.Context, userID string) (*Subscription, error)
}

type Repository interface {
	Reader
	FindByUsername(ctx context.Context, username string) (*Subscription, error)
	// Create stores a new user record. It returns ErrUsernameTaken when the
	// username is in use.
	Create(ctx context.Context, sub *Subscription) error
	// SetPlan writes plan name and window for an existing user. start and
	// end may be nil to keep the window unset.
	SetPlan(ctx context.Context, userID, planName string, start, end *time.Time) error
	// Delete removes the user record. Deleting an unknown user is not an error.
	Delete(ctx context.Context, userID string) error
}
