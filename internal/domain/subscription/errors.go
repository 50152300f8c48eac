package subscription

import (
	"errors"
	"fmt"
)

// MaxDurationDays bounds a subscription window to keep its end storable in
// every backend.
const MaxDurationDays = 36500

var (
	ErrInvalidDuration = fmt.Errorf("duration must be between 1 and %d days", MaxDurationDays)
	ErrUsernameTaken   = errors.New("username already exists")
)
