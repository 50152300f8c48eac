package subscription

import (
	"fmt"
	"strings"
	"time"
)

// Window is the validity period of an activated plan.
type Window struct {
	Start time.Time
	End   time.Time
}

// Subscription is a user's current plan assignment. A user always has one,
// created with no plan.
type Subscription struct {
	userID    string
	username  string
	isAdmin   bool
	planName  string
	start     *time.Time
	end       *time.Time
	createdAt time.Time
}

func NewSubscription(userID, username string, isAdmin bool, now time.Time) (*Subscription, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("username is required")
	}
	return &Subscription{
		userID:    userID,
		username:  username,
		isAdmin:   isAdmin,
		createdAt: now,
	}, nil
}

func ReconstructSubscription(userID, username string, isAdmin bool, planName string,
	start, end *time.Time, createdAt time.Time) *Subscription {
	return &Subscription{
		userID:    userID,
		username:  username,
		isAdmin:   isAdmin,
		planName:  planName,
		start:     start,
		end:       end,
		createdAt: createdAt,
	}
}

func (s *Subscription) UserID() string       { return s.userID }
func (s *Subscription) Username() string     { return s.username }
func (s *Subscription) IsAdmin() bool        { return s.isAdmin }
func (s *Subscription) PlanName() string     { return s.planName }
func (s *Subscription) CreatedAt() time.Time { return s.createdAt }

func (s *Subscription) HasPlan() bool {
	return s.planName != ""
}

// Start returns the start of the validity window, or nil when unset.
func (s *Subscription) Start() *time.Time {
	return s.start
}

// End returns the end of the validity window, or nil when unset.
func (s *Subscription) End() *time.Time {
	return s.end
}

// IsExpiredAt reports whether the window ended strictly before now. A window
// ending exactly at now is still valid; an unset end never expires.
func (s *Subscription) IsExpiredAt(now time.Time) bool {
	return s.end != nil && s.end.Before(now)
}

// ValidDuration reports whether days is an acceptable window length.
func ValidDuration(days int) bool {
	return days > 0 && days <= MaxDurationDays
}

// Activate assigns planName for days calendar days starting at now.
func (s *Subscription) Activate(planName string, now time.Time, days int) (Window, error) {
	if !ValidDuration(days) {
		return Window{}, ErrInvalidDuration
	}
	w := Window{Start: now, End: now.AddDate(0, 0, days)}
	start, end := w.Start, w.End
	s.planName = planName
	s.start = &start
	s.end = &end
	return w, nil
}

// ChangePlan swaps the plan and keeps the current window.
func (s *Subscription) ChangePlan(planName string) {
	s.planName = planName
}
