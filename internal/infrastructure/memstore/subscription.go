package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/quotagate/quotagate/internal/domain/subscription"
)

var _ subscription.Repository = (*SubscriptionStore)(nil)

type subscriptionRecord struct {
	userID    string
	username  string
	isAdmin   bool
	planName  string
	start     *time.Time
	end       *time.Time
	createdAt time.Time
}

type SubscriptionStore struct {
	mu         sync.RWMutex
	records    map[string]*subscriptionRecord
	byUsername map[string]string
}

func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{
		records:    make(map[string]*subscriptionRecord),
		byUsername: make(map[string]string),
	}
}

func (s *SubscriptionStore) Find(_ context.Context, userID string) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.records[userID]; ok {
		return r.toEntity(), nil
	}
	return nil, nil
}

func (s *SubscriptionStore) FindByUsername(_ context.Context, username string) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.byUsername[username]
	if !ok {
		return nil, nil
	}
	return s.records[userID].toEntity(), nil
}

func (s *SubscriptionStore) Create(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byUsername[sub.Username()]; taken {
		return subscription.ErrUsernameTaken
	}
	if _, exists := s.records[sub.UserID()]; exists {
		return fmt.Errorf("user %s already exists", sub.UserID())
	}
	s.records[sub.UserID()] = &subscriptionRecord{
		userID:    sub.UserID(),
		username:  sub.Username(),
		isAdmin:   sub.IsAdmin(),
		planName:  sub.PlanName(),
		start:     copyTime(sub.Start()),
		end:       copyTime(sub.End()),
		createdAt: sub.CreatedAt(),
	}
	s.byUsername[sub.Username()] = sub.UserID()
	return nil
}

func (s *SubscriptionStore) SetPlan(_ context.Context, userID, planName string, start, end *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[userID]
	if !ok {
		return fmt.Errorf("user %s not found", userID)
	}
	r.planName = planName
	r.start = copyTime(start)
	r.end = copyTime(end)
	return nil
}

func (s *SubscriptionStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.records[userID]; ok {
		delete(s.byUsername, r.username)
		delete(s.records, userID)
	}
	return nil
}

func (r *subscriptionRecord) toEntity() *subscription.Subscription {
	return subscription.ReconstructSubscription(r.userID, r.username, r.isAdmin, r.planName,
		copyTime(r.start), copyTime(r.end), r.createdAt)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
