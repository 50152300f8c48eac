package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/quotagate/quotagate/internal/domain/subscription"
	"github.com/quotagate/quotagate/internal/shared/biztime"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

var _ subscription.Repository = (*SubscriptionStore)(nil)

type SubscriptionStore struct {
	subscriptions *mongo.Collection
	clock         biztime.Clock
	logger        logger.Interface
}

func NewSubscriptionStore(db *mongo.Database, clock biztime.Clock, logger logger.Interface) *SubscriptionStore {
	if clock == nil {
		clock = biztime.SystemClock{}
	}
	return &SubscriptionStore{
		subscriptions: db.Collection(colSubscriptions),
		clock:         clock,
		logger:        logger,
	}
}

func (s *SubscriptionStore) Find(ctx context.Context, userID string) (*subscription.Subscription, error) {
	return s.findOne(ctx, bson.M{"_id": userID})
}

func (s *SubscriptionStore) FindByUsername(ctx context.Context, username string) (*subscription.Subscription, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *SubscriptionStore) findOne(ctx context.Context, filter bson.M) (*subscription.Subscription, error) {
	var doc subscriptionDoc
	if err := s.subscriptions.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		s.logger.Errorw("failed to get subscription", "error", err, "filter", filter)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return subscription.ReconstructSubscription(doc.UserID, doc.Username, doc.IsAdmin, doc.PlanName,
		utcPtr(doc.SubscriptionStart), utcPtr(doc.SubscriptionEnd), doc.CreatedAt.UTC()), nil
}

func (s *SubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	doc := subscriptionDoc{
		UserID:            sub.UserID(),
		Username:          sub.Username(),
		IsAdmin:           sub.IsAdmin(),
		PlanName:          sub.PlanName(),
		SubscriptionStart: sub.Start(),
		SubscriptionEnd:   sub.End(),
		CreatedAt:         sub.CreatedAt(),
		UpdatedAt:         sub.CreatedAt(),
	}
	if _, err := s.subscriptions.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return subscription.ErrUsernameTaken
		}
		s.logger.Errorw("failed to create subscription", "error", err, "user_id", sub.UserID())
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

func (s *SubscriptionStore) SetPlan(ctx context.Context, userID, planName string, start, end *time.Time) error {
	set := bson.M{"updated_at": s.clock.Now()}
	unset := bson.M{}
	if planName != "" {
		set["plan_name"] = planName
	} else {
		unset["plan_name"] = ""
	}
	if start != nil {
		set["subscription_start"] = *start
	} else {
		unset["subscription_start"] = ""
	}
	if end != nil {
		set["subscription_end"] = *end
	} else {
		unset["subscription_end"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	if _, err := s.subscriptions.UpdateOne(ctx, bson.M{"_id": userID}, update); err != nil {
		s.logger.Errorw("failed to update subscription plan", "error", err, "user_id", userID)
		return fmt.Errorf("failed to update subscription plan: %w", err)
	}
	return nil
}

func (s *SubscriptionStore) Delete(ctx context.Context, userID string) error {
	if _, err := s.subscriptions.DeleteOne(ctx, bson.M{"_id": userID}); err != nil {
		s.logger.Errorw("failed to delete subscription", "error", err, "user_id", userID)
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
