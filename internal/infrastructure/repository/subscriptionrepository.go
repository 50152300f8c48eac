package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/quotagate/quotagate/internal/domain/subscription"
	"github.com/quotagate/quotagate/internal/infrastructure/persistence/mappers"
	"github.com/quotagate/quotagate/internal/infrastructure/persistence/models"
	"github.com/quotagate/quotagate/internal/shared/biztime"
	"github.com/quotagate/quotagate/internal/shared/db"
	apperrors "github.com/quotagate/quotagate/internal/shared/errors"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

var _ subscription.Repository = (*SubscriptionRepositoryImpl)(nil)

type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.SubscriptionMapper
	clock  biztime.Clock
	logger logger.Interface
}

func NewSubscriptionRepository(db *gorm.DB, clock biztime.Clock, logger logger.Interface) *SubscriptionRepositoryImpl {
	if clock == nil {
		clock = biztime.SystemClock{}
	}
	return &SubscriptionRepositoryImpl{
		db:     db,
		mapper: mappers.NewSubscriptionMapper(),
		clock:  clock,
		logger: logger,
	}
}

func (r *SubscriptionRepositoryImpl) Find(ctx context.Context, userID string) (*subscription.Subscription, error) {
	return r.findBy(ctx, "user_id = ?", userID)
}

func (r *SubscriptionRepositoryImpl) FindByUsername(ctx context.Context, username string) (*subscription.Subscription, error) {
	return r.findBy(ctx, "username = ?", username)
}

func (r *SubscriptionRepositoryImpl) findBy(ctx context.Context, query string, arg string) (*subscription.Subscription, error) {
	var model models.SubscriptionModel
	if err := db.GetTxFromContext(ctx, r.db).Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get subscription", "error", err, "key", arg)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return r.mapper.ToEntity(&model), nil
}

func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, sub *subscription.Subscription) error {
	model := r.mapper.ToModel(sub)
	model.UpdatedAt = model.CreatedAt

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return subscription.ErrUsernameTaken
		}
		r.logger.Errorw("failed to create subscription", "error", err, "user_id", sub.UserID())
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return nil
}

func (r *SubscriptionRepositoryImpl) SetPlan(ctx context.Context, userID, planName string, start, end *time.Time) error {
	result := db.GetTxFromContext(ctx, r.db).Model(&models.SubscriptionModel{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"plan_name":          mappers.PlanNamePtr(planName),
			"subscription_start": start,
			"subscription_end":   end,
			"updated_at":         r.clock.Now(),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update subscription plan", "error", result.Error, "user_id", userID)
		return fmt.Errorf("failed to update subscription plan: %w", result.Error)
	}

	return nil
}

func (r *SubscriptionRepositoryImpl) Delete(ctx context.Context, userID string) error {
	if err := db.GetTxFromContext(ctx, r.db).Where("user_id = ?", userID).Delete(&models.SubscriptionModel{}).Error; err != nil {
		r.logger.Errorw("failed to delete subscription", "error", err, "user_id", userID)
		return fmt.Errorf("failed to delete subscription: %w", err)
	}

	return nil
}
