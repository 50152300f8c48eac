package mappers

import (
	"github.com/quotagate/quotagate/internal/domain/subscription"
	"github.com/quotagate/quotagate/internal/infrastructure/persistence/models"
)

// SubscriptionMapper handles the conversion between subscription entities and
// persistence models
type SubscriptionMapper interface {
	ToEntity(model *models.SubscriptionModel) *subscription.Subscription
	ToModel(entity *subscription.Subscription) *models.SubscriptionModel
}

type subscriptionMapper struct{}

// NewSubscriptionMapper creates a new subscription mapper
func NewSubscriptionMapper() SubscriptionMapper {
	return &subscriptionMapper{}
}

func (m *subscriptionMapper) ToEntity(model *models.SubscriptionModel) *subscription.Subscription {
	if model == nil {
		return nil
	}

	var planName string
	if model.PlanName != nil {
		planName = *model.PlanName
	}

	return subscription.ReconstructSubscription(
		model.UserID,
		model.Username,
		model.IsAdmin,
		planName,
		utcPtr(model.SubscriptionStart),
		utcPtr(model.SubscriptionEnd),
		model.CreatedAt.UTC(),
	)
}

func (m *subscriptionMapper) ToModel(entity *subscription.Subscription) *models.SubscriptionModel {
	if entity == nil {
		return nil
	}

	return &models.SubscriptionModel{
		UserID:            entity.UserID(),
		Username:          entity.Username(),
		IsAdmin:           entity.IsAdmin(),
		PlanName:          PlanNamePtr(entity.PlanName()),
		SubscriptionStart: entity.Start(),
		SubscriptionEnd:   entity.End(),
		CreatedAt:         entity.CreatedAt(),
	}
}

// PlanNamePtr maps the empty plan name to NULL.
func PlanNamePtr(name string) *string {
	if name == "" {
		return nil
	}
	return &name
}
