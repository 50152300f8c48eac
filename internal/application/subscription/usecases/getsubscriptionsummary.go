package usecases

import (
	"context"

	"github.com/quotagate/quotagate/internal/application/subscription/dto"
	"github.com/quotagate/quotagate/internal/domain/registry"
	"github.com/quotagate/quotagate/internal/domain/subscription"
	"github.com/quotagate/quotagate/internal/domain/usage"
	"github.com/quotagate/quotagate/internal/shared/errors"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

type GetSubscriptionSummaryQuery struct {
	UserID string
}

// GetSubscriptionSummaryUseCase reads a user's plan and total usage.
type GetSubscriptionSummaryUseCase struct {
	subscriptions subscription.Reader
	registry      registry.Reader
	ledger        usage.Ledger
	logger        logger.Interface
}

func NewGetSubscriptionSummaryUseCase(
	subscriptions subscription.Reader,
	registry registry.Reader,
	ledger usage.Ledger,
	logger logger.Interface,
) *GetSubscriptionSummaryUseCase {
	return &GetSubscriptionSummaryUseCase{
		subscriptions: subscriptions,
		registry:      registry,
		ledger:        ledger,
		logger:        logger,
	}
}

func (uc *GetSubscriptionSummaryUseCase) Execute(ctx context.Context, query GetSubscriptionSummaryQuery) (*dto.SubscriptionSummaryDTO, error) {
	summary, _, err := uc.load(ctx, query.UserID)
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// load returns the summary together with the counters it was built from.
func (uc *GetSubscriptionSummaryUseCase) load(ctx context.Context, userID string) (*dto.SubscriptionSummaryDTO, []usage.Counter, error) {
	sub, err := uc.subscriptions.Find(ctx, userID)
	if err != nil {
		uc.logger.Errorw("failed to find subscription", "error", err, "user_id", userID)
		return nil, nil, storeError("failed to find subscription", err)
	}
	if sub == nil {
		return nil, nil, errors.NewNotFoundError("user not found")
	}
	if !sub.HasPlan() {
		return nil, nil, errors.NewNotFoundError("no active subscription")
	}

	plan, err := uc.registry.FindPlan(ctx, sub.PlanName())
	if err != nil {
		uc.logger.Errorw("failed to find plan", "error", err, "plan", sub.PlanName())
		return nil, nil, storeError("failed to find plan", err)
	}
	if plan == nil {
		return nil, nil, errors.NewNotFoundError("plan not found")
	}

	counters, err := uc.ledger.List(ctx, userID)
	if err != nil {
		uc.logger.Errorw("failed to list usage", "error", err, "user_id", userID)
		return nil, nil, storeError("failed to list usage", err)
	}

	return &dto.SubscriptionSummaryDTO{
		UserID:     userID,
		Plan:       dto.ToPlanDTO(plan),
		TotalUsage: usage.Total(counters),
		Start:      sub.Start(),
		End:        sub.End(),
	}, counters, nil
}
