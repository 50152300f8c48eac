package usecases

import (
	"context"

	"github.com/quotagate/quotagate/internal/application/subscription/dto"
	"github.com/quotagate/quotagate/internal/domain/registry"
	"github.com/quotagate/quotagate/internal/domain/subscription"
	"github.com/quotagate/quotagate/internal/domain/usage"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

type GetSubscriptionDetailsQuery struct {
	UserID string
}

// GetSubscriptionDetailsUseCase extends the summary with a per-endpoint
// usage breakdown.
type GetSubscriptionDetailsUseCase struct {
	summary  *GetSubscriptionSummaryUseCase
	registry registry.Reader
}

func NewGetSubscriptionDetailsUseCase(
	subscriptions subscription.Reader,
	registry registry.Reader,
	ledger usage.Ledger,
	logger logger.Interface,
) *GetSubscriptionDetailsUseCase {
	return &GetSubscriptionDetailsUseCase{
		summary:  NewGetSubscriptionSummaryUseCase(subscriptions, registry, ledger, logger),
		registry: registry,
	}
}

func (uc *GetSubscriptionDetailsUseCase) Execute(ctx context.Context, query GetSubscriptionDetailsQuery) (*dto.SubscriptionDetailsDTO, error) {
	summary, counters, err := uc.summary.load(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	usageDTO, err := buildUsage(ctx, uc.registry, counters, summary.Plan.CallLimit)
	if err != nil {
		return nil, err
	}

	return &dto.SubscriptionDetailsDTO{
		SubscriptionSummaryDTO: *summary,
		Usage:                  usageDTO,
	}, nil
}
