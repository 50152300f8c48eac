package usecases

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/quotagate/quotagate/internal/application/subscription/dto"
	"github.com/quotagate/quotagate/internal/domain/registry"
	"github.com/quotagate/quotagate/internal/domain/subscription"
	"github.com/quotagate/quotagate/internal/domain/usage"
	"github.com/quotagate/quotagate/internal/shared/errors"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

type GetUsageReportQuery struct {
	UserID string
}

// GetUsageReportUseCase builds the usage report of any user. A user without a
// resolvable plan still gets a report, with a nil plan.
type GetUsageReportUseCase struct {
	subscriptions subscription.Reader
	registry      registry.Reader
	ledger        usage.Ledger
	logger        logger.Interface
}

func NewGetUsageReportUseCase(
	subscriptions subscription.Reader,
	registry registry.Reader,
	ledger usage.Ledger,
	logger logger.Interface,
) *GetUsageReportUseCase {
	return &GetUsageReportUseCase{
		subscriptions: subscriptions,
		registry:      registry,
		ledger:        ledger,
		logger:        logger,
	}
}

func (uc *GetUsageReportUseCase) Execute(ctx context.Context, query GetUsageReportQuery) (*dto.UsageReportDTO, error) {
	sub, err := uc.subscriptions.Find(ctx, query.UserID)
	if err != nil {
		uc.logger.Errorw("failed to find subscription", "error", err, "user_id", query.UserID)
		return nil, storeError("failed to find subscription", err)
	}
	if sub == nil {
		return nil, errors.NewNotFoundError("user not found")
	}

	var (
		plan     *registry.Plan
		counters []usage.Counter
	)
	g, gctx := errgroup.WithContext(ctx)
	if sub.HasPlan() {
		g.Go(func() error {
			p, err := uc.registry.FindPlan(gctx, sub.PlanName())
			if err != nil {
				return storeError("failed to find plan", err)
			}
			plan = p
			return nil
		})
	}
	g.Go(func() error {
		c, err := uc.ledger.List(gctx, query.UserID)
		if err != nil {
			return storeError("failed to list usage", err)
		}
		counters = c
		return nil
	})
	if err := g.Wait(); err != nil {
		uc.logger.Errorw("failed to load usage report", "error", err, "user_id", query.UserID)
		return nil, err
	}

	report := &dto.UsageReportDTO{
		UserID:   sub.UserID(),
		Username: sub.Username(),
	}
	var callLimit int64
	if plan != nil {
		planDTO := dto.ToPlanDTO(plan)
		report.Plan = &planDTO
		callLimit = plan.CallLimit()
	}

	report.Usage, err = buildUsage(ctx, uc.registry, counters, callLimit)
	if err != nil {
		return nil, err
	}
	return report, nil
}
