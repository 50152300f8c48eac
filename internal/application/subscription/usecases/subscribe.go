package usecases

import (
	"context"

	"github.com/quotagate/quotagate/internal/application/subscription/dto"
	"github.com/quotagate/quotagate/internal/domain/registry"
	"github.com/quotagate/quotagate/internal/domain/subscription"
	"github.com/quotagate/quotagate/internal/domain/usage"
	"github.com/quotagate/quotagate/internal/shared/biztime"
	"github.com/quotagate/quotagate/internal/shared/db"
	"github.com/quotagate/quotagate/internal/shared/errors"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

type SubscribeCommand struct {
	UserID       string
	PlanName     string
	DurationDays int
}

// SubscribeUseCase activates an active plan for a user for a number of days
// and resets the user's usage.
type SubscribeUseCase struct {
	subscriptions subscription.Repository
	registry      registry.Reader
	changer       *planChanger
	clock         biztime.Clock
	logger        logger.Interface
}

func NewSubscribeUseCase(
	subscriptions subscription.Repository,
	registry registry.Reader,
	ledger usage.Ledger,
	txMgr db.Transactor,
	clock biztime.Clock,
	logger logger.Interface,
) *SubscribeUseCase {
	if clock == nil {
		clock = biztime.SystemClock{}
	}
	return &SubscribeUseCase{
		subscriptions: subscriptions,
		registry:      registry,
		changer:       newPlanChanger(subscriptions, ledger, txMgr, logger),
		clock:         clock,
		logger:        logger,
	}
}

func (uc *SubscribeUseCase) Execute(ctx context.Context, cmd SubscribeCommand) (*dto.SubscriptionWindowDTO, error) {
	if !subscription.ValidDuration(cmd.DurationDays) {
		return nil, errors.NewValidationError(subscription.ErrInvalidDuration.Error())
	}

	sub, err := uc.subscriptions.Find(ctx, cmd.UserID)
	if err != nil {
		uc.logger.Errorw("failed to find subscription", "error", err, "user_id", cmd.UserID)
		return nil, storeError("failed to find subscription", err)
	}
	if sub == nil {
		return nil, errors.NewNotFoundError("user not found")
	}

	plan, err := uc.registry.FindPlan(ctx, cmd.PlanName)
	if err != nil {
		uc.logger.Errorw("failed to find plan", "error", err, "plan", cmd.PlanName)
		return nil, storeError("failed to find plan", err)
	}
	if plan == nil || !plan.IsActive() {
		return nil, errors.NewNotFoundError("plan not found or inactive")
	}

	window, err := sub.Activate(plan.Name(), uc.clock.Now(), cmd.DurationDays)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if err := uc.changer.apply(ctx, sub); err != nil {
		return nil, err
	}

	uc.logger.Infow("subscription activated",
		"user_id", cmd.UserID,
		"plan", plan.Name(),
		"subscription_end", window.End,
	)

	return &dto.SubscriptionWindowDTO{
		UserID:   sub.UserID(),
		PlanName: plan.Name(),
		Start:    window.Start,
		End:      window.End,
	}, nil
}
