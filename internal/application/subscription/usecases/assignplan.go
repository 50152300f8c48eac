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

// AssignPlanCommand is an administrative plan change. A zero DurationDays
// keeps the user's current window.
type AssignPlanCommand struct {
	UserID       string
	PlanName     string
	DurationDays int
	AssignedBy   string
}

// AssignPlanUseCase sets a user's plan on behalf of an administrator. Unlike
// Subscribe it accepts inactive plans.
type AssignPlanUseCase struct {
	subscriptions subscription.Repository
	registry      registry.Reader
	changer       *planChanger
	clock         biztime.Clock
	logger        logger.Interface
}

func NewAssignPlanUseCase(
	subscriptions subscription.Repository,
	registry registry.Reader,
	ledger usage.Ledger,
	txMgr db.Transactor,
	clock biztime.Clock,
	logger logger.Interface,
) *AssignPlanUseCase {
	if clock == nil {
		clock = biztime.SystemClock{}
	}
	return &AssignPlanUseCase{
		subscriptions: subscriptions,
		registry:      registry,
		changer:       newPlanChanger(subscriptions, ledger, txMgr, logger),
		clock:         clock,
		logger:        logger,
	}
}

func (uc *AssignPlanUseCase) Execute(ctx context.Context, cmd AssignPlanCommand) (*dto.UserDTO, error) {
	if cmd.DurationDays < 0 || cmd.DurationDays > subscription.MaxDurationDays {
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
	if plan == nil {
		return nil, errors.NewNotFoundError("plan not found")
	}

	if cmd.DurationDays > 0 {
		if _, err := sub.Activate(plan.Name(), uc.clock.Now(), cmd.DurationDays); err != nil {
			return nil, errors.NewValidationError(err.Error())
		}
	} else {
		sub.ChangePlan(plan.Name())
	}

	if err := uc.changer.apply(ctx, sub); err != nil {
		return nil, err
	}

	uc.logger.Infow("plan assigned",
		"user_id", cmd.UserID,
		"plan", plan.Name(),
		"assigned_by", cmd.AssignedBy,
	)

	result := dto.ToUserDTO(sub)
	return &result, nil
}
