package usecases

import (
	"context"

	"github.com/quotagate/quotagate/internal/domain/subscription"
	"github.com/quotagate/quotagate/internal/domain/usage"
	"github.com/quotagate/quotagate/internal/shared/db"
	"github.com/quotagate/quotagate/internal/shared/errors"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

// planChanger writes a new plan assignment and wipes the user's usage. Every
// change of a user's plan goes through it.
type planChanger struct {
	subscriptions subscription.Repository
	ledger        usage.Ledger
	txMgr         db.Transactor
	logger        logger.Interface
}

func newPlanChanger(
	subscriptions subscription.Repository,
	ledger usage.Ledger,
	txMgr db.Transactor,
	logger logger.Interface,
) *planChanger {
	if txMgr == nil {
		txMgr = db.NoopTransactor{}
	}
	return &planChanger{
		subscriptions: subscriptions,
		ledger:        ledger,
		txMgr:         txMgr,
		logger:        logger,
	}
}

// apply persists sub's plan and window, then deletes all of its counters.
// A failed reset rolls back the plan write when the store is transactional.
func (c *planChanger) apply(ctx context.Context, sub *subscription.Subscription) error {
	err := c.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := c.subscriptions.SetPlan(txCtx, sub.UserID(), sub.PlanName(), sub.Start(), sub.End()); err != nil {
			return storeError("failed to update subscription", err)
		}
		if err := c.ledger.DeleteAll(txCtx, sub.UserID()); err != nil {
			return storeError("failed to reset usage", err)
		}
		return nil
	})
	if err != nil {
		c.logger.Errorw("failed to change plan", "error", err, "user_id", sub.UserID(), "plan", sub.PlanName())
		return err
	}

	c.logger.Infow("plan changed and usage reset", "user_id", sub.UserID(), "plan", sub.PlanName())
	return nil
}

// storeError keeps AppErrors and turns anything else into a transient error.
func storeError(msg string, err error) error {
	if appErr := errors.GetAppError(err); appErr != nil {
		return appErr
	}
	return errors.NewUnavailableError(msg, err)
}
