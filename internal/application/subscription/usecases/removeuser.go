package usecases

import (
	"context"

	"github.com/quotagate/quotagate/internal/domain/subscription"
	"github.com/quotagate/quotagate/internal/domain/usage"
	"github.com/quotagate/quotagate/internal/shared/db"
	"github.com/quotagate/quotagate/internal/shared/errors"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

type RemoveUserCommand struct {
	UserID    string
	RemovedBy string
}

// RemoveUserUseCase deletes a user together with all of its usage counters.
type RemoveUserUseCase struct {
	subscriptions subscription.Repository
	ledger        usage.Ledger
	txMgr         db.Transactor
	logger        logger.Interface
}

func NewRemoveUserUseCase(
	subscriptions subscription.Repository,
	ledger usage.Ledger,
	txMgr db.Transactor,
	logger logger.Interface,
) *RemoveUserUseCase {
	if txMgr == nil {
		txMgr = db.NoopTransactor{}
	}
	return &RemoveUserUseCase{
		subscriptions: subscriptions,
		ledger:        ledger,
		txMgr:         txMgr,
		logger:        logger,
	}
}

func (uc *RemoveUserUseCase) Execute(ctx context.Context, cmd RemoveUserCommand) error {
	sub, err := uc.subscriptions.Find(ctx, cmd.UserID)
	if err != nil {
		uc.logger.Errorw("failed to find subscription", "error", err, "user_id", cmd.UserID)
		return storeError("failed to find subscription", err)
	}
	if sub == nil {
		return errors.NewNotFoundError("user not found")
	}

	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.ledger.DeleteAll(txCtx, cmd.UserID); err != nil {
			return storeError("failed to delete usage", err)
		}
		if err := uc.subscriptions.Delete(txCtx, cmd.UserID); err != nil {
			return storeError("failed to delete user", err)
		}
		return nil
	})
	if err != nil {
		uc.logger.Errorw("failed to remove user", "error", err, "user_id", cmd.UserID)
		return err
	}

	uc.logger.Infow("user removed", "user_id", cmd.UserID, "username", sub.Username(), "removed_by", cmd.RemovedBy)
	return nil
}
