package usecases

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/quotagate/quotagate/internal/application/subscription/dto"
	"github.com/quotagate/quotagate/internal/domain/subscription"
	"github.com/quotagate/quotagate/internal/shared/biztime"
	"github.com/quotagate/quotagate/internal/shared/errors"
	"github.com/quotagate/quotagate/internal/shared/id"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

// CreateUserCommand provisions a user without a plan. UserID is generated
// when empty.
type CreateUserCommand struct {
	UserID   string
	Username string
	IsAdmin  bool
}

type CreateUserUseCase struct {
	subscriptions subscription.Repository
	clock         biztime.Clock
	logger        logger.Interface
}

func NewCreateUserUseCase(
	subscriptions subscription.Repository,
	clock biztime.Clock,
	logger logger.Interface,
) *CreateUserUseCase {
	if clock == nil {
		clock = biztime.SystemClock{}
	}
	return &CreateUserUseCase{
		subscriptions: subscriptions,
		clock:         clock,
		logger:        logger,
	}
}

func (uc *CreateUserUseCase) Execute(ctx context.Context, cmd CreateUserCommand) (*dto.UserDTO, error) {
	now := uc.clock.Now()
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		userID = id.NewWithPrefix(id.PrefixUser, now)
	}

	sub, err := subscription.NewSubscription(userID, strings.TrimSpace(cmd.Username), cmd.IsAdmin, now)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	if err := uc.subscriptions.Create(ctx, sub); err != nil {
		if stderrors.Is(err, subscription.ErrUsernameTaken) || errors.IsDuplicateError(err) {
			return nil, errors.NewConflictError("username already exists", sub.Username())
		}
		uc.logger.Errorw("failed to create user", "error", err, "username", sub.Username())
		return nil, storeError("failed to create user", err)
	}

	uc.logger.Infow("user created", "user_id", sub.UserID(), "username", sub.Username(), "is_admin", sub.IsAdmin())

	result := dto.ToUserDTO(sub)
	return &result, nil
}
