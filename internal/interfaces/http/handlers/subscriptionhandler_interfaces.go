package handlers

import (
	"context"

	subdto "github.com/quotagate/quotagate/internal/application/subscription/dto"
	"github.com/quotagate/quotagate/internal/application/subscription/usecases"
)

// Use case interfaces for SubscriptionHandler and AdminHandler

type subscribeUseCase interface {
	Execute(ctx context.Context, cmd usecases.SubscribeCommand) (*subdto.SubscriptionWindowDTO, error)
}

type getSubscriptionSummaryUseCase interface {
	Execute(ctx context.Context, query usecases.GetSubscriptionSummaryQuery) (*subdto.SubscriptionSummaryDTO, error)
}

type getSubscriptionDetailsUseCase interface {
	Execute(ctx context.Context, query usecases.GetSubscriptionDetailsQuery) (*subdto.SubscriptionDetailsDTO, error)
}

type getUsageReportUseCase interface {
	Execute(ctx context.Context, query usecases.GetUsageReportQuery) (*subdto.UsageReportDTO, error)
}

type createUserUseCase interface {
	Execute(ctx context.Context, cmd usecases.CreateUserCommand) (*subdto.UserDTO, error)
}

type assignPlanUseCase interface {
	Execute(ctx context.Context, cmd usecases.AssignPlanCommand) (*subdto.UserDTO, error)
}

type removeUserUseCase interface {
	Execute(ctx context.Context, cmd usecases.RemoveUserCommand) error
}
