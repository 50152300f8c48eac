package http

import (
	"context"
	"fmt"

	accessUsecases "github.com/quotagate/quotagate/internal/application/access/usecases"
	registryUsecases "github.com/quotagate/quotagate/internal/application/registry/usecases"
	subUsecases "github.com/quotagate/quotagate/internal/application/subscription/usecases"
	"github.com/quotagate/quotagate/internal/domain/access"
	"github.com/quotagate/quotagate/internal/infrastructure/auth"
	"github.com/quotagate/quotagate/internal/infrastructure/config"
	"github.com/quotagate/quotagate/internal/infrastructure/metrics"
	"github.com/quotagate/quotagate/internal/infrastructure/permission"
	"github.com/quotagate/quotagate/internal/infrastructure/ratelimit"
	"github.com/quotagate/quotagate/internal/infrastructure/storage"
	"github.com/quotagate/quotagate/internal/shared/biztime"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

// Container holds the use cases and services of one process, wired on top
// of the configured stores.
type Container struct {
	Stores     *storage.Stores
	JWTService *auth.JWTService
	Enforcer   *permission.Enforcer
	Metrics    *metrics.Metrics
	// RateLimiter is nil when rate limiting is disabled.
	RateLimiter ratelimit.RateLimiter

	CheckAccess    *accessUsecases.CheckAccessUseCase
	Subscribe      *subUsecases.SubscribeUseCase
	AssignPlan     *subUsecases.AssignPlanUseCase
	GetSummary     *subUsecases.GetSubscriptionSummaryUseCase
	GetDetails     *subUsecases.GetSubscriptionDetailsUseCase
	GetUsageReport *subUsecases.GetUsageReportUseCase
	CreateUser     *subUsecases.CreateUserUseCase
	RemoveUser     *subUsecases.RemoveUserUseCase
	ApplyRegistry  *registryUsecases.ApplyRegistryUseCase
}

func NewContainer(ctx context.Context, cfg *config.Config, stores *storage.Stores, log logger.Interface) (*Container, error) {
	scope, err := access.ParseQuotaScope(cfg.Access.QuotaScope)
	if err != nil {
		return nil, err
	}

	enforcer, err := permission.NewEnforcer(stores.DB, log.Named("permission"))
	if err != nil {
		return nil, err
	}
	if err := enforcer.SeedDefaults(); err != nil {
		return nil, fmt.Errorf("failed to seed permission policies: %w", err)
	}

	clock := biztime.SystemClock{}
	m := metrics.New()

	c := &Container{
		Stores:     stores,
		JWTService: auth.NewJWTService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.Issuer, cfg.Auth.JWT.AccessExpMinutes),
		Enforcer:   enforcer,
		Metrics:    m,

		CheckAccess:    accessUsecases.NewCheckAccessUseCase(stores.Subscriptions, stores.Registry, stores.Ledger, clock, scope, log.Named("access")),
		Subscribe:      subUsecases.NewSubscribeUseCase(stores.Subscriptions, stores.Registry, stores.Ledger, stores.Transactor, clock, log),
		AssignPlan:     subUsecases.NewAssignPlanUseCase(stores.Subscriptions, stores.Registry, stores.Ledger, stores.Transactor, clock, log),
		GetSummary:     subUsecases.NewGetSubscriptionSummaryUseCase(stores.Subscriptions, stores.Registry, stores.Ledger, log),
		GetDetails:     subUsecases.NewGetSubscriptionDetailsUseCase(stores.Subscriptions, stores.Registry, stores.Ledger, log),
		GetUsageReport: subUsecases.NewGetUsageReportUseCase(stores.Subscriptions, stores.Registry, stores.Ledger, log),
		CreateUser:     subUsecases.NewCreateUserUseCase(stores.Subscriptions, clock, log),
		RemoveUser:     subUsecases.NewRemoveUserUseCase(stores.Subscriptions, stores.Ledger, stores.Transactor, log),
		ApplyRegistry:  registryUsecases.NewApplyRegistryUseCase(stores.Registry, stores.Subscriptions, stores.Ledger, stores.Transactor, clock, log.Named("registry")),
	}
	c.CheckAccess.SetDecisionRecorder(m)

	if cfg.RateLimit.Enabled {
		client, err := stores.RedisClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		c.RateLimiter = ratelimit.NewRedisRateLimiter(client)
	}

	return c, nil
}
