package usecases

import (
	"context"
	"time"

	"github.com/quotagate/quotagate/internal/domain/access"
	"github.com/quotagate/quotagate/internal/domain/registry"
	"github.com/quotagate/quotagate/internal/domain/subscription"
	"github.com/quotagate/quotagate/internal/domain/usage"
	"github.com/quotagate/quotagate/internal/shared/biztime"
	"github.com/quotagate/quotagate/internal/shared/errors"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

// CheckAccessCommand asks whether UserID may call Endpoint once.
type CheckAccessCommand struct {
	UserID   string
	Endpoint string
}

// DecisionRecorder observes every finished check. reason is empty on allow.
type DecisionRecorder interface {
	RecordDecision(endpoint string, reason access.DenyReason, elapsed time.Duration)
	RecordFailure(endpoint string, elapsed time.Duration)
}

// CheckAccessUseCase decides allow or deny for one protected call and, on
// allow, records one unit of consumption in the usage ledger.
//
// Per endpoint, the quota comparison and the increment are a single
// conditional ledger operation, so concurrent calls never push a counter
// past the plan's call limit. With QuotaPerPlan the budget spans several
// counters and is read before a plain atomic increment; calls racing across
// different endpoints of one user may then overshoot the limit by the number
// of calls in flight.
type CheckAccessUseCase struct {
	subscriptions subscription.Reader
	registry      registry.Reader
	ledger        usage.Ledger
	clock         biztime.Clock
	scope         access.QuotaScope
	recorder      DecisionRecorder
	logger        logger.Interface
}

func NewCheckAccessUseCase(
	subscriptions subscription.Reader,
	registry registry.Reader,
	ledger usage.Ledger,
	clock biztime.Clock,
	scope access.QuotaScope,
	logger logger.Interface,
) *CheckAccessUseCase {
	if clock == nil {
		clock = biztime.SystemClock{}
	}
	if scope == "" {
		scope = access.QuotaPerEndpoint
	}
	return &CheckAccessUseCase{
		subscriptions: subscriptions,
		registry:      registry,
		ledger:        ledger,
		clock:         clock,
		scope:         scope,
		logger:        logger,
	}
}

// SetDecisionRecorder sets the decision recorder (optional).
func (uc *CheckAccessUseCase) SetDecisionRecorder(recorder DecisionRecorder) {
	uc.recorder = recorder
}

// Execute returns nil when the call is allowed, a *access.DenyError when it
// is rejected and an unavailable AppError when a store could not be reached.
func (uc *CheckAccessUseCase) Execute(ctx context.Context, cmd CheckAccessCommand) error {
	started := time.Now()
	err := uc.check(ctx, cmd)

	if uc.recorder != nil {
		elapsed := time.Since(started)
		if reason, denied := access.ReasonOf(err); denied || err == nil {
			uc.recorder.RecordDecision(cmd.Endpoint, reason, elapsed)
		} else {
			uc.recorder.RecordFailure(cmd.Endpoint, elapsed)
		}
	}

	if reason, denied := access.ReasonOf(err); denied {
		uc.logger.Debugw("access denied",
			"user_id", cmd.UserID,
			"endpoint", cmd.Endpoint,
			"reason", reason,
		)
	}
	return err
}

func (uc *CheckAccessUseCase) check(ctx context.Context, cmd CheckAccessCommand) error {
	sub, err := uc.subscriptions.Find(ctx, cmd.UserID)
	if err != nil {
		return uc.storeFailure("failed to find subscription", err, cmd)
	}
	if sub == nil {
		return access.Deny(access.ReasonUnknownUser, cmd.UserID, cmd.Endpoint)
	}
	if !sub.HasPlan() {
		return access.Deny(access.ReasonNoPlan, cmd.UserID, cmd.Endpoint)
	}

	plan, err := uc.registry.FindPlan(ctx, sub.PlanName())
	if err != nil {
		return uc.storeFailure("failed to find plan", err, cmd)
	}
	if plan == nil || !plan.IsActive() {
		return access.Deny(access.ReasonPlanUnavailable, cmd.UserID, cmd.Endpoint)
	}

	now := uc.clock.Now()
	if sub.IsExpiredAt(now) {
		return access.Deny(access.ReasonSubscriptionExpired, cmd.UserID, cmd.Endpoint)
	}

	endpoint, err := registry.NormalizeEndpoint(cmd.Endpoint)
	if err != nil {
		return access.Deny(access.ReasonUnknownEndpoint, cmd.UserID, cmd.Endpoint)
	}
	perm, err := uc.registry.FindPermissionByEndpoint(ctx, endpoint)
	if err != nil {
		return uc.storeFailure("failed to find permission", err, cmd)
	}
	if perm == nil {
		return access.Deny(access.ReasonUnknownEndpoint, cmd.UserID, cmd.Endpoint)
	}
	if !plan.Grants(perm.Name()) {
		return access.Deny(access.ReasonPermissionDenied, cmd.UserID, cmd.Endpoint)
	}

	if uc.scope == access.QuotaPerPlan {
		return uc.consumePlanBudget(ctx, cmd, endpoint, plan.CallLimit(), now)
	}

	_, allowed, err := uc.ledger.IncrementBelow(ctx, cmd.UserID, endpoint, plan.CallLimit(), now)
	if err != nil {
		return uc.storeFailure("failed to record usage", err, cmd)
	}
	if !allowed {
		return access.Deny(access.ReasonQuotaExceeded, cmd.UserID, cmd.Endpoint)
	}
	return nil
}

func (uc *CheckAccessUseCase) consumePlanBudget(ctx context.Context, cmd CheckAccessCommand, endpoint string, limit int64, now time.Time) error {
	counters, err := uc.ledger.List(ctx, cmd.UserID)
	if err != nil {
		return uc.storeFailure("failed to list usage", err, cmd)
	}
	if usage.Total(counters) >= limit {
		return access.Deny(access.ReasonQuotaExceeded, cmd.UserID, cmd.Endpoint)
	}
	if _, err := uc.ledger.Increment(ctx, cmd.UserID, endpoint, now); err != nil {
		return uc.storeFailure("failed to record usage", err, cmd)
	}
	return nil
}

func (uc *CheckAccessUseCase) storeFailure(msg string, err error, cmd CheckAccessCommand) error {
	uc.logger.Errorw(msg,
		"error", err,
		"user_id", cmd.UserID,
		"endpoint", cmd.Endpoint,
	)
	if appErr := errors.GetAppError(err); appErr != nil {
		return appErr
	}
	return errors.NewUnavailableError(msg, err)
}
