package usecases

import (
	"context"
	"fmt"
	"sort"
	"time"

	subusecases "github.com/quotagate/quotagate/internal/application/subscription/usecases"
	"github.com/quotagate/quotagate/internal/domain/registry"
	"github.com/quotagate/quotagate/internal/domain/subscription"
	"github.com/quotagate/quotagate/internal/domain/usage"
	"github.com/quotagate/quotagate/internal/shared/biztime"
	"github.com/quotagate/quotagate/internal/shared/db"
	"github.com/quotagate/quotagate/internal/shared/errors"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

type PermissionSpec struct {
	Name        string
	Endpoint    string
	Description string
}

type PlanSpec struct {
	Name        string
	Description string
	Permissions []string
	CallLimit   int64
	Inactive    bool
}

// UserSpec provisions a user when its username is unknown. Plan, when set,
// is assigned only to newly created users so that re-applying a document
// never resets usage.
type UserSpec struct {
	UserID       string
	Username     string
	IsAdmin      bool
	Plan         string
	DurationDays int
}

type ApplyRegistryCommand struct {
	Permissions []PermissionSpec
	Plans       []PlanSpec
	Users       []UserSpec
	AppliedBy   string
}

type ApplyRegistryResult struct {
	Permissions  int `json:"permissions"`
	Plans        int `json:"plans"`
	UsersCreated int `json:"users_created"`
	UsersSkipped int `json:"users_skipped"`
}

// ApplyRegistryUseCase upserts permissions and plans and provisions users
// from a declarative document. The document is validated as a whole before
// anything is written.
type ApplyRegistryUseCase struct {
	registry      registry.Repository
	subscriptions subscription.Repository
	createUser    *subusecases.CreateUserUseCase
	assignPlan    *subusecases.AssignPlanUseCase
	txMgr         db.Transactor
	clock         biztime.Clock
	logger        logger.Interface
}

func NewApplyRegistryUseCase(
	registry registry.Repository,
	subscriptions subscription.Repository,
	ledger usage.Ledger,
	txMgr db.Transactor,
	clock biztime.Clock,
	logger logger.Interface,
) *ApplyRegistryUseCase {
	if txMgr == nil {
		txMgr = db.NoopTransactor{}
	}
	if clock == nil {
		clock = biztime.SystemClock{}
	}
	return &ApplyRegistryUseCase{
		registry:      registry,
		subscriptions: subscriptions,
		createUser:    subusecases.NewCreateUserUseCase(subscriptions, clock, logger),
		assignPlan:    subusecases.NewAssignPlanUseCase(subscriptions, registry, ledger, txMgr, clock, logger),
		txMgr:         txMgr,
		clock:         clock,
		logger:        logger,
	}
}

func (uc *ApplyRegistryUseCase) Execute(ctx context.Context, cmd ApplyRegistryCommand) (*ApplyRegistryResult, error) {
	now := uc.clock.Now()

	perms, plans, err := uc.build(ctx, cmd, now)
	if err != nil {
		return nil, err
	}

	result := &ApplyRegistryResult{}
	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		for _, p := range perms {
			if err := uc.registry.SavePermission(txCtx, p); err != nil {
				return fmt.Errorf("failed to save permission %s: %w", p.Name(), err)
			}
		}
		for _, p := range plans {
			if err := uc.registry.SavePlan(txCtx, p); err != nil {
				return fmt.Errorf("failed to save plan %s: %w", p.Name(), err)
			}
		}
		return nil
	})
	if err != nil {
		uc.logger.Errorw("failed to apply registry", "error", err)
		return nil, errors.NewUnavailableError("failed to apply registry", err)
	}
	result.Permissions = len(perms)
	result.Plans = len(plans)

	for _, u := range cmd.Users {
		created, err := uc.provisionUser(ctx, u, cmd.AppliedBy)
		if err != nil {
			return result, err
		}
		if created {
			result.UsersCreated++
		} else {
			result.UsersSkipped++
		}
	}

	uc.logger.Infow("registry applied",
		"permissions", result.Permissions,
		"plans", result.Plans,
		"users_created", result.UsersCreated,
		"users_skipped", result.UsersSkipped,
		"applied_by", cmd.AppliedBy,
	)
	return result, nil
}

// build turns the document into entities and checks that every plan only
// names permissions that are stored or defined in the same document.
func (uc *ApplyRegistryUseCase) build(ctx context.Context, cmd ApplyRegistryCommand, now time.Time) ([]*registry.Permission, []*registry.Plan, error) {
	known := make(map[string]struct{})
	existing, err := uc.registry.ListPermissions(ctx)
	if err != nil {
		uc.logger.Errorw("failed to list permissions", "error", err)
		return nil, nil, errors.NewUnavailableError("failed to list permissions", err)
	}
	for _, p := range existing {
		known[p.Name()] = struct{}{}
	}

	var details []string
	endpoints := make(map[string]string)
	perms := make([]*registry.Permission, 0, len(cmd.Permissions))
	for _, spec := range cmd.Permissions {
		p, err := registry.NewPermission(spec.Name, spec.Endpoint, spec.Description, cmd.AppliedBy, now)
		if err != nil {
			details = append(details, fmt.Sprintf("permission %q: %v", spec.Name, err))
			continue
		}
		if other, dup := endpoints[p.Endpoint()]; dup && other != p.Name() {
			details = append(details, fmt.Sprintf("endpoint %s is bound to both %q and %q", p.Endpoint(), other, p.Name()))
			continue
		}
		endpoints[p.Endpoint()] = p.Name()
		known[p.Name()] = struct{}{}
		perms = append(perms, p)
	}

	plans := make([]*registry.Plan, 0, len(cmd.Plans))
	for _, spec := range cmd.Plans {
		p, err := registry.NewPlan(spec.Name, spec.Description, spec.Permissions, spec.CallLimit, cmd.AppliedBy, now)
		if err != nil {
			details = append(details, fmt.Sprintf("plan %q: %v", spec.Name, err))
			continue
		}
		if missing := p.MissingPermissions(known); len(missing) > 0 {
			sort.Strings(missing)
			details = append(details, fmt.Sprintf("plan %q references unknown permissions %v", spec.Name, missing))
			continue
		}
		if spec.Inactive {
			p.Deactivate()
		}
		plans = append(plans, p)
	}

	planNames := make(map[string]struct{}, len(plans))
	for _, p := range plans {
		planNames[p.Name()] = struct{}{}
	}
	for _, u := range cmd.Users {
		if u.Plan == "" {
			continue
		}
		if _, ok := planNames[u.Plan]; ok {
			continue
		}
		stored, err := uc.registry.FindPlan(ctx, u.Plan)
		if err != nil {
			uc.logger.Errorw("failed to find plan", "error", err, "plan", u.Plan)
			return nil, nil, errors.NewUnavailableError("failed to find plan", err)
		}
		if stored == nil {
			details = append(details, fmt.Sprintf("user %q references unknown plan %q", u.Username, u.Plan))
		}
	}

	if len(details) > 0 {
		return nil, nil, errors.NewValidationError("invalid registry document", details...)
	}
	return perms, plans, nil
}

func (uc *ApplyRegistryUseCase) provisionUser(ctx context.Context, spec UserSpec, appliedBy string) (bool, error) {
	existing, err := uc.subscriptions.FindByUsername(ctx, spec.Username)
	if err != nil {
		uc.logger.Errorw("failed to find user", "error", err, "username", spec.Username)
		return false, errors.NewUnavailableError("failed to find user", err)
	}
	if existing != nil {
		return false, nil
	}

	user, err := uc.createUser.Execute(ctx, subusecases.CreateUserCommand{
		UserID:   spec.UserID,
		Username: spec.Username,
		IsAdmin:  spec.IsAdmin,
	})
	if err != nil {
		return false, err
	}
	if spec.Plan == "" {
		return true, nil
	}

	_, err = uc.assignPlan.Execute(ctx, subusecases.AssignPlanCommand{
		UserID:       user.UserID,
		PlanName:     spec.Plan,
		DurationDays: spec.DurationDays,
		AssignedBy:   appliedBy,
	})
	return true, err
}
