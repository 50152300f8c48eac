package dto

import (
	"time"

	"github.com/quotagate/quotagate/internal/domain/registry"
	"github.com/quotagate/quotagate/internal/domain/subscription"
	"github.com/quotagate/quotagate/internal/shared/mapper"
)

type SubscriptionWindowDTO struct {
	UserID   string    `json:"user_id"`
	PlanName string    `json:"plan_name"`
	Start    time.Time `json:"subscription_start"`
	End      time.Time `json:"subscription_end"`
}

type PlanDTO struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	CallLimit   int64     `json:"call_limit"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by"`
}

type PermissionDTO struct {
	Name        string    `json:"name"`
	Endpoint    string    `json:"endpoint"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by"`
}

type UserDTO struct {
	UserID    string     `json:"user_id"`
	Username  string     `json:"username"`
	IsAdmin   bool       `json:"is_admin"`
	PlanName  string     `json:"plan_name,omitempty"`
	Start     *time.Time `json:"subscription_start,omitempty"`
	End       *time.Time `json:"subscription_end,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// SubscriptionSummaryDTO is the plan and aggregate usage of one user.
type SubscriptionSummaryDTO struct {
	UserID     string     `json:"user_id"`
	Plan       PlanDTO    `json:"plan"`
	TotalUsage int64      `json:"total_usage"`
	Start      *time.Time `json:"subscription_start"`
	End        *time.Time `json:"subscription_end"`
}

type EndpointUsageDTO struct {
	Endpoint       string    `json:"endpoint"`
	PermissionName string    `json:"permission_name"`
	Count          int64     `json:"count"`
	LastAccess     time.Time `json:"last_access"`
}

type UsageDTO struct {
	TotalCalls      int64              `json:"total_calls"`
	ByEndpoint      []EndpointUsageDTO `json:"by_endpoint"`
	UsagePercentage float64            `json:"usage_percentage"`
}

type SubscriptionDetailsDTO struct {
	SubscriptionSummaryDTO
	Usage UsageDTO `json:"usage"`
}

// UsageReportDTO is the administrative usage view of one user. Plan is nil
// when the user has no plan or the plan no longer exists.
type UsageReportDTO struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Plan     *PlanDTO `json:"plan"`
	Usage    UsageDTO `json:"usage"`
}

func ToPlanDTO(plan *registry.Plan) PlanDTO {
	return PlanDTO{
		Name:        plan.Name(),
		Description: plan.Description(),
		Permissions: plan.Permissions(),
		CallLimit:   plan.CallLimit(),
		IsActive:    plan.IsActive(),
		CreatedAt:   plan.CreatedAt(),
		CreatedBy:   plan.CreatedBy(),
	}
}

func ToPlanDTOList(plans []*registry.Plan) []PlanDTO {
	return mapper.MapSlicePtr(plans, ToPlanDTO)
}

func ToPermissionDTO(perm *registry.Permission) PermissionDTO {
	return PermissionDTO{
		Name:        perm.Name(),
		Endpoint:    perm.Endpoint(),
		Description: perm.Description(),
		CreatedAt:   perm.CreatedAt(),
		CreatedBy:   perm.CreatedBy(),
	}
}

func ToPermissionDTOList(perms []*registry.Permission) []PermissionDTO {
	return mapper.MapSlicePtr(perms, ToPermissionDTO)
}

func ToUserDTO(sub *subscription.Subscription) UserDTO {
	return UserDTO{
		UserID:    sub.UserID(),
		Username:  sub.Username(),
		IsAdmin:   sub.IsAdmin(),
		PlanName:  sub.PlanName(),
		Start:     sub.Start(),
		End:       sub.End(),
		CreatedAt: sub.CreatedAt(),
	}
}

// UsagePercentage returns total as a percentage of callLimit, or 0 when the
// limit is zero.
func UsagePercentage(total, callLimit int64) float64 {
	if callLimit <= 0 {
		return 0
	}
	return float64(total) / float64(callLimit) * 100
}
