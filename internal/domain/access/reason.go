package access

import (
	"errors"
	"fmt"
)

// DenyReason is the stable cause of a rejected check.
type DenyReason string

const (
	ReasonUnknownUser         DenyReason = "unknown_user"
	ReasonNoPlan              DenyReason = "no_plan"
	ReasonPlanUnavailable     DenyReason = "plan_unavailable"
	ReasonSubscriptionExpired DenyReason = "subscription_expired"
	ReasonUnknownEndpoint     DenyReason = "unknown_endpoint"
	ReasonPermissionDenied    DenyReason = "permission_denied"
	ReasonQuotaExceeded       DenyReason = "quota_exceeded"
)

// Reasons lists every deny reason in check order.
var Reasons = []DenyReason{
	ReasonUnknownUser,
	ReasonNoPlan,
	ReasonPlanUnavailable,
	ReasonSubscriptionExpired,
	ReasonUnknownEndpoint,
	ReasonPermissionDenied,
	ReasonQuotaExceeded,
}

var reasonMessages = map[DenyReason]string{
	ReasonUnknownUser:         "unknown user",
	ReasonNoPlan:              "user has no plan",
	ReasonPlanUnavailable:     "plan not found or inactive",
	ReasonSubscriptionExpired: "subscription expired",
	ReasonUnknownEndpoint:     "endpoint not found",
	ReasonPermissionDenied:    "permission denied",
	ReasonQuotaExceeded:       "call limit exceeded",
}

// Message returns a human readable description of the reason.
func (r DenyReason) Message() string {
	if msg, ok := reasonMessages[r]; ok {
		return msg
	}
	return string(r)
}

// DenyError is returned by a check that rejects the call.
type DenyError struct {
	Reason   DenyReason
	UserID   string
	Endpoint string
}

func (e *DenyError) Error() string {
	return fmt.Sprintf("access denied for user %s on %s: %s", e.UserID, e.Endpoint, e.Reason.Message())
}

// Is matches any DenyError with the same reason.
func (e *DenyError) Is(target error) bool {
	t, ok := target.(*DenyError)
	return ok && t.Reason == e.Reason && t.UserID == "" && t.Endpoint == ""
}

func Deny(reason DenyReason, userID, endpoint string) *DenyError {
	return &DenyError{Reason: reason, UserID: userID, Endpoint: endpoint}
}

// ReasonOf extracts the deny reason from err.
func ReasonOf(err error) (DenyReason, bool) {
	var denyErr *DenyError
	if errors.As(err, &denyErr) {
		return denyErr.Reason, true
	}
	return "", false
}

// Sentinels for errors.Is comparisons.
var (
	ErrUnknownUser         = &DenyError{Reason: ReasonUnknownUser}
	ErrNoPlan              = &DenyError{Reason: ReasonNoPlan}
	ErrPlanUnavailable     = &DenyError{Reason: ReasonPlanUnavailable}
	ErrSubscriptionExpired = &DenyError{Reason: ReasonSubscriptionExpired}
	ErrUnknownEndpoint     = &DenyError{Reason: ReasonUnknownEndpoint}
	ErrPermissionDenied    = &DenyError{Reason: ReasonPermissionDenied}
	ErrQuotaExceeded       = &DenyError{Reason: ReasonQuotaExceeded}
)
