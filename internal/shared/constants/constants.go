package constants

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"

	// Context keys set by the HTTP middleware chain
	ContextKeyUserID    = "user_id"
	ContextKeyIsAdmin   = "is_admin"
	ContextKeyRequestID = "request_id"

	// Database table names
	TablePermissions   = "permissions"
	TablePlans         = "plans"
	TableSubscriptions = "subscriptions"
	TableUsageCounters = "usage_counters"

	// DefaultDurationDays is used when a subscribe request names no duration.
	DefaultDurationDays = 30

	// UnknownPermissionName labels usage rows whose endpoint has no permission.
	UnknownPermissionName = "unknown"

	// SystemActor is recorded as created_by for registry records loaded from a file.
	SystemActor = "system"
)
