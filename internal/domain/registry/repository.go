package registry

import "context"

// Reader is the read side of the registry consumed by access decisions.
// Lookups return nil, nil when the record does not exist.
type Reader interface {
	FindPlan(ctx context.Context, name string) (*Plan, error)
	FindPermissionByEndpoint(ctx context.Context, endpoint string) (*Permission, error)
}

// Repository is the full registry store.
type Repository interface {
	Reader
	FindPermission(ctx context.Context, name string) (*Permission, error)
	ListPermissions(ctx context.Context) ([]*Permission, error)
	ListPlans(ctx context.Context) ([]*Plan, error)
	// SavePermission inserts or replaces the permission with the same name.
	SavePermission(ctx context.Context, permission *Permission) error
	// SavePlan inserts or replaces the plan with the same name.
	SavePlan(ctx context.Context, plan *Plan) error
}
