// Package permission describes who may run administrative operations.
// It is unrelated to registry permissions, which gate metered endpoints.
package permission

// Roles derived from the verified identity.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Resources and actions guarded by the enforcer.
const (
	ResourceUsers = "users"
	ResourceUsage = "usage"

	ActionRead  = "read"
	ActionWrite = "write"
)

// Enforcer decides whether role may perform action on resource.
type Enforcer interface {
	Enforce(role, resource, action string) (bool, error)
	AddPolicy(role, resource, action string) error
	RemovePolicy(role, resource, action string) error
}

// RoleFor maps the identity's admin flag to a role.
func RoleFor(isAdmin bool) string {
	if isAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// DefaultPolicies are installed when the policy store is empty.
var DefaultPolicies = [][3]string{
	{RoleAdmin, ResourceUsers, ActionRead},
	{RoleAdmin, ResourceUsers, ActionWrite},
	{RoleAdmin, ResourceUsage, ActionRead},
}
