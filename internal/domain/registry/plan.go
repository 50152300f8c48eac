package registry

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Plan is a named bundle of granted permissions plus a call quota.
type Plan struct {
	name        string
	description string
	permissions []string
	callLimit   int64
	isActive    bool
	createdAt   time.Time
	createdBy   string
}

func NewPlan(name, description string, permissions []string, callLimit int64, createdBy string, now time.Time) (*Plan, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("plan name is required")
	}
	if len(name) > 100 {
		return nil, fmt.Errorf("plan name too long (max 100 characters)")
	}
	if callLimit < 0 {
		return nil, fmt.Errorf("call limit cannot be negative")
	}

	return &Plan{
		name:        name,
		description: description,
		permissions: normalizePermissions(permissions),
		callLimit:   callLimit,
		isActive:    true,
		createdAt:   now,
		createdBy:   createdBy,
	}, nil
}

func ReconstructPlan(name, description string, permissions []string, callLimit int64,
	isActive bool, createdBy string, createdAt time.Time) *Plan {
	return &Plan{
		name:        name,
		description: description,
		permissions: normalizePermissions(permissions),
		callLimit:   callLimit,
		isActive:    isActive,
		createdAt:   createdAt,
		createdBy:   createdBy,
	}
}

func (p *Plan) Name() string         { return p.name }
func (p *Plan) Description() string  { return p.description }
func (p *Plan) CallLimit() int64     { return p.callLimit }
func (p *Plan) IsActive() bool       { return p.isActive }
func (p *Plan) CreatedAt() time.Time { return p.createdAt }
func (p *Plan) CreatedBy() string    { return p.createdBy }

// Permissions returns a copy of the granted permission names, sorted.
func (p *Plan) Permissions() []string {
	out := make([]string, len(p.permissions))
	copy(out, p.permissions)
	return out
}

// Grants reports whether the plan includes the named permission.
func (p *Plan) Grants(permission string) bool {
	i := sort.SearchStrings(p.permissions, permission)
	return i < len(p.permissions) && p.permissions[i] == permission
}

func (p *Plan) Activate() {
	p.isActive = true
}

func (p *Plan) Deactivate() {
	p.isActive = false
}

// MissingPermissions returns the granted names absent from known.
func (p *Plan) MissingPermissions(known map[string]struct{}) []string {
	var missing []string
	for _, name := range p.permissions {
		if _, ok := known[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func normalizePermissions(names []string) []string {
	set := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, dup := set[n]; dup {
			continue
		}
		set[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
