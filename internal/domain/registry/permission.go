package registry

import (
	"fmt"
	"strings"
	"time"
)

// Permission is a named capability bound to exactly one endpoint.
type Permission struct {
	name        string
	endpoint    string
	description string
	createdAt   time.Time
	createdBy   string
}

func NewPermission(name, endpoint, description, createdBy string, now time.Time) (*Permission, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("permission name is required")
	}
	if len(name) > 100 {
		return nil, fmt.Errorf("permission name too long (max 100 characters)")
	}
	normalized, err := NormalizeEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	return &Permission{
		name:        name,
		endpoint:    normalized,
		description: description,
		createdAt:   now,
		createdBy:   createdBy,
	}, nil
}

func ReconstructPermission(name, endpoint, description, createdBy string, createdAt time.Time) *Permission {
	return &Permission{
		name:        name,
		endpoint:    endpoint,
		description: description,
		createdAt:   createdAt,
		createdBy:   createdBy,
	}
}

func (p *Permission) Name() string         { return p.name }
func (p *Permission) Endpoint() string     { return p.endpoint }
func (p *Permission) Description() string  { return p.description }
func (p *Permission) CreatedAt() time.Time { return p.createdAt }
func (p *Permission) CreatedBy() string    { return p.createdBy }

// NormalizeEndpoint returns endpoint with a single leading slash and no
// trailing slash.
func NormalizeEndpoint(endpoint string) (string, error) {
	trimmed := strings.Trim(strings.TrimSpace(endpoint), "/")
	if trimmed == "" {
		return "", fmt.Errorf("endpoint is required")
	}
	if strings.ContainsAny(trimmed, " \t?#") {
		return "", fmt.Errorf("invalid endpoint: %q", endpoint)
	}
	return "/" + trimmed, nil
}
