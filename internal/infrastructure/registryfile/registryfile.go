// Package registryfile reads the declarative registry document applied by
// "quotagate registry apply" and at server start.
package registryfile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"gopkg.in/yaml.v3"

	"github.com/quotagate/quotagate/internal/application/registry/usecases"
	"github.com/quotagate/quotagate/internal/shared/errors"
	"github.com/quotagate/quotagate/internal/shared/utils"
)

type Document struct {
	Permissions []Permission `yaml:"permissions" validate:"dive"`
	Plans       []Plan       `yaml:"plans" validate:"dive"`
	Users       []User       `yaml:"users" validate:"dive"`
}

type Permission struct {
	Name        string `yaml:"name" validate:"required,max=100"`
	Endpoint    string `yaml:"endpoint" validate:"required,max=255"`
	Description string `yaml:"description" validate:"max=1000"`
}

type Plan struct {
	Name        string   `yaml:"name" validate:"required,max=100"`
	Description string   `yaml:"description" validate:"max=1000"`
	Permissions []string `yaml:"permissions" validate:"dive,required"`
	CallLimit   int64    `yaml:"call_limit" validate:"gte=0"`
	// Active defaults to true when omitted.
	Active *bool `yaml:"active"`
}

type User struct {
	UserID       string `yaml:"user_id" validate:"max=64"`
	Username     string `yaml:"username" validate:"required,max=100"`
	IsAdmin      bool   `yaml:"is_admin"`
	Plan         string `yaml:"plan" validate:"max=100"`
	DurationDays int    `yaml:"duration_days" validate:"gte=0"`
}

var sanitizer = bluemonday.StrictPolicy()

// Load reads and validates the document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes a document, rejecting unknown keys, and validates its shape.
// Cross references between plans and permissions are checked when the
// document is applied.
func Parse(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return &doc, nil
		}
		return nil, errors.NewValidationError("invalid registry document", err.Error())
	}
	if err := utils.ValidateStruct(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Command converts the document into an apply command. Descriptions are
// stripped of markup.
func (d *Document) Command(appliedBy string) usecases.ApplyRegistryCommand {
	cmd := usecases.ApplyRegistryCommand{
		Permissions: make([]usecases.PermissionSpec, 0, len(d.Permissions)),
		Plans:       make([]usecases.PlanSpec, 0, len(d.Plans)),
		Users:       make([]usecases.UserSpec, 0, len(d.Users)),
		AppliedBy:   appliedBy,
	}

	for _, p := range d.Permissions {
		cmd.Permissions = append(cmd.Permissions, usecases.PermissionSpec{
			Name:        strings.TrimSpace(p.Name),
			Endpoint:    strings.TrimSpace(p.Endpoint),
			Description: sanitize(p.Description),
		})
	}
	for _, p := range d.Plans {
		cmd.Plans = append(cmd.Plans, usecases.PlanSpec{
			Name:        strings.TrimSpace(p.Name),
			Description: sanitize(p.Description),
			Permissions: p.Permissions,
			CallLimit:   p.CallLimit,
			Inactive:    p.Active != nil && !*p.Active,
		})
	}
	for _, u := range d.Users {
		cmd.Users = append(cmd.Users, usecases.UserSpec{
			UserID:       strings.TrimSpace(u.UserID),
			Username:     strings.TrimSpace(u.Username),
			IsAdmin:      u.IsAdmin,
			Plan:         strings.TrimSpace(u.Plan),
			DurationDays: u.DurationDays,
		})
	}
	return cmd
}

func sanitize(s string) string {
	return strings.TrimSpace(sanitizer.Sanitize(s))
}
