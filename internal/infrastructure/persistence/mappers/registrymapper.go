package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/quotagate/quotagate/internal/domain/registry"
	"github.com/quotagate/quotagate/internal/infrastructure/persistence/models"
)

// RegistryMapper handles the conversion between registry entities and
// persistence models
type RegistryMapper interface {
	PermissionToEntity(model *models.PermissionModel) *registry.Permission
	PermissionToModel(entity *registry.Permission) *models.PermissionModel
	PlanToEntity(model *models.PlanModel) (*registry.Plan, error)
	PlanToModel(entity *registry.Plan) (*models.PlanModel, error)
}

type registryMapper struct{}

// NewRegistryMapper creates a new registry mapper
func NewRegistryMapper() RegistryMapper {
	return &registryMapper{}
}

func (m *registryMapper) PermissionToEntity(model *models.PermissionModel) *registry.Permission {
	if model == nil {
		return nil
	}
	return registry.ReconstructPermission(
		model.Name,
		model.Endpoint,
		model.Description,
		model.CreatedBy,
		model.CreatedAt,
	)
}

func (m *registryMapper) PermissionToModel(entity *registry.Permission) *models.PermissionModel {
	if entity == nil {
		return nil
	}
	return &models.PermissionModel{
		Name:        entity.Name(),
		Endpoint:    entity.Endpoint(),
		Description: entity.Description(),
		CreatedBy:   entity.CreatedBy(),
		CreatedAt:   entity.CreatedAt(),
	}
}

func (m *registryMapper) PlanToEntity(model *models.PlanModel) (*registry.Plan, error) {
	if model == nil {
		return nil, nil
	}

	var permissions []string
	if len(model.Permissions) > 0 {
		if err := json.Unmarshal(model.Permissions, &permissions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal plan permissions: %w", err)
		}
	}

	return registry.ReconstructPlan(
		model.Name,
		model.Description,
		permissions,
		model.CallLimit,
		model.IsActive,
		model.CreatedBy,
		model.CreatedAt,
	), nil
}

func (m *registryMapper) PlanToModel(entity *registry.Plan) (*models.PlanModel, error) {
	if entity == nil {
		return nil, nil
	}

	permissions, err := json.Marshal(entity.Permissions())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal plan permissions: %w", err)
	}

	return &models.PlanModel{
		Name:        entity.Name(),
		Description: entity.Description(),
		Permissions: datatypes.JSON(permissions),
		CallLimit:   entity.CallLimit(),
		IsActive:    entity.IsActive(),
		CreatedBy:   entity.CreatedBy(),
		CreatedAt:   entity.CreatedAt(),
	}, nil
}
