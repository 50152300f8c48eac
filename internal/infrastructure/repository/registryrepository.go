package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quotagate/quotagate/internal/domain/registry"
	"github.com/quotagate/quotagate/internal/infrastructure/persistence/mappers"
	"github.com/quotagate/quotagate/internal/infrastructure/persistence/models"
	"github.com/quotagate/quotagate/internal/shared/biztime"
	"github.com/quotagate/quotagate/internal/shared/db"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

var _ registry.Repository = (*RegistryRepositoryImpl)(nil)

type RegistryRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.RegistryMapper
	clock  biztime.Clock
	logger logger.Interface
}

func NewRegistryRepository(db *gorm.DB, clock biztime.Clock, logger logger.Interface) *RegistryRepositoryImpl {
	if clock == nil {
		clock = biztime.SystemClock{}
	}
	return &RegistryRepositoryImpl{
		db:     db,
		mapper: mappers.NewRegistryMapper(),
		clock:  clock,
		logger: logger,
	}
}

func (r *RegistryRepositoryImpl) FindPlan(ctx context.Context, name string) (*registry.Plan, error) {
	var model models.PlanModel
	if err := db.GetTxFromContext(ctx, r.db).Where("name = ?", name).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get plan", "error", err, "plan", name)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return r.mapper.PlanToEntity(&model)
}

func (r *RegistryRepositoryImpl) FindPermission(ctx context.Context, name string) (*registry.Permission, error) {
	var model models.PermissionModel
	if err := db.GetTxFromContext(ctx, r.db).Where("name = ?", name).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get permission", "error", err, "permission", name)
		return nil, fmt.Errorf("failed to get permission: %w", err)
	}

	return r.mapper.PermissionToEntity(&model), nil
}

func (r *RegistryRepositoryImpl) FindPermissionByEndpoint(ctx context.Context, endpoint string) (*registry.Permission, error) {
	var model models.PermissionModel
	if err := db.GetTxFromContext(ctx, r.db).Where("endpoint = ?", endpoint).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get permission by endpoint", "error", err, "endpoint", endpoint)
		return nil, fmt.Errorf("failed to get permission by endpoint: %w", err)
	}

	return r.mapper.PermissionToEntity(&model), nil
}

func (r *RegistryRepositoryImpl) ListPermissions(ctx context.Context) ([]*registry.Permission, error) {
	var rows []*models.PermissionModel
	if err := db.GetTxFromContext(ctx, r.db).Order("name ASC").Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list permissions", "error", err)
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}

	result := make([]*registry.Permission, 0, len(rows))
	for _, row := range rows {
		result = append(result, r.mapper.PermissionToEntity(row))
	}
	return result, nil
}

func (r *RegistryRepositoryImpl) ListPlans(ctx context.Context) ([]*registry.Plan, error) {
	var rows []*models.PlanModel
	if err := db.GetTxFromContext(ctx, r.db).Order("name ASC").Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list plans", "error", err)
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	result := make([]*registry.Plan, 0, len(rows))
	for _, row := range rows {
		plan, err := r.mapper.PlanToEntity(row)
		if err != nil {
			r.logger.Errorw("failed to map plan", "error", err, "plan", row.Name)
			return nil, err
		}
		result = append(result, plan)
	}
	return result, nil
}

func (r *RegistryRepositoryImpl) SavePermission(ctx context.Context, permission *registry.Permission) error {
	model := r.mapper.PermissionToModel(permission)
	model.UpdatedAt = r.clock.Now()

	err := db.GetTxFromContext(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"endpoint", "description", "updated_at"}),
	}).Create(model).Error
	if err != nil {
		r.logger.Errorw("failed to upsert permission", "error", err, "permission", permission.Name())
		return fmt.Errorf("failed to upsert permission: %w", err)
	}

	return nil
}

func (r *RegistryRepositoryImpl) SavePlan(ctx context.Context, plan *registry.Plan) error {
	model, err := r.mapper.PlanToModel(plan)
	if err != nil {
		r.logger.Errorw("failed to convert plan to model", "error", err, "plan", plan.Name())
		return fmt.Errorf("failed to convert plan to model: %w", err)
	}
	model.UpdatedAt = r.clock.Now()

	err = db.GetTxFromContext(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"description", "permissions", "call_limit", "is_active", "updated_at"}),
	}).Create(model).Error
	if err != nil {
		r.logger.Errorw("failed to upsert plan", "error", err, "plan", plan.Name())
		return fmt.Errorf("failed to upsert plan: %w", err)
	}

	return nil
}
