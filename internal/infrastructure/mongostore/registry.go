package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/quotagate/quotagate/internal/domain/registry"
	"github.com/quotagate/quotagate/internal/shared/biztime"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

var _ registry.Repository = (*RegistryStore)(nil)

type RegistryStore struct {
	permissions *mongo.Collection
	plans       *mongo.Collection
	clock       biztime.Clock
	logger      logger.Interface
}

func NewRegistryStore(db *mongo.Database, clock biztime.Clock, logger logger.Interface) *RegistryStore {
	if clock == nil {
		clock = biztime.SystemClock{}
	}
	return &RegistryStore{
		permissions: db.Collection(colPermissions),
		plans:       db.Collection(colPlans),
		clock:       clock,
		logger:      logger,
	}
}

func (s *RegistryStore) FindPlan(ctx context.Context, name string) (*registry.Plan, error) {
	var doc planDoc
	if err := s.plans.FindOne(ctx, bson.M{"_id": name}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		s.logger.Errorw("failed to get plan", "error", err, "plan", name)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return planFromDoc(&doc), nil
}

func (s *RegistryStore) FindPermission(ctx context.Context, name string) (*registry.Permission, error) {
	return s.findPermission(ctx, bson.M{"_id": name})
}

func (s *RegistryStore) FindPermissionByEndpoint(ctx context.Context, endpoint string) (*registry.Permission, error) {
	return s.findPermission(ctx, bson.M{"endpoint": endpoint})
}

func (s *RegistryStore) findPermission(ctx context.Context, filter bson.M) (*registry.Permission, error) {
	var doc permissionDoc
	if err := s.permissions.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		s.logger.Errorw("failed to get permission", "error", err, "filter", filter)
		return nil, fmt.Errorf("failed to get permission: %w", err)
	}
	return permissionFromDoc(&doc), nil
}

func (s *RegistryStore) ListPermissions(ctx context.Context) ([]*registry.Permission, error) {
	cursor, err := s.permissions.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	var docs []permissionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode permissions: %w", err)
	}

	result := make([]*registry.Permission, len(docs))
	for i := range docs {
		result[i] = permissionFromDoc(&docs[i])
	}
	return result, nil
}

func (s *RegistryStore) ListPlans(ctx context.Context) ([]*registry.Plan, error) {
	cursor, err := s.plans.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	var docs []planDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode plans: %w", err)
	}

	result := make([]*registry.Plan, len(docs))
	for i := range docs {
		result[i] = planFromDoc(&docs[i])
	}
	return result, nil
}

func (s *RegistryStore) SavePermission(ctx context.Context, p *registry.Permission) error {
	update := bson.M{
		"$set": bson.M{
			"endpoint":    p.Endpoint(),
			"description": p.Description(),
			"updated_at":  s.clock.Now(),
		},
		"$setOnInsert": bson.M{
			"created_by": p.CreatedBy(),
			"created_at": p.CreatedAt(),
		},
	}
	if _, err := s.permissions.UpdateOne(ctx, bson.M{"_id": p.Name()}, update, options.UpdateOne().SetUpsert(true)); err != nil {
		s.logger.Errorw("failed to upsert permission", "error", err, "permission", p.Name())
		return fmt.Errorf("failed to upsert permission: %w", err)
	}
	return nil
}

func (s *RegistryStore) SavePlan(ctx context.Context, p *registry.Plan) error {
	update := bson.M{
		"$set": bson.M{
			"description": p.Description(),
			"permissions": p.Permissions(),
			"call_limit":  p.CallLimit(),
			"is_active":   p.IsActive(),
			"updated_at":  s.clock.Now(),
		},
		"$setOnInsert": bson.M{
			"created_by": p.CreatedBy(),
			"created_at": p.CreatedAt(),
		},
	}
	if _, err := s.plans.UpdateOne(ctx, bson.M{"_id": p.Name()}, update, options.UpdateOne().SetUpsert(true)); err != nil {
		s.logger.Errorw("failed to upsert plan", "error", err, "plan", p.Name())
		return fmt.Errorf("failed to upsert plan: %w", err)
	}
	return nil
}

func permissionFromDoc(doc *permissionDoc) *registry.Permission {
	return registry.ReconstructPermission(doc.Name, doc.Endpoint, doc.Description, doc.CreatedBy, doc.CreatedAt.UTC())
}

func planFromDoc(doc *planDoc) *registry.Plan {
	return registry.ReconstructPlan(doc.Name, doc.Description, doc.Permissions, doc.CallLimit,
		doc.IsActive, doc.CreatedBy, doc.CreatedAt.UTC())
}
