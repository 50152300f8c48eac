// Package memstore keeps registry, subscription and usage state in process
// memory. It backs the "memory" storage backend and most use case tests.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/quotagate/quotagate/internal/domain/registry"
)

var _ registry.Repository = (*RegistryStore)(nil)

type RegistryStore struct {
	mu          sync.RWMutex
	plans       map[string]*registry.Plan
	permissions map[string]*registry.Permission
	byEndpoint  map[string]string
}

func NewRegistryStore() *RegistryStore {
	return &RegistryStore{
		plans:       make(map[string]*registry.Plan),
		permissions: make(map[string]*registry.Permission),
		byEndpoint:  make(map[string]string),
	}
}

func (s *RegistryStore) FindPlan(_ context.Context, name string) (*registry.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.plans[name]; ok {
		return clonePlan(p), nil
	}
	return nil, nil
}

func (s *RegistryStore) FindPermission(_ context.Context, name string) (*registry.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.permissions[name]; ok {
		return p, nil
	}
	return nil, nil
}

func (s *RegistryStore) FindPermissionByEndpoint(_ context.Context, endpoint string) (*registry.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name, ok := s.byEndpoint[endpoint]
	if !ok {
		return nil, nil
	}
	return s.permissions[name], nil
}

func (s *RegistryStore) ListPermissions(_ context.Context) ([]*registry.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*registry.Permission, 0, len(s.permissions))
	for _, p := range s.permissions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

func (s *RegistryStore) ListPlans(_ context.Context) ([]*registry.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*registry.Plan, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, clonePlan(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

func (s *RegistryStore) SavePermission(_ context.Context, permission *registry.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.permissions[permission.Name()]; ok {
		delete(s.byEndpoint, prev.Endpoint())
	}
	s.permissions[permission.Name()] = permission
	s.byEndpoint[permission.Endpoint()] = permission.Name()
	return nil
}

func (s *RegistryStore) SavePlan(_ context.Context, plan *registry.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.plans[plan.Name()] = clonePlan(plan)
	return nil
}

func clonePlan(p *registry.Plan) *registry.Plan {
	return registry.ReconstructPlan(p.Name(), p.Description(), p.Permissions(), p.CallLimit(),
		p.IsActive(), p.CreatedBy(), p.CreatedAt())
}
