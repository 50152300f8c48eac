// Package cache keeps registry lookups of the access check out of the
// primary store.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quotagate/quotagate/internal/domain/registry"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

const (
	planKeyPrefix     = "quotagate:registry:plan:"
	endpointKeyPrefix = "quotagate:registry:endpoint:"

	fieldName        = "name"
	fieldEndpoint    = "endpoint"
	fieldDescription = "description"
	fieldPermissions = "permissions"
	fieldCallLimit   = "call_limit"
	fieldActive      = "active"
	fieldCreatedAt   = "created_at"
	fieldCreatedBy   = "created_by"
	fieldNullMarker  = "_null"
)

// Options sets entry lifetimes. Entries live between TTL and TTL+Jitter;
// misses are remembered for NullTTL.
type Options struct {
	TTL     time.Duration
	Jitter  time.Duration
	NullTTL time.Duration
}

// RegistryCache is a read-through Redis cache in front of a registry
// repository. Plans are cached by name and permissions by endpoint. Writes
// go to the repository and then evict the affected keys. A read racing a
// write may put back a stale entry, which lives at most one TTL.
type RegistryCache struct {
	registry.Repository
	client *redis.Client
	opts   Options
	logger logger.Interface
}

func NewRegistryCache(next registry.Repository, client *redis.Client, opts Options, logger logger.Interface) *RegistryCache {
	if opts.TTL <= 0 {
		opts.TTL = time.Minute
	}
	if opts.NullTTL <= 0 {
		opts.NullTTL = 10 * time.Second
	}
	return &RegistryCache{
		Repository: next,
		client:     client,
		opts:       opts,
		logger:     logger,
	}
}

func planKey(name string) string {
	return planKeyPrefix + name
}

func endpointKey(endpoint string) string {
	return endpointKeyPrefix + endpoint
}

// FindPlan returns the cached plan, loading it on a miss. Cache failures
// fall back to the repository.
func (c *RegistryCache) FindPlan(ctx context.Context, name string) (*registry.Plan, error) {
	key := planKey(name)

	fields, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		c.logger.Warnw("failed to read plan from cache", "error", err, "plan", name)
		return c.Repository.FindPlan(ctx, name)
	}
	if len(fields) > 0 {
		if fields[fieldNullMarker] == "1" {
			return nil, nil
		}
		plan, err := decodePlan(fields)
		if err == nil {
			return plan, nil
		}
		c.logger.Warnw("discarding malformed cached plan", "error", err, "plan", name)
	}

	plan, err := c.Repository.FindPlan(ctx, name)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		c.setNullMarker(ctx, key)
		return nil, nil
	}
	c.set(ctx, key, encodePlan(plan))
	return plan, nil
}

// FindPermissionByEndpoint returns the cached permission bound to endpoint,
// loading it on a miss.
func (c *RegistryCache) FindPermissionByEndpoint(ctx context.Context, endpoint string) (*registry.Permission, error) {
	key := endpointKey(endpoint)

	fields, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		c.logger.Warnw("failed to read permission from cache", "error", err, "endpoint", endpoint)
		return c.Repository.FindPermissionByEndpoint(ctx, endpoint)
	}
	if len(fields) > 0 {
		if fields[fieldNullMarker] == "1" {
			return nil, nil
		}
		perm, err := decodePermission(fields)
		if err == nil {
			return perm, nil
		}
		c.logger.Warnw("discarding malformed cached permission", "error", err, "endpoint", endpoint)
	}

	perm, err := c.Repository.FindPermissionByEndpoint(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if perm == nil {
		c.setNullMarker(ctx, key)
		return nil, nil
	}
	c.set(ctx, key, encodePermission(perm))
	return perm, nil
}

// SavePlan stores the plan and evicts its cache entry.
func (c *RegistryCache) SavePlan(ctx context.Context, plan *registry.Plan) error {
	if err := c.Repository.SavePlan(ctx, plan); err != nil {
		return err
	}
	c.evict(ctx, planKey(plan.Name()))
	return nil
}

// SavePermission stores the permission and evicts both its new endpoint and
// the endpoint it was bound to before.
func (c *RegistryCache) SavePermission(ctx context.Context, permission *registry.Permission) error {
	keys := []string{endpointKey(permission.Endpoint())}
	previous, err := c.Repository.FindPermission(ctx, permission.Name())
	if err != nil {
		return err
	}
	if previous != nil && previous.Endpoint() != permission.Endpoint() {
		keys = append(keys, endpointKey(previous.Endpoint()))
	}

	if err := c.Repository.SavePermission(ctx, permission); err != nil {
		return err
	}
	c.evict(ctx, keys...)
	return nil
}

func (c *RegistryCache) set(ctx context.Context, key string, fields map[string]interface{}) {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, c.ttlWithJitter())
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warnw("failed to write cache entry", "error", err, "key", key)
	}
}

func (c *RegistryCache) setNullMarker(ctx context.Context, key string) {
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, fieldNullMarker, "1")
	pipe.Expire(ctx, key, c.opts.NullTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warnw("failed to write cache null marker", "error", err, "key", key)
	}
}

func (c *RegistryCache) evict(ctx context.Context, keys ...string) {
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warnw("failed to evict cache entries", "error", err, "keys", keys)
	}
}

func (c *RegistryCache) ttlWithJitter() time.Duration {
	if c.opts.Jitter <= 0 {
		return c.opts.TTL
	}
	return c.opts.TTL + time.Duration(rand.Int64N(int64(c.opts.Jitter)))
}

func encodePlan(plan *registry.Plan) map[string]interface{} {
	perms, _ := json.Marshal(plan.Permissions())
	return map[string]interface{}{
		fieldName:        plan.Name(),
		fieldDescription: plan.Description(),
		fieldPermissions: string(perms),
		fieldCallLimit:   plan.CallLimit(),
		fieldActive:      boolToInt(plan.IsActive()),
		fieldCreatedAt:   plan.CreatedAt().UnixNano(),
		fieldCreatedBy:   plan.CreatedBy(),
	}
}

func decodePlan(fields map[string]string) (*registry.Plan, error) {
	var perms []string
	if err := json.Unmarshal([]byte(fields[fieldPermissions]), &perms); err != nil {
		return nil, fmt.Errorf("failed to decode permissions: %w", err)
	}
	callLimit, err := strconv.ParseInt(fields[fieldCallLimit], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode call limit: %w", err)
	}
	createdAt, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode created_at: %w", err)
	}
	return registry.ReconstructPlan(
		fields[fieldName],
		fields[fieldDescription],
		perms,
		callLimit,
		fields[fieldActive] == "1",
		fields[fieldCreatedBy],
		time.Unix(0, createdAt).UTC(),
	), nil
}

func encodePermission(perm *registry.Permission) map[string]interface{} {
	return map[string]interface{}{
		fieldName:        perm.Name(),
		fieldEndpoint:    perm.Endpoint(),
		fieldDescription: perm.Description(),
		fieldCreatedAt:   perm.CreatedAt().UnixNano(),
		fieldCreatedBy:   perm.CreatedBy(),
	}
}

func decodePermission(fields map[string]string) (*registry.Permission, error) {
	createdAt, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode created_at: %w", err)
	}
	return registry.ReconstructPermission(
		fields[fieldName],
		fields[fieldEndpoint],
		fields[fieldDescription],
		fields[fieldCreatedBy],
		time.Unix(0, createdAt).UTC(),
	), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
