package usecases

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/quotagate/quotagate/internal/application/subscription/dto"
	"github.com/quotagate/quotagate/internal/domain/registry"
	"github.com/quotagate/quotagate/internal/domain/usage"
	"github.com/quotagate/quotagate/internal/shared/constants"
)

const permissionLookupConcurrency = 8

// buildUsage resolves the permission behind every counter and totals them.
// Endpoints whose permission no longer exists are reported as unknown.
func buildUsage(ctx context.Context, reg registry.Reader, counters []usage.Counter, callLimit int64) (dto.UsageDTO, error) {
	rows := make([]dto.EndpointUsageDTO, len(counters))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(permissionLookupConcurrency)
	for i, c := range counters {
		g.Go(func() error {
			perm, err := reg.FindPermissionByEndpoint(gctx, c.Endpoint)
			if err != nil {
				return storeError("failed to find permission", err)
			}
			name := constants.UnknownPermissionName
			if perm != nil {
				name = perm.Name()
			}
			rows[i] = dto.EndpointUsageDTO{
				Endpoint:       c.Endpoint,
				PermissionName: name,
				Count:          c.Count,
				LastAccess:     c.LastUpdated,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return dto.UsageDTO{}, err
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Endpoint < rows[j].Endpoint })
	total := usage.Total(counters)
	return dto.UsageDTO{
		TotalCalls:      total,
		ByEndpoint:      rows,
		UsagePercentage: dto.UsagePercentage(total, callLimit),
	}, nil
}
