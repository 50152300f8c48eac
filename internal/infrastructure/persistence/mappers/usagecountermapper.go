package mappers

import (
	"github.com/quotagate/quotagate/internal/domain/usage"
	"github.com/quotagate/quotagate/internal/infrastructure/persistence/models"
)

// UsageCounterToDomain converts a counter row to its domain value.
func UsageCounterToDomain(model *models.UsageCounterModel) usage.Counter {
	return usage.Counter{
		UserID:      model.UserID,
		Endpoint:    model.Endpoint,
		Count:       model.Count,
		LastUpdated: model.LastUpdated.UTC(),
	}
}
