package mappers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotagate/quotagate/internal/domain/registry"
	"github.com/quotagate/quotagate/internal/domain/subscription"
	"github.com/quotagate/quotagate/internal/infrastructure/persistence/models"
)

func TestPlanMapping(t *testing.T) {
	m := NewRegistryMapper()
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	plan := registry.ReconstructPlan("pro", "Pro tier", []string{"storage", "compute"}, 50, false, "ops", now)

	model, err := m.PlanToModel(plan)
	require.NoError(t, err)
	assert.JSONEq(t, `["compute","storage"]`, string(model.Permissions))
	assert.False(t, model.IsActive)

	back, err := m.PlanToEntity(model)
	require.NoError(t, err)
	assert.Equal(t, plan.Permissions(), back.Permissions())
	assert.Equal(t, int64(50), back.CallLimit())
	assert.False(t, back.IsActive())

	_, err = m.PlanToEntity(&models.PlanModel{Name: "broken", Permissions: []byte("{")})
	assert.Error(t, err)
}

func TestSubscriptionMappingNullPlan(t *testing.T) {
	m := NewSubscriptionMapper()
	sub, err := subscription.NewSubscription("usr_1", "alice", false, time.Now())
	require.NoError(t, err)

	model := m.ToModel(sub)
	assert.Nil(t, model.PlanName)
	assert.Nil(t, model.SubscriptionEnd)

	local := time.Date(2025, 1, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	planName := "basic"
	model.PlanName = &planName
	model.SubscriptionEnd = &local

	entity := m.ToEntity(model)
	assert.Equal(t, "basic", entity.PlanName())
	require.NotNil(t, entity.End())
	assert.Equal(t, time.UTC, entity.End().Location())
	assert.True(t, local.Equal(*entity.End()))
}
