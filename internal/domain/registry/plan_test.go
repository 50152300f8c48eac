package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlan(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		planName  string
		callLimit int64
		wantErr   bool
	}{
		{name: "valid", planName: "basic", callLimit: 10},
		{name: "zero limit allowed", planName: "frozen", callLimit: 0},
		{name: "empty name", planName: "  ", callLimit: 10, wantErr: true},
		{name: "negative limit", planName: "basic", callLimit: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := NewPlan(tt.planName, "", []string{"compute"}, tt.callLimit, "admin", now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, plan.IsActive())
			assert.Equal(t, tt.callLimit, plan.CallLimit())
		})
	}
}

func TestPlanGrants(t *testing.T) {
	plan, err := NewPlan("pro", "", []string{"storage", "compute", "compute", " ai "}, 100, "admin", time.Now())
	require.NoError(t, err)

	assert.Equal(t, []string{"ai", "compute", "storage"}, plan.Permissions())
	assert.True(t, plan.Grants("compute"))
	assert.True(t, plan.Grants("ai"))
	assert.False(t, plan.Grants("analytics"))
	assert.False(t, plan.Grants(""))
}

func TestPlanMissingPermissions(t *testing.T) {
	plan := ReconstructPlan("pro", "", []string{"compute", "ai", "storage"}, 5, true, "admin", time.Now())
	known := map[string]struct{}{"compute": {}, "storage": {}}

	assert.Equal(t, []string{"ai"}, plan.MissingPermissions(known))
}

func TestPlanActivation(t *testing.T) {
	plan := ReconstructPlan("legacy", "", nil, 5, true, "admin", time.Now())
	plan.Deactivate()
	assert.False(t, plan.IsActive())
	plan.Activate()
	assert.True(t, plan.IsActive())
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "/compute", want: "/compute"},
		{in: "compute", want: "/compute"},
		{in: "/compute/", want: "/compute"},
		{in: "/v1/compute", want: "/v1/compute"},
		{in: "", wantErr: true},
		{in: "/", wantErr: true},
		{in: "/comp ute", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeEndpoint(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewPermissionNormalizesEndpoint(t *testing.T) {
	perm, err := NewPermission("compute", "compute/", "Compute jobs", "admin", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "/compute", perm.Endpoint())

	_, err = NewPermission("", "/compute", "", "admin", time.Now())
	assert.Error(t, err)
}
