package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/quotagate/quotagate/internal/domain/permission"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestEnforcer_DefaultPolicies(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		resource string
		action   string
		want     bool
	}{
		{"admin reads users", permission.RoleAdmin, permission.ResourceUsers, permission.ActionRead, true},
		{"admin writes users", permission.RoleAdmin, permission.ResourceUsers, permission.ActionWrite, true},
		{"admin reads usage", permission.RoleAdmin, permission.ResourceUsage, permission.ActionRead, true},
		{"user cannot write users", permission.RoleUser, permission.ResourceUsers, permission.ActionWrite, false},
		{"user cannot read usage", permission.RoleUser, permission.ResourceUsage, permission.ActionRead, false},
	}

	e, err := NewEnforcer(nil, logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, e.SeedDefaults())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, err := e.Enforce(tt.role, tt.resource, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, allowed)
		})
	}
}

func TestEnforcer_PersistsPoliciesWithGormAdapter(t *testing.T) {
	db := openTestDB(t)

	e, err := NewEnforcer(db, logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, e.SeedDefaults())
	require.NoError(t, e.RemovePolicy(permission.RoleAdmin, permission.ResourceUsage, permission.ActionRead))
	require.NoError(t, e.AddPolicy(permission.RoleUser, permission.ResourceUsage, permission.ActionRead))

	reloaded, err := NewEnforcer(db, logger.NewNopLogger())
	require.NoError(t, err)
	// policies exist, so seeding leaves the removed one out
	require.NoError(t, reloaded.SeedDefaults())

	allowed, err := reloaded.Enforce(permission.RoleAdmin, permission.ResourceUsage, permission.ActionRead)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = reloaded.Enforce(permission.RoleUser, permission.ResourceUsage, permission.ActionRead)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = reloaded.Enforce(permission.RoleAdmin, permission.ResourceUsers, permission.ActionWrite)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestEnforcer_LoadPolicyPicksUpExternalChanges(t *testing.T) {
	db := openTestDB(t)

	server, err := NewEnforcer(db, logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, server.SeedDefaults())

	operator, err := NewEnforcer(db, logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, operator.AddPolicy(permission.RoleUser, permission.ResourceUsage, permission.ActionRead))
	assert.Contains(t, operator.Policies(), []string{permission.RoleUser, permission.ResourceUsage, permission.ActionRead})

	allowed, err := server.Enforce(permission.RoleUser, permission.ResourceUsage, permission.ActionRead)
	require.NoError(t, err)
	assert.False(t, allowed)

	require.NoError(t, server.LoadPolicy())
	allowed, err = server.Enforce(permission.RoleUser, permission.ResourceUsage, permission.ActionRead)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Len(t, server.Policies(), len(permission.DefaultPolicies)+1)
}
