package usecases

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotagate/quotagate/internal/domain/registry"
	"github.com/quotagate/quotagate/internal/domain/subscription"
	"github.com/quotagate/quotagate/internal/domain/usage"
	"github.com/quotagate/quotagate/internal/infrastructure/memstore"
	"github.com/quotagate/quotagate/internal/shared/biztime"
	"github.com/quotagate/quotagate/internal/shared/db"
	"github.com/quotagate/quotagate/internal/shared/errors"
	"github.com/quotagate/quotagate/internal/shared/id"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

var testNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

type env struct {
	registry      *memstore.RegistryStore
	subscriptions *memstore.SubscriptionStore
	ledger        usage.Ledger
	clock         *biztime.ManualClock
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	e := &env{
		registry:      memstore.NewRegistryStore(),
		subscriptions: memstore.NewSubscriptionStore(),
		ledger:        memstore.NewLedger(),
		clock:         biztime.NewManualClock(testNow),
	}

	for _, p := range []struct{ name, endpoint string }{
		{"compute", "/compute"},
		{"storage", "/storage"},
	} {
		perm, err := registry.NewPermission(p.name, p.endpoint, "", "system", testNow)
		require.NoError(t, err)
		require.NoError(t, e.registry.SavePermission(ctx, perm))
	}

	basic, err := registry.NewPlan("basic", "Starter", []string{"compute"}, 4, "system", testNow)
	require.NoError(t, err)
	require.NoError(t, e.registry.SavePlan(ctx, basic))
	free, err := registry.NewPlan("free", "", []string{"compute"}, 0, "system", testNow)
	require.NoError(t, err)
	require.NoError(t, e.registry.SavePlan(ctx, free))
	require.NoError(t, e.registry.SavePlan(ctx,
		registry.ReconstructPlan("legacy", "", []string{"storage"}, 9, false, "system", testNow)))

	return e
}

func (e *env) createUser(t *testing.T, username string) string {
	t.Helper()
	user, err := NewCreateUserUseCase(e.subscriptions, e.clock, logger.NewNopLogger()).
		Execute(context.Background(), CreateUserCommand{Username: username})
	require.NoError(t, err)
	return user.UserID
}

func (e *env) seedUsage(t *testing.T, userID, endpoint string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := e.ledger.Increment(context.Background(), userID, endpoint, e.clock.Now())
		require.NoError(t, err)
	}
}

func (e *env) subscribe() *SubscribeUseCase {
	return NewSubscribeUseCase(e.subscriptions, e.registry, e.ledger, nil, e.clock, logger.NewNopLogger())
}

func (e *env) assign() *AssignPlanUseCase {
	return NewAssignPlanUseCase(e.subscriptions, e.registry, e.ledger, nil, e.clock, logger.NewNopLogger())
}

func TestCreateUser(t *testing.T) {
	e := newEnv(t)
	uc := NewCreateUserUseCase(e.subscriptions, e.clock, logger.NewNopLogger())
	ctx := context.Background()

	user, err := uc.Execute(ctx, CreateUserCommand{Username: "alice", IsAdmin: true})
	require.NoError(t, err)
	assert.True(t, id.HasPrefix(user.UserID, id.PrefixUser))
	assert.True(t, user.IsAdmin)
	assert.Empty(t, user.PlanName)
	assert.Nil(t, user.End)

	_, err = uc.Execute(ctx, CreateUserCommand{Username: "alice"})
	assert.True(t, errors.IsConflictError(err))

	_, err = uc.Execute(ctx, CreateUserCommand{Username: "  "})
	assert.True(t, errors.IsValidationError(err))

	explicit, err := uc.Execute(ctx, CreateUserCommand{UserID: "usr_fixed", Username: "bob"})
	require.NoError(t, err)
	assert.Equal(t, "usr_fixed", explicit.UserID)
}

func TestSubscribe_SetsWindowAndResetsUsage(t *testing.T) {
	e := newEnv(t)
	userID := e.createUser(t, "alice")
	e.seedUsage(t, userID, "/compute", 3)
	e.seedUsage(t, userID, "/storage", 2)

	window, err := e.subscribe().Execute(context.Background(), SubscribeCommand{
		UserID: userID, PlanName: "free", DurationDays: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, testNow, window.Start)
	assert.Equal(t, testNow.Add(7*24*time.Hour), window.End)
	assert.Equal(t, "free", window.PlanName)

	for _, endpoint := range []string{"/compute", "/storage"} {
		count, err := e.ledger.GetCount(context.Background(), userID, endpoint)
		require.NoError(t, err)
		assert.Zero(t, count, endpoint)
	}

	sub, err := e.subscriptions.Find(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "free", sub.PlanName())
	require.NotNil(t, sub.End())
	assert.Equal(t, window.End, *sub.End())
}

func TestSubscribe_Errors(t *testing.T) {
	e := newEnv(t)
	userID := e.createUser(t, "alice")
	e.seedUsage(t, userID, "/compute", 1)

	tests := []struct {
		name    string
		cmd     SubscribeCommand
		checkFn func(error) bool
	}{
		{name: "unknown user", cmd: SubscribeCommand{UserID: "usr_missing", PlanName: "basic", DurationDays: 30}, checkFn: errors.IsNotFoundError},
		{name: "unknown plan", cmd: SubscribeCommand{UserID: userID, PlanName: "gold", DurationDays: 30}, checkFn: errors.IsNotFoundError},
		{name: "inactive plan", cmd: SubscribeCommand{UserID: userID, PlanName: "legacy", DurationDays: 30}, checkFn: errors.IsNotFoundError},
		{name: "zero days", cmd: SubscribeCommand{UserID: userID, PlanName: "basic", DurationDays: 0}, checkFn: errors.IsValidationError},
		{name: "negative days", cmd: SubscribeCommand{UserID: userID, PlanName: "basic", DurationDays: -3}, checkFn: errors.IsValidationError},
		{name: "too many days", cmd: SubscribeCommand{UserID: userID, PlanName: "basic", DurationDays: 200000}, checkFn: errors.IsValidationError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.subscribe().Execute(context.Background(), tt.cmd)
			require.Error(t, err)
			assert.True(t, tt.checkFn(err), "unexpected error %v", err)
		})
	}

	count, err := e.ledger.GetCount(context.Background(), userID, "/compute")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "failed subscribe must not reset usage")
}

func TestAssignPlan_KeepsWindowWithoutDuration(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.createUser(t, "alice")
	window, err := e.subscribe().Execute(ctx, SubscribeCommand{UserID: userID, PlanName: "basic", DurationDays: 10})
	require.NoError(t, err)
	e.seedUsage(t, userID, "/compute", 2)

	e.clock.Advance(48 * time.Hour)
	user, err := e.assign().Execute(ctx, AssignPlanCommand{UserID: userID, PlanName: "legacy", AssignedBy: "root"})
	require.NoError(t, err)
	assert.Equal(t, "legacy", user.PlanName)
	require.NotNil(t, user.End)
	assert.Equal(t, window.End, *user.End)

	count, err := e.ledger.GetCount(ctx, userID, "/compute")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAssignPlan_WithDurationStartsNewWindow(t *testing.T) {
	e := newEnv(t)
	userID := e.createUser(t, "alice")

	user, err := e.assign().Execute(context.Background(), AssignPlanCommand{UserID: userID, PlanName: "basic", DurationDays: 3})
	require.NoError(t, err)
	require.NotNil(t, user.Start)
	require.NotNil(t, user.End)
	assert.Equal(t, testNow, *user.Start)
	assert.Equal(t, testNow.Add(72*time.Hour), *user.End)
}

func TestAssignPlan_Errors(t *testing.T) {
	e := newEnv(t)
	userID := e.createUser(t, "alice")
	ctx := context.Background()

	_, err := e.assign().Execute(ctx, AssignPlanCommand{UserID: "usr_missing", PlanName: "basic"})
	assert.True(t, errors.IsNotFoundError(err))
	_, err = e.assign().Execute(ctx, AssignPlanCommand{UserID: userID, PlanName: "gold"})
	assert.True(t, errors.IsNotFoundError(err))
	_, err = e.assign().Execute(ctx, AssignPlanCommand{UserID: userID, PlanName: "basic", DurationDays: -1})
	assert.True(t, errors.IsValidationError(err))
	_, err = e.assign().Execute(ctx, AssignPlanCommand{UserID: userID, PlanName: "basic", DurationDays: 200000})
	assert.True(t, errors.IsValidationError(err))
}

func TestLongestDurationStaysValid(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.createUser(t, "alice")
	want := testNow.AddDate(0, 0, subscription.MaxDurationDays)

	window, err := e.subscribe().Execute(ctx, SubscribeCommand{UserID: userID, PlanName: "basic", DurationDays: subscription.MaxDurationDays})
	require.NoError(t, err)
	assert.Equal(t, want, window.End)

	user, err := e.assign().Execute(ctx, AssignPlanCommand{UserID: userID, PlanName: "free", DurationDays: subscription.MaxDurationDays})
	require.NoError(t, err)
	require.NotNil(t, user.End)
	assert.Equal(t, want, *user.End)

	sub, err := e.subscriptions.Find(ctx, userID)
	require.NoError(t, err)
	assert.False(t, sub.IsExpiredAt(e.clock.Now()))
}

type failingDeleteLedger struct {
	usage.Ledger
}

func (failingDeleteLedger) DeleteAll(context.Context, string) error {
	return stderrors.New("ledger offline")
}

func TestSubscribe_ResetFailureIsTransient(t *testing.T) {
	e := newEnv(t)
	userID := e.createUser(t, "alice")

	uc := NewSubscribeUseCase(e.subscriptions, e.registry, failingDeleteLedger{e.ledger}, db.NoopTransactor{}, e.clock, logger.NewNopLogger())
	_, err := uc.Execute(context.Background(), SubscribeCommand{UserID: userID, PlanName: "basic", DurationDays: 1})
	require.Error(t, err)
	assert.True(t, errors.IsUnavailableError(err))
}

func TestGetSubscriptionSummary(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.createUser(t, "alice")
	uc := NewGetSubscriptionSummaryUseCase(e.subscriptions, e.registry, e.ledger, logger.NewNopLogger())

	_, err := uc.Execute(ctx, GetSubscriptionSummaryQuery{UserID: userID})
	assert.True(t, errors.IsNotFoundError(err), "no plan yet")
	_, err = uc.Execute(ctx, GetSubscriptionSummaryQuery{UserID: "usr_missing"})
	assert.True(t, errors.IsNotFoundError(err))

	_, err = e.subscribe().Execute(ctx, SubscribeCommand{UserID: userID, PlanName: "basic", DurationDays: 30})
	require.NoError(t, err)
	e.seedUsage(t, userID, "/compute", 3)

	summary, err := uc.Execute(ctx, GetSubscriptionSummaryQuery{UserID: userID})
	require.NoError(t, err)
	assert.Equal(t, "basic", summary.Plan.Name)
	assert.Equal(t, int64(4), summary.Plan.CallLimit)
	assert.Equal(t, int64(3), summary.TotalUsage)
	require.NotNil(t, summary.End)
	assert.Equal(t, testNow.Add(30*24*time.Hour), *summary.End)
}

func TestGetSubscriptionSummary_DanglingPlan(t *testing.T) {
	e := newEnv(t)
	userID := e.createUser(t, "alice")
	end := testNow.Add(time.Hour)
	require.NoError(t, e.subscriptions.SetPlan(context.Background(), userID, "deleted", &testNow, &end))

	uc := NewGetSubscriptionSummaryUseCase(e.subscriptions, e.registry, e.ledger, logger.NewNopLogger())
	_, err := uc.Execute(context.Background(), GetSubscriptionSummaryQuery{UserID: userID})
	assert.True(t, errors.IsNotFoundError(err))
}

func TestGetSubscriptionDetails(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.createUser(t, "alice")
	_, err := e.subscribe().Execute(ctx, SubscribeCommand{UserID: userID, PlanName: "basic", DurationDays: 30})
	require.NoError(t, err)
	e.seedUsage(t, userID, "/compute", 3)
	e.seedUsage(t, userID, "/retired", 1)

	details, err := NewGetSubscriptionDetailsUseCase(e.subscriptions, e.registry, e.ledger, logger.NewNopLogger()).
		Execute(ctx, GetSubscriptionDetailsQuery{UserID: userID})
	require.NoError(t, err)

	assert.Equal(t, int64(4), details.TotalUsage)
	assert.Equal(t, int64(4), details.Usage.TotalCalls)
	assert.InDelta(t, 100.0, details.Usage.UsagePercentage, 0.001)
	require.Len(t, details.Usage.ByEndpoint, 2)
	assert.Equal(t, "/compute", details.Usage.ByEndpoint[0].Endpoint)
	assert.Equal(t, "compute", details.Usage.ByEndpoint[0].PermissionName)
	assert.Equal(t, int64(3), details.Usage.ByEndpoint[0].Count)
	assert.Equal(t, testNow, details.Usage.ByEndpoint[0].LastAccess)
	assert.Equal(t, "unknown", details.Usage.ByEndpoint[1].PermissionName)
}

func TestGetUsageReport(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	uc := NewGetUsageReportUseCase(e.subscriptions, e.registry, e.ledger, logger.NewNopLogger())

	_, err := uc.Execute(ctx, GetUsageReportQuery{UserID: "usr_missing"})
	assert.True(t, errors.IsNotFoundError(err))

	planless := e.createUser(t, "bob")
	e.seedUsage(t, planless, "/storage", 2)
	report, err := uc.Execute(ctx, GetUsageReportQuery{UserID: planless})
	require.NoError(t, err)
	assert.Nil(t, report.Plan)
	assert.Equal(t, "bob", report.Username)
	assert.Equal(t, int64(2), report.Usage.TotalCalls)
	assert.Zero(t, report.Usage.UsagePercentage)

	alice := e.createUser(t, "alice")
	_, err = e.subscribe().Execute(ctx, SubscribeCommand{UserID: alice, PlanName: "basic", DurationDays: 30})
	require.NoError(t, err)
	e.seedUsage(t, alice, "/compute", 1)

	report, err = uc.Execute(ctx, GetUsageReportQuery{UserID: alice})
	require.NoError(t, err)
	require.NotNil(t, report.Plan)
	assert.Equal(t, "basic", report.Plan.Name)
	assert.InDelta(t, 25.0, report.Usage.UsagePercentage, 0.001)
	require.Len(t, report.Usage.ByEndpoint, 1)
	assert.Equal(t, "compute", report.Usage.ByEndpoint[0].PermissionName)
}

func TestRemoveUser(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.createUser(t, "alice")
	e.seedUsage(t, userID, "/compute", 2)
	uc := NewRemoveUserUseCase(e.subscriptions, e.ledger, nil, logger.NewNopLogger())

	require.NoError(t, uc.Execute(ctx, RemoveUserCommand{UserID: userID, RemovedBy: "root"}))

	sub, err := e.subscriptions.Find(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, sub)
	counters, err := e.ledger.List(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, counters)

	err = uc.Execute(ctx, RemoveUserCommand{UserID: userID})
	assert.True(t, errors.IsNotFoundError(err))

	again := e.createUser(t, "alice")
	assert.NotEqual(t, userID, again)
}
