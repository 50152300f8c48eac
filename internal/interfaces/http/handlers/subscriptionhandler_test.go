package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	subdto "github.com/quotagate/quotagate/internal/application/subscription/dto"
	"github.com/quotagate/quotagate/internal/application/subscription/usecases"
	"github.com/quotagate/quotagate/internal/interfaces/http/handlers/testutil"
	"github.com/quotagate/quotagate/internal/shared/errors"
)

// =====================================================================
// Mock use cases
// =====================================================================

type mockSubscribeUC struct {
	result *subdto.SubscriptionWindowDTO
	err    error
	last   usecases.SubscribeCommand
}

func (m *mockSubscribeUC) Execute(ctx context.Context, cmd usecases.SubscribeCommand) (*subdto.SubscriptionWindowDTO, error) {
	m.last = cmd
	return m.result, m.err
}

type mockGetSummaryUC struct {
	result *subdto.SubscriptionSummaryDTO
	err    error
}

func (m *mockGetSummaryUC) Execute(ctx context.Context, query usecases.GetSubscriptionSummaryQuery) (*subdto.SubscriptionSummaryDTO, error) {
	return m.result, m.err
}

type mockGetDetailsUC struct {
	result *subdto.SubscriptionDetailsDTO
	err    error
}

func (m *mockGetDetailsUC) Execute(ctx context.Context, query usecases.GetSubscriptionDetailsQuery) (*subdto.SubscriptionDetailsDTO, error) {
	return m.result, m.err
}

type mockGetUsageReportUC struct {
	result *subdto.UsageReportDTO
	err    error
	last   usecases.GetUsageReportQuery
}

func (m *mockGetUsageReportUC) Execute(ctx context.Context, query usecases.GetUsageReportQuery) (*subdto.UsageReportDTO, error) {
	m.last = query
	return m.result, m.err
}

// =====================================================================
// Test helpers
// =====================================================================

var handlerNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestSubscriptionHandler(
	subscribeUC subscribeUseCase,
	getSummaryUC getSubscriptionSummaryUseCase,
	getDetailsUC getSubscriptionDetailsUseCase,
	getUsageReportUC getUsageReportUseCase,
) *SubscriptionHandler {
	return NewSubscriptionHandler(subscribeUC, getSummaryUC, getDetailsUC, getUsageReportUC, 30, testutil.NewMockLogger())
}

func testPlanDTO() subdto.PlanDTO {
	return subdto.PlanDTO{
		Name:        "basic",
		Permissions: []string{"compute"},
		CallLimit:   10,
		IsActive:    true,
		CreatedAt:   handlerNow,
		CreatedBy:   "ops",
	}
}

// =====================================================================
// TestSubscriptionHandler_Subscribe
// =====================================================================

func TestSubscriptionHandler_Subscribe_DefaultDuration(t *testing.T) {
	mockUC := &mockSubscribeUC{result: &subdto.SubscriptionWindowDTO{
		UserID:   "usr_1",
		PlanName: "basic",
		Start:    handlerNow,
		End:      handlerNow.AddDate(0, 0, 30),
	}}
	handler := newTestSubscriptionHandler(mockUC, nil, nil, nil)

	c, w := testutil.NewTestContext(http.MethodPost, "/subscription/subscribe/basic", nil)
	testutil.SetAuthContext(c, "usr_1", false)
	testutil.SetURLParam(c, "plan", "basic")

	handler.Subscribe(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, usecases.SubscribeCommand{UserID: "usr_1", PlanName: "basic", DurationDays: 30}, mockUC.last)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.True(t, resp.Success)

	var window subdto.SubscriptionWindowDTO
	require.NoError(t, json.Unmarshal(resp.Data, &window))
	assert.Equal(t, "basic", window.PlanName)
	assert.True(t, window.End.Equal(handlerNow.AddDate(0, 0, 30)))
}

func TestSubscriptionHandler_Subscribe_ExplicitDuration(t *testing.T) {
	mockUC := &mockSubscribeUC{result: &subdto.SubscriptionWindowDTO{}}
	handler := newTestSubscriptionHandler(mockUC, nil, nil, nil)

	c, w := testutil.NewTestContext(http.MethodPost, "/subscription/subscribe/pro", nil)
	testutil.SetAuthContext(c, "usr_1", false)
	testutil.SetURLParam(c, "plan", "pro")
	testutil.SetQueryParams(c, map[string]string{"duration_days": "7"})

	handler.Subscribe(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7, mockUC.last.DurationDays)
}

func TestSubscriptionHandler_Subscribe_InvalidDuration(t *testing.T) {
	mockUC := &mockSubscribeUC{}
	handler := newTestSubscriptionHandler(mockUC, nil, nil, nil)

	c, w := testutil.NewTestContext(http.MethodPost, "/subscription/subscribe/pro", nil)
	testutil.SetAuthContext(c, "usr_1", false)
	testutil.SetURLParam(c, "plan", "pro")
	testutil.SetQueryParams(c, map[string]string{"duration_days": "soon"})

	handler.Subscribe(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, mockUC.last.UserID)
}

func TestSubscriptionHandler_Subscribe_UseCaseError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "non-positive duration", err: errors.NewValidationError("duration must be positive"), status: http.StatusBadRequest},
		{name: "unknown plan", err: errors.NewNotFoundError("plan not found"), status: http.StatusNotFound},
		{name: "inactive plan", err: errors.NewConflictError("plan is not active"), status: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestSubscriptionHandler(&mockSubscribeUC{err: tt.err}, nil, nil, nil)

			c, w := testutil.NewTestContext(http.MethodPost, "/subscription/subscribe/pro", nil)
			testutil.SetAuthContext(c, "usr_1", false)
			testutil.SetURLParam(c, "plan", "pro")

			handler.Subscribe(c)

			assert.Equal(t, tt.status, w.Code)
			var resp testutil.APIResponse
			require.NoError(t, testutil.ParseResponse(w, &resp))
			assert.False(t, resp.Success)
		})
	}
}

func TestSubscriptionHandler_Subscribe_Unauthenticated(t *testing.T) {
	handler := newTestSubscriptionHandler(&mockSubscribeUC{}, nil, nil, nil)

	c, w := testutil.NewTestContext(http.MethodPost, "/subscription/subscribe/pro", nil)
	testutil.SetURLParam(c, "plan", "pro")

	handler.Subscribe(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// =====================================================================
// TestSubscriptionHandler reads
// =====================================================================

func TestSubscriptionHandler_GetSummary(t *testing.T) {
	end := handlerNow.AddDate(0, 0, 30)
	mockUC := &mockGetSummaryUC{result: &subdto.SubscriptionSummaryDTO{
		UserID:     "usr_1",
		Plan:       testPlanDTO(),
		TotalUsage: 3,
		Start:      &handlerNow,
		End:        &end,
	}}
	handler := newTestSubscriptionHandler(nil, mockUC, nil, nil)

	c, w := testutil.NewTestContext(http.MethodGet, "/subscription/summary", nil)
	testutil.SetAuthContext(c, "usr_1", false)

	handler.GetSummary(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))

	var summary subdto.SubscriptionSummaryDTO
	require.NoError(t, json.Unmarshal(resp.Data, &summary))
	assert.Equal(t, int64(3), summary.TotalUsage)
	assert.Equal(t, "basic", summary.Plan.Name)
}

func TestSubscriptionHandler_GetSummary_NoPlan(t *testing.T) {
	handler := newTestSubscriptionHandler(nil, &mockGetSummaryUC{err: errors.NewNotFoundError("user has no plan")}, nil, nil)

	c, w := testutil.NewTestContext(http.MethodGet, "/subscription/summary", nil)
	testutil.SetAuthContext(c, "usr_1", false)

	handler.GetSummary(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubscriptionHandler_GetDetails(t *testing.T) {
	mockUC := &mockGetDetailsUC{result: &subdto.SubscriptionDetailsDTO{
		SubscriptionSummaryDTO: subdto.SubscriptionSummaryDTO{UserID: "usr_1", Plan: testPlanDTO(), TotalUsage: 5},
		Usage: subdto.UsageDTO{
			TotalCalls: 5,
			ByEndpoint: []subdto.EndpointUsageDTO{
				{Endpoint: "/compute", PermissionName: "compute", Count: 5, LastAccess: handlerNow},
			},
			UsagePercentage: 50,
		},
	}}
	handler := newTestSubscriptionHandler(nil, nil, mockUC, nil)

	c, w := testutil.NewTestContext(http.MethodGet, "/subscription/details", nil)
	testutil.SetAuthContext(c, "usr_1", false)

	handler.GetDetails(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))

	var details subdto.SubscriptionDetailsDTO
	require.NoError(t, json.Unmarshal(resp.Data, &details))
	assert.Equal(t, float64(50), details.Usage.UsagePercentage)
	require.Len(t, details.Usage.ByEndpoint, 1)
	assert.Equal(t, "/compute", details.Usage.ByEndpoint[0].Endpoint)
}

func TestSubscriptionHandler_GetUsage_UsesCaller(t *testing.T) {
	mockUC := &mockGetUsageReportUC{result: &subdto.UsageReportDTO{UserID: "usr_1", Username: "alice"}}
	handler := newTestSubscriptionHandler(nil, nil, nil, mockUC)

	c, w := testutil.NewTestContext(http.MethodGet, "/subscription/usage", nil)
	testutil.SetAuthContext(c, "usr_1", false)

	handler.GetUsage(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "usr_1", mockUC.last.UserID)
}
