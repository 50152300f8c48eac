package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	registryUsecases "github.com/quotagate/quotagate/internal/application/registry/usecases"
	subUsecases "github.com/quotagate/quotagate/internal/application/subscription/usecases"
	"github.com/quotagate/quotagate/internal/infrastructure/config"
	"github.com/quotagate/quotagate/internal/infrastructure/storage"
	sharedConfig "github.com/quotagate/quotagate/internal/shared/config"
	"github.com/quotagate/quotagate/internal/shared/constants"
	"github.com/quotagate/quotagate/internal/shared/logger"
	"github.com/quotagate/quotagate/internal/shared/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func routerTestConfig(backend string, dbPath string) *config.Config {
	return &config.Config{
		Database: sharedConfig.DatabaseConfig{Driver: "sqlite", Path: dbPath},
		Storage:  sharedConfig.StorageConfig{Backend: backend, Ledger: storage.LedgerSame},
		Access:   sharedConfig.AccessConfig{QuotaScope: "per_endpoint", DefaultDurationDays: 30},
		Auth: sharedConfig.AuthConfig{JWT: sharedConfig.JWTConfig{
			Secret:           "test-secret",
			Issuer:           "quotagate",
			AccessExpMinutes: 5,
		}},
	}
}

type apiClient struct {
	t       *testing.T
	handler http.Handler
}

func (a apiClient) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, utils.APIResponse) {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)

	var resp utils.APIResponse
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestRouter_EndToEnd(t *testing.T) {
	backends := []string{storage.BackendMemory, storage.BackendSQL}

	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			cfg := routerTestConfig(backend, filepath.Join(t.TempDir(), "quotagate.db"))
			log := logger.NewNopLogger()

			stores, err := storage.Open(ctx, cfg, storage.Options{AutoMigrate: true}, log)
			require.NoError(t, err)
			defer stores.Close(ctx)

			container, err := NewContainer(ctx, cfg, stores, log)
			require.NoError(t, err)

			_, err = container.ApplyRegistry.Execute(ctx, registryUsecases.ApplyRegistryCommand{
				Permissions: []registryUsecases.PermissionSpec{{Name: "compute", Endpoint: "/compute"}},
				Plans:       []registryUsecases.PlanSpec{{Name: "basic", Permissions: []string{"compute"}, CallLimit: 2}},
				AppliedBy:   constants.SystemActor,
			})
			require.NoError(t, err)

			alice, err := container.CreateUser.Execute(ctx, subUsecases.CreateUserCommand{Username: "alice"})
			require.NoError(t, err)

			aliceToken, _, err := container.JWTService.Generate(alice.UserID, false)
			require.NoError(t, err)
			adminToken, _, err := container.JWTService.Generate("usr_admin", true)
			require.NoError(t, err)

			router := NewRouter(cfg, container, log)
			router.SetupRoutes(true)
			api := apiClient{t: t, handler: router.Handler()}

			w, _ := api.do(http.MethodGet, "/api/v1/service/compute", aliceToken, nil)
			assert.Equal(t, http.StatusForbidden, w.Code, "no plan yet")

			w, _ = api.do(http.MethodPost, "/api/v1/subscription/subscribe/basic", aliceToken, nil)
			require.Equal(t, http.StatusOK, w.Code)

			for i := 0; i < 2; i++ {
				w, _ = api.do(http.MethodGet, "/api/v1/service/compute", aliceToken, nil)
				assert.Equal(t, http.StatusOK, w.Code)
			}
			w, resp := api.do(http.MethodGet, "/api/v1/service/compute", aliceToken, nil)
			assert.Equal(t, http.StatusTooManyRequests, w.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, "quota_exceeded", resp.Error.Details)

			w, _ = api.do(http.MethodGet, "/api/v1/service/storage", aliceToken, nil)
			assert.Equal(t, http.StatusNotFound, w.Code)

			w, resp = api.do(http.MethodGet, "/api/v1/subscription/summary", aliceToken, nil)
			require.Equal(t, http.StatusOK, w.Code)
			summary := resp.Data.(map[string]interface{})
			assert.Equal(t, float64(2), summary["total_usage"])

			w, _ = api.do(http.MethodGet, "/api/v1/admin/users/"+alice.UserID+"/usage", aliceToken, nil)
			assert.Equal(t, http.StatusForbidden, w.Code)

			w, _ = api.do(http.MethodGet, "/api/v1/admin/users/"+alice.UserID+"/usage", adminToken, nil)
			assert.Equal(t, http.StatusOK, w.Code)

			w, _ = api.do(http.MethodPost, "/api/v1/admin/users/"+alice.UserID+"/plan", adminToken,
				map[string]interface{}{"plan": "basic"})
			require.Equal(t, http.StatusOK, w.Code)

			w, _ = api.do(http.MethodGet, "/api/v1/service/compute", aliceToken, nil)
			assert.Equal(t, http.StatusOK, w.Code, "plan assignment resets usage")

			w, _ = api.do(http.MethodDelete, "/api/v1/admin/users/"+alice.UserID, adminToken, nil)
			assert.Equal(t, http.StatusNoContent, w.Code)

			w, _ = api.do(http.MethodGet, "/api/v1/service/compute", aliceToken, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			w, _ = api.do(http.MethodGet, "/api/v1/subscription/summary", "", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			w, _ = api.do(http.MethodGet, "/health", "", nil)
			assert.Equal(t, http.StatusOK, w.Code)

			w, _ = api.do(http.MethodGet, "/metrics", "", nil)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), "quotagate_access_decisions_total")
		})
	}
}
