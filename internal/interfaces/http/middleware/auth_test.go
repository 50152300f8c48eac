package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotagate/quotagate/internal/infrastructure/auth"
	"github.com/quotagate/quotagate/internal/shared/constants"
	"github.com/quotagate/quotagate/internal/shared/logger"
	"github.com/quotagate/quotagate/internal/shared/utils"
)

func newAuthEngine(jwtService *auth.JWTService) *gin.Engine {
	engine := gin.New()
	m := NewAuthMiddleware(jwtService, logger.NewNopLogger())
	engine.GET("/me", m.RequireAuth(), func(c *gin.Context) {
		userID, _ := utils.GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "is_admin": utils.IsAdmin(c)})
	})
	return engine
}

func TestRequireAuth(t *testing.T) {
	jwtService := auth.NewJWTService("secret", "quotagate", 5)
	token, _, err := jwtService.Generate("usr_1", true)
	require.NoError(t, err)

	otherIssuer := auth.NewJWTService("secret", "someone-else", 5)
	foreign, _, err := otherIssuer.Generate("usr_1", true)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "valid token", header: "Bearer " + token, status: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + token, status: http.StatusOK},
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + token, status: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer ", status: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer not-a-jwt", status: http.StatusUnauthorized},
		{name: "foreign issuer", header: "Bearer " + foreign, status: http.StatusUnauthorized},
	}

	engine := newAuthEngine(jwtService)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(constants.HeaderAuthorization, tt.header)
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"user_id":"usr_1","is_admin":true}`, w.Body.String())
			}
		})
	}
}
