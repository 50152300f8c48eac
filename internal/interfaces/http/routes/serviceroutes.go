package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/quotagate/quotagate/internal/interfaces/http/handlers"
	"github.com/quotagate/quotagate/internal/interfaces/http/middleware"
)

// ServiceRouteConfig holds dependencies for metered service routes.
type ServiceRouteConfig struct {
	ServiceHandler   *handlers.ServiceHandler
	AuthMiddleware   *middleware.AuthMiddleware
	AccessMiddleware *middleware.AccessMiddleware
	RateLimiter      *middleware.RateLimiter
}

// SetupServiceRoutes configures the metered service routes. The rate limiter
// runs before metering so throttled calls never consume quota.
func SetupServiceRoutes(api *gin.RouterGroup, cfg *ServiceRouteConfig) {
	service := api.Group("/service")
	service.Use(cfg.AuthMiddleware.RequireAuth())
	if cfg.RateLimiter != nil {
		service.Use(cfg.RateLimiter.Limit())
	}
	{
		service.GET("/:name", cfg.AccessMiddleware.Meter("name"), cfg.ServiceHandler.Call)
	}
}
