package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/quotagate/quotagate/internal/interfaces/http/handlers"
	"github.com/quotagate/quotagate/internal/interfaces/http/middleware"
)

// SubscriptionRouteConfig holds dependencies for subscription routes.
type SubscriptionRouteConfig struct {
	SubscriptionHandler *handlers.SubscriptionHandler
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimiter         *middleware.RateLimiter
}

// SetupSubscriptionRoutes configures the caller's subscription routes.
func SetupSubscriptionRoutes(api *gin.RouterGroup, cfg *SubscriptionRouteConfig) {
	subs := api.Group("/subscription")
	subs.Use(cfg.AuthMiddleware.RequireAuth())
	if cfg.RateLimiter != nil {
		subs.Use(cfg.RateLimiter.Limit())
	}
	{
		subs.POST("/subscribe/:plan", cfg.SubscriptionHandler.Subscribe)
		subs.GET("/summary", cfg.SubscriptionHandler.GetSummary)
		subs.GET("/details", cfg.SubscriptionHandler.GetDetails)
		subs.GET("/usage", cfg.SubscriptionHandler.GetUsage)
	}
}
