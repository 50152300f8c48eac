package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quotagate/quotagate/internal/infrastructure/config"
	"github.com/quotagate/quotagate/internal/infrastructure/ratelimit"
	"github.com/quotagate/quotagate/internal/interfaces/http/handlers"
	"github.com/quotagate/quotagate/internal/interfaces/http/middleware"
	"github.com/quotagate/quotagate/internal/interfaces/http/routes"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

// Router represents the HTTP router configuration
type Router struct {
	engine               *gin.Engine
	container            *Container
	subscriptionHandler  *handlers.SubscriptionHandler
	serviceHandler       *handlers.ServiceHandler
	adminHandler         *handlers.AdminHandler
	healthHandler        *handlers.HealthHandler
	authMiddleware       *middleware.AuthMiddleware
	accessMiddleware     *middleware.AccessMiddleware
	permissionMiddleware *middleware.PermissionMiddleware
	rateLimiter          *middleware.RateLimiter
	logger               logger.Interface
}

func NewRouter(cfg *config.Config, c *Container, log logger.Interface) *Router {
	engine := gin.New()

	r := &Router{
		engine:    engine,
		container: c,
		subscriptionHandler: handlers.NewSubscriptionHandler(
			c.Subscribe, c.GetSummary, c.GetDetails, c.GetUsageReport,
			cfg.Access.DefaultDurationDays, log,
		),
		serviceHandler: handlers.NewServiceHandler(nil, log),
		adminHandler: handlers.NewAdminHandler(
			c.CreateUser, c.AssignPlan, c.RemoveUser, c.GetUsageReport, log,
		),
		healthHandler:        handlers.NewHealthHandler(log, healthChecks(c)...),
		authMiddleware:       middleware.NewAuthMiddleware(c.JWTService, log),
		accessMiddleware:     middleware.NewAccessMiddleware(c.CheckAccess, log),
		permissionMiddleware: middleware.NewPermissionMiddleware(c.Enforcer, log),
		logger:               log,
	}

	if c.RateLimiter != nil {
		r.rateLimiter = middleware.NewRateLimiter(c.RateLimiter, ratelimit.Limits{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			RequestsPerHour:   cfg.RateLimit.RequestsPerHour,
			RequestsPerDay:    cfg.RateLimit.RequestsPerDay,
		}, c.Metrics, log)
	}

	return r
}

// SetupRoutes configures all HTTP routes. When serveMetrics is false the
// metrics endpoint is left to a dedicated listener.
func (r *Router) SetupRoutes(serveMetrics bool) {
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.Logger(r.logger))
	r.engine.Use(middleware.Recovery(r.logger))
	r.engine.Use(middleware.Metrics(r.container.Metrics))

	r.engine.GET("/health", r.healthHandler.Check)
	if serveMetrics {
		r.engine.GET("/metrics", gin.WrapH(r.container.Metrics.Handler()))
	}

	api := r.engine.Group("/api/v1")

	routes.SetupSubscriptionRoutes(api, &routes.SubscriptionRouteConfig{
		SubscriptionHandler: r.subscriptionHandler,
		AuthMiddleware:      r.authMiddleware,
		RateLimiter:         r.rateLimiter,
	})
	routes.SetupServiceRoutes(api, &routes.ServiceRouteConfig{
		ServiceHandler:   r.serviceHandler,
		AuthMiddleware:   r.authMiddleware,
		AccessMiddleware: r.accessMiddleware,
		RateLimiter:      r.rateLimiter,
	})
	routes.SetupAdminRoutes(api, &routes.AdminRouteConfig{
		AdminHandler:         r.adminHandler,
		AuthMiddleware:       r.authMiddleware,
		PermissionMiddleware: r.permissionMiddleware,
	})
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) Handler() http.Handler {
	return r.engine
}

func healthChecks(c *Container) []handlers.HealthCheck {
	var checks []handlers.HealthCheck
	if c.Stores.DB != nil {
		gormDB := c.Stores.DB
		checks = append(checks, handlers.HealthCheck{
			Name: "database",
			Check: func(ctx context.Context) error {
				sqlDB, err := gormDB.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
		})
	}
	if c.Stores.Redis != nil {
		client := c.Stores.Redis
		checks = append(checks, handlers.HealthCheck{
			Name: "redis",
			Check: func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			},
		})
	}
	return checks
}
