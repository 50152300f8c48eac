package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/quotagate/quotagate/internal/domain/permission"
	"github.com/quotagate/quotagate/internal/interfaces/http/handlers"
	"github.com/quotagate/quotagate/internal/interfaces/http/middleware"
)

// AdminRouteConfig holds dependencies for admin routes.
type AdminRouteConfig struct {
	AdminHandler         *handlers.AdminHandler
	AuthMiddleware       *middleware.AuthMiddleware
	PermissionMiddleware *middleware.PermissionMiddleware
}

// SetupAdminRoutes configures the administrative user routes.
func SetupAdminRoutes(api *gin.RouterGroup, cfg *AdminRouteConfig) {
	admin := api.Group("/admin")
	admin.Use(cfg.AuthMiddleware.RequireAuth())
	{
		users := admin.Group("/users")
		users.POST("",
			cfg.PermissionMiddleware.RequirePermission(permission.ResourceUsers, permission.ActionWrite),
			cfg.AdminHandler.CreateUser)
		users.POST("/:id/plan",
			cfg.PermissionMiddleware.RequirePermission(permission.ResourceUsers, permission.ActionWrite),
			cfg.AdminHandler.AssignPlan)
		users.DELETE("/:id",
			cfg.PermissionMiddleware.RequirePermission(permission.ResourceUsers, permission.ActionWrite),
			cfg.AdminHandler.RemoveUser)
		users.GET("/:id/usage",
			cfg.PermissionMiddleware.RequirePermission(permission.ResourceUsage, permission.ActionRead),
			cfg.AdminHandler.GetUsage)
	}
}
