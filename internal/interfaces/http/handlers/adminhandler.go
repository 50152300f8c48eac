package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quotagate/quotagate/internal/application/subscription/usecases"
	"github.com/quotagate/quotagate/internal/shared/logger"
	"github.com/quotagate/quotagate/internal/shared/utils"
)

// AdminHandler manages other users' accounts and plans.
type AdminHandler struct {
	createUserUseCase     createUserUseCase
	assignPlanUseCase     assignPlanUseCase
	removeUserUseCase     removeUserUseCase
	getUsageReportUseCase getUsageReportUseCase
	logger                logger.Interface
}

func NewAdminHandler(
	createUserUC createUserUseCase,
	assignPlanUC assignPlanUseCase,
	removeUserUC removeUserUseCase,
	getUsageReportUC getUsageReportUseCase,
	logger logger.Interface,
) *AdminHandler {
	return &AdminHandler{
		createUserUseCase:     createUserUC,
		assignPlanUseCase:     assignPlanUC,
		removeUserUseCase:     removeUserUC,
		getUsageReportUseCase: getUsageReportUC,
		logger:                logger,
	}
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	IsAdmin  bool   `json:"is_admin"`
}

// AssignPlanRequest assigns a plan. Omitting duration_days keeps the current
// subscription window.
type AssignPlanRequest struct {
	Plan         string `json:"plan" binding:"required"`
	DurationDays int    `json:"duration_days" binding:"gte=0"`
}

// CreateUser handles POST /admin/users
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create user", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.createUserUseCase.Execute(c.Request.Context(), usecases.CreateUserCommand{
		Username: req.Username,
		IsAdmin:  req.IsAdmin,
	})
	if err != nil {
		h.logger.Warnw("failed to create user", "error", err, "username", req.Username)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "user created", result)
}

// AssignPlan handles POST /admin/users/:id/plan
func (h *AdminHandler) AssignPlan(c *gin.Context) {
	userID := c.Param("id")
	adminID, _ := utils.GetUserID(c)

	var req AssignPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for assign plan", "error", err, "user_id", userID)
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.assignPlanUseCase.Execute(c.Request.Context(), usecases.AssignPlanCommand{
		UserID:       userID,
		PlanName:     req.Plan,
		DurationDays: req.DurationDays,
		AssignedBy:   adminID,
	})
	if err != nil {
		h.logger.Warnw("failed to assign plan", "error", err, "user_id", userID, "plan", req.Plan)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "plan assigned", result)
}

// RemoveUser handles DELETE /admin/users/:id
func (h *AdminHandler) RemoveUser(c *gin.Context) {
	userID := c.Param("id")
	adminID, _ := utils.GetUserID(c)

	err := h.removeUserUseCase.Execute(c.Request.Context(), usecases.RemoveUserCommand{
		UserID:    userID,
		RemovedBy: adminID,
	})
	if err != nil {
		h.logger.Warnw("failed to remove user", "error", err, "user_id", userID)
		utils.ErrorResponseWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetUsage handles GET /admin/users/:id/usage
func (h *AdminHandler) GetUsage(c *gin.Context) {
	userID := c.Param("id")

	result, err := h.getUsageReportUseCase.Execute(c.Request.Context(), usecases.GetUsageReportQuery{UserID: userID})
	if err != nil {
		h.logger.Warnw("failed to get usage report", "error", err, "user_id", userID)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}
