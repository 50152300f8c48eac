package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/quotagate/quotagate/internal/application/subscription/usecases"
	"github.com/quotagate/quotagate/internal/shared/constants"
	"github.com/quotagate/quotagate/internal/shared/errors"
	"github.com/quotagate/quotagate/internal/shared/logger"
	"github.com/quotagate/quotagate/internal/shared/utils"
)

// SubscriptionHandler serves the caller's own subscription.
type SubscriptionHandler struct {
	subscribeUseCase      subscribeUseCase
	getSummaryUseCase     getSubscriptionSummaryUseCase
	getDetailsUseCase     getSubscriptionDetailsUseCase
	getUsageReportUseCase getUsageReportUseCase
	defaultDurationDays   int
	logger                logger.Interface
}

func NewSubscriptionHandler(
	subscribeUC subscribeUseCase,
	getSummaryUC getSubscriptionSummaryUseCase,
	getDetailsUC getSubscriptionDetailsUseCase,
	getUsageReportUC getUsageReportUseCase,
	defaultDurationDays int,
	logger logger.Interface,
) *SubscriptionHandler {
	if defaultDurationDays <= 0 {
		defaultDurationDays = constants.DefaultDurationDays
	}
	return &SubscriptionHandler{
		subscribeUseCase:      subscribeUC,
		getSummaryUseCase:     getSummaryUC,
		getDetailsUseCase:     getDetailsUC,
		getUsageReportUseCase: getUsageReportUC,
		defaultDurationDays:   defaultDurationDays,
		logger:                logger,
	}
}

// Subscribe handles POST /subscription/subscribe/:plan?duration_days=N
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	userID, ok := utils.GetUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	durationDays := h.defaultDurationDays
	if raw := c.Query("duration_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			utils.ErrorResponseWithError(c, errors.NewValidationError("duration_days must be an integer", raw))
			return
		}
		durationDays = parsed
	}

	result, err := h.subscribeUseCase.Execute(c.Request.Context(), usecases.SubscribeCommand{
		UserID:       userID,
		PlanName:     c.Param("plan"),
		DurationDays: durationDays,
	})
	if err != nil {
		h.logger.Warnw("failed to subscribe", "error", err, "user_id", userID, "plan", c.Param("plan"))
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "subscription activated", result)
}

// GetSummary handles GET /subscription/summary
func (h *SubscriptionHandler) GetSummary(c *gin.Context) {
	userID, ok := utils.GetUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	result, err := h.getSummaryUseCase.Execute(c.Request.Context(), usecases.GetSubscriptionSummaryQuery{UserID: userID})
	if err != nil {
		h.logger.Warnw("failed to get subscription summary", "error", err, "user_id", userID)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// GetDetails handles GET /subscription/details
func (h *SubscriptionHandler) GetDetails(c *gin.Context) {
	userID, ok := utils.GetUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	result, err := h.getDetailsUseCase.Execute(c.Request.Context(), usecases.GetSubscriptionDetailsQuery{UserID: userID})
	if err != nil {
		h.logger.Warnw("failed to get subscription details", "error", err, "user_id", userID)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// GetUsage handles GET /subscription/usage
func (h *SubscriptionHandler) GetUsage(c *gin.Context) {
	userID, ok := utils.GetUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	result, err := h.getUsageReportUseCase.Execute(c.Request.Context(), usecases.GetUsageReportQuery{UserID: userID})
	if err != nil {
		h.logger.Warnw("failed to get usage report", "error", err, "user_id", userID)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}
