package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quotagate/quotagate/internal/shared/biztime"
	"github.com/quotagate/quotagate/internal/shared/logger"
	"github.com/quotagate/quotagate/internal/shared/utils"
)

// ServiceResult is the payload of a metered service call.
type ServiceResult struct {
	Service    string    `json:"service"`
	UserID     string    `json:"user_id"`
	ExecutedAt time.Time `json:"executed_at"`
}

// ServiceHandler runs protected operations. Metering happens in the access
// middleware in front of it.
type ServiceHandler struct {
	clock  biztime.Clock
	logger logger.Interface
}

func NewServiceHandler(clock biztime.Clock, logger logger.Interface) *ServiceHandler {
	if clock == nil {
		clock = biztime.SystemClock{}
	}
	return &ServiceHandler{
		clock:  clock,
		logger: logger,
	}
}

// Call handles GET /service/:name
func (h *ServiceHandler) Call(c *gin.Context) {
	userID, _ := utils.GetUserID(c)
	name := c.Param("name")

	h.logger.Debugw("service executed", "service", name, "user_id", userID)

	utils.SuccessResponse(c, http.StatusOK, "service executed", ServiceResult{
		Service:    name,
		UserID:     userID,
		ExecutedAt: h.clock.Now(),
	})
}
