package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/quotagate/quotagate/internal/application/access/usecases"
	"github.com/quotagate/quotagate/internal/domain/access"
	"github.com/quotagate/quotagate/internal/shared/errors"
	"github.com/quotagate/quotagate/internal/shared/logger"
	"github.com/quotagate/quotagate/internal/shared/utils"
)

type checkAccessUseCase interface {
	Execute(ctx context.Context, cmd usecases.CheckAccessCommand) error
}

// AccessMiddleware meters protected routes: every request that reaches the
// handler has passed the access check and consumed one call.
type AccessMiddleware struct {
	checkAccess checkAccessUseCase
	logger      logger.Interface
}

func NewAccessMiddleware(checkAccess checkAccessUseCase, logger logger.Interface) *AccessMiddleware {
	return &AccessMiddleware{
		checkAccess: checkAccess,
		logger:      logger,
	}
}

// Meter checks the caller against the endpoint "/"+c.Param(param).
func (m *AccessMiddleware) Meter(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := utils.GetUserID(c)
		if !ok {
			utils.AbortWithError(c, errors.NewUnauthorizedError("user not authenticated"))
			return
		}

		endpoint := "/" + c.Param(param)
		err := m.checkAccess.Execute(c.Request.Context(), usecases.CheckAccessCommand{
			UserID:   userID,
			Endpoint: endpoint,
		})
		if err != nil {
			if _, denied := access.ReasonOf(err); !denied {
				m.logger.Errorw("access check failed", "error", err, "user_id", userID, "endpoint", endpoint)
			}
			utils.AbortWithError(c, DenialError(err))
			return
		}

		c.Next()
	}
}

// DenialError converts an access denial into the AppError rendered to the
// client. The deny reason code travels in the error details. Other errors
// are returned unchanged.
func DenialError(err error) error {
	reason, denied := access.ReasonOf(err)
	if !denied {
		return err
	}

	msg := reason.Message()
	code := string(reason)
	switch reason {
	case access.ReasonUnknownUser:
		return errors.NewUnauthorizedError(msg, code)
	case access.ReasonUnknownEndpoint:
		return errors.NewNotFoundError(msg, code)
	case access.ReasonQuotaExceeded:
		return errors.NewTooManyRequestsError(msg, code)
	default:
		return errors.NewForbiddenError(msg, code)
	}
}
