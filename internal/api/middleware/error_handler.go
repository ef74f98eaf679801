package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "aitranscribe/internal/api/errors"
)

// ErrorHandler turns panics into a generic JSON error so a failing
// request never tears down the server.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		requestID := c.GetString(RequestIDKey)

		var apiErr *apierrors.APIError
		switch err := recovered.(type) {
		case *apierrors.APIError:
			apiErr = err
		case error:
			logger.Error("Internal server error",
				zap.Error(err),
				zap.String("request_id", requestID),
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			)
			apiErr = apierrors.NewInternalError("An unexpected error occurred")
		default:
			logger.Error("Unknown panic occurred",
				zap.Any("recovered", recovered),
				zap.String("request_id", requestID),
			)
			apiErr = apierrors.NewInternalError("An unexpected error occurred")
		}

		apiErr.RequestID = requestID
		c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
	})
}

// HandleError writes err as a JSON error response. Errors that are not
// APIErrors are reported as internal errors.
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) {
		c.Error(err)
		apiErr = apierrors.NewInternalError("An unexpected error occurred")
	}

	apiErr.RequestID = c.GetString(RequestIDKey)
	c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
}
