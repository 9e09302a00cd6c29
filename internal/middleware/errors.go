package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/reelroom/internal/apperr"
	"go.uber.org/zap"
)

// ErrorHandler renders the last error a handler attached with c.Error as
// {"error": CODE, "message": text}, plus any AppError details. Causes are
// logged, never sent.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		appErr := apperr.As(err)
		if appErr == nil {
			logger.Error("unhandled error",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   string(apperr.CodeInternal),
				"message": "internal server error",
			})
			return
		}

		fields := []zap.Field{
			zap.String("code", string(appErr.Code)),
			zap.Int("status", appErr.HTTPStatus),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		}
		if appErr.Cause != nil {
			fields = append(fields, zap.NamedError("cause", appErr.Cause))
		}
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			logger.Error(appErr.Message, fields...)
		} else {
			logger.Debug(appErr.Message, fields...)
		}

		body := gin.H{
			"error":   string(appErr.Code),
			"message": appErr.Message,
		}
		for k, v := range appErr.Details {
			body[k] = v
		}
		c.JSON(appErr.HTTPStatus, body)
	}
}

// Recovery turns a panic into a generic 500 without leaking the stack.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.Stack("stack"),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":   string(apperr.CodeInternal),
					"message": "internal server error",
				})
			}
		}()
		c.Next()
	}
}
