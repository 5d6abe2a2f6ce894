package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/worklance/worklance-backend/internal/logger"
	"github.com/worklance/worklance-backend/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки централизованно: apperror.AppError
// переводится в свой HTTP-статус, всё остальное маскируется как внутренняя
// ошибка, чтобы детали хранилища не утекали наружу.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		statusCode := http.StatusInternalServerError
		message := "внутренняя ошибка сервера"
		code := apperror.ErrCodeInternal

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			statusCode = appErr.HTTPStatus
			message = appErr.Message
			code = appErr.Code
		}

		entry := logger.Log.WithFields(logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
			"status": statusCode,
		})
		if statusCode >= http.StatusInternalServerError {
			entry.Error("Request error")
		} else {
			entry.Warn("Request error")
		}

		c.JSON(statusCode, gin.H{
			"error": message,
			"code":  code,
		})
	}
}
