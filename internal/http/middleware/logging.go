package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/marketplace-backend/internal/interface/http/response"
	"github.com/ignatzorin/marketplace-backend/internal/logger"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

// RequestLogger пишет каждый запрос в общий логгер.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		}
		if actor, ok := CurrentActor(c); ok {
			fields["actor_id"] = actor.ID.String()
			fields["role"] = string(actor.Role)
		}

		entry := logger.Log.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("http запрос")
		case status >= http.StatusBadRequest:
			entry.Warn("http запрос")
		default:
			entry.Info("http запрос")
		}
	}
}

// Recovery перехватывает panic в обработчиках и отвечает 500 в общем формате.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.WithFields(logrus.Fields{
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				}).Errorf("panic в обработчике: %v\n%s", r, debug.Stack())

				if !c.Writer.Written() {
					response.Error(c, apperror.New(apperror.ErrCodeInternal, "внутренняя ошибка сервера"))
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
