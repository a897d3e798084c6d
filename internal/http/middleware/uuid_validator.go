package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/interface/http/response"
)

// UUIDValidator проверяет, что параметр пути paramName является UUID.
// Использование: router.GET("/projects/:id", UUIDValidator("id"), handler.Get)
func UUIDValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := uuid.Parse(c.Param(paramName)); err != nil {
			response.BadRequest(c, "параметр "+paramName+" должен быть валидным UUID")
			c.Abort()
			return
		}
		c.Next()
	}
}
