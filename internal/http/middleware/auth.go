package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
	"github.com/ignatzorin/marketplace-backend/internal/interface/http/response"
	"github.com/ignatzorin/marketplace-backend/internal/service"
)

// ContextActorKey: ключ участника запроса в gin.Context.
const ContextActorKey = "actor"

// AuthMiddleware проверяет access-токен и кладёт участника в контекст.
func AuthMiddleware(tokens *service.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			response.Unauthorized(c, "требуется авторизация")
			c.Abort()
			return
		}

		actor, err := tokens.ParseAccess(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			response.Unauthorized(c, "токен невалиден")
			c.Abort()
			return
		}

		c.Set(ContextActorKey, actor)
		c.Next()
	}
}

// CurrentActor возвращает участника, положенного AuthMiddleware.
func CurrentActor(c *gin.Context) (entity.Actor, bool) {
	raw, exists := c.Get(ContextActorKey)
	if !exists {
		return entity.Actor{}, false
	}
	actor, ok := raw.(entity.Actor)
	return actor, ok
}
