package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
	"github.com/ignatzorin/marketplace-backend/internal/http/middleware"
	"github.com/ignatzorin/marketplace-backend/internal/interface/http/response"
)

// actorOrAbort возвращает участника запроса или отвечает 401.
func actorOrAbort(c *gin.Context) (entity.Actor, bool) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		response.Unauthorized(c, "требуется авторизация")
		return entity.Actor{}, false
	}
	return actor, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "некорректный "+name)
		return uuid.Nil, false
	}
	return id, true
}
