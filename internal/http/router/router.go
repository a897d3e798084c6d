package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/marketplace-backend/internal/config"
	"github.com/ignatzorin/marketplace-backend/internal/http/middleware"
	"github.com/ignatzorin/marketplace-backend/internal/interface/http/handler"
	"github.com/ignatzorin/marketplace-backend/internal/service"
)

// Handlers собирает обработчики, которые монтирует роутер.
type Handlers struct {
	Project     *handler.ProjectHandler
	Dispute     *handler.DisputeHandler
	Application *handler.ApplicationHandler
	Payment     *handler.PaymentHandler
	Health      *handler.HealthHandler
	WS          *handler.WSHandler
}

func SetupRouter(cfg *config.Config, h Handlers, tokenManager *service.TokenManager) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)

	api := r.Group("/api")
	if h.WS != nil {
		api.GET("/ws", h.WS.Handle)
	}

	// вебхук аутентифицируется подписью, а не токеном
	api.POST("/payments/callback", h.Payment.Callback)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		transitionLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)

		protected.POST("/projects", h.Project.CreateProject)
		protected.GET("/projects/:id", middleware.UUIDValidator("id"), h.Project.GetProject)
		protected.POST("/projects/:id/transitions", middleware.UUIDValidator("id"), transitionLimit, h.Project.RequestTransition)
		protected.GET("/projects/:id/transitions", middleware.UUIDValidator("id"), h.Project.History)
		protected.GET("/projects/:id/actions", middleware.UUIDValidator("id"), h.Project.AvailableActions)
		protected.POST("/projects/:id/archive/notes", middleware.UUIDValidator("id"), h.Project.AppendArchiveNote)

		protected.POST("/projects/:id/disputes", middleware.UUIDValidator("id"), transitionLimit, h.Project.OpenDispute)
		protected.GET("/projects/:id/disputes", middleware.UUIDValidator("id"), h.Dispute.ListByProject)
		protected.PATCH("/disputes/:id/status", middleware.UUIDValidator("id"), h.Dispute.ChangeStatus)

		protected.POST("/projects/:id/applications", middleware.UUIDValidator("id"), h.Application.Submit)
		protected.GET("/projects/:id/applications", middleware.UUIDValidator("id"), h.Application.List)
		protected.DELETE("/applications/:id", middleware.UUIDValidator("id"), h.Application.Withdraw)

		protected.POST("/projects/:id/payments", middleware.UUIDValidator("id"), h.Payment.Initiate)
	}

	return r
}
